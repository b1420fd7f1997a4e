package report

import (
	"bytes"
	"context"
)

// ReportService builds calendar views and wage reports from the ledger.
type ReportService interface {
	MonthlyCalendar(ctx context.Context, req MonthlyRequest) (MonthlyCalendar, error)
	MonthlyReport(ctx context.Context, req MonthlyRequest) (MonthlyReport, error)
	YearlyReport(ctx context.Context, req YearlyRequest) (YearlyReport, error)

	// ExportMonthly renders the monthly calendar and report as an xlsx
	// workbook and returns it with a suggested file name.
	ExportMonthly(ctx context.Context, req MonthlyRequest) (*bytes.Buffer, string, error)
}
