package report

import (
	"bytes"
	"context"
	"fmt"

	"github.com/moyuu-az/attendance-system/internal/domain/report"
	"github.com/xuri/excelize/v2"
)

const (
	sheetDays    = "Attendance"
	sheetSummary = "Summary"
)

var dayColumns = []interface{}{
	"Date", "Weekday", "Status", "Holiday", "Clock in", "Clock out", "Break (min)", "Hours", "Amount",
}

// ExportMonthly implements report.ReportService.
func (s *ReportServiceImpl) ExportMonthly(ctx context.Context, req report.MonthlyRequest) (*bytes.Buffer, string, error) {
	cal, err := s.MonthlyCalendar(ctx, req)
	if err != nil {
		return nil, "", err
	}
	rep, err := s.MonthlyReport(ctx, req)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := writeWorkbook(f, cal, rep); err != nil {
		s.logger.Error("failed to build report workbook", "error", err)
		return nil, "", fmt.Errorf("%w: %v", report.ErrExportFailed, err)
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("failed to write report workbook", "error", err)
		return nil, "", fmt.Errorf("%w: %v", report.ErrExportFailed, err)
	}

	filename := fmt.Sprintf("attendance_%04d-%02d.xlsx", req.Year, req.Month)
	return buf, filename, nil
}

func writeWorkbook(f *excelize.File, cal report.MonthlyCalendar, rep report.MonthlyReport) error {
	if err := f.SetSheetName("Sheet1", sheetDays); err != nil {
		return err
	}
	if _, err := f.NewSheet(sheetSummary); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}

	if err := setRow(f, sheetDays, 1, dayColumns); err != nil {
		return err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(dayColumns))
	if err := f.SetCellStyle(sheetDays, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(sheetDays, "A", lastCol, 13); err != nil {
		return err
	}

	for i, d := range cal.CalendarDays {
		row := []interface{}{d.Date, d.Weekday, string(d.Status), d.HolidayName, "", "", 0, 0.0, 0.0}
		if a := d.Attendance; a != nil {
			if a.ClockIn != nil {
				row[4] = *a.ClockIn
			}
			if a.ClockOut != nil {
				row[5] = *a.ClockOut
			}
			row[6] = a.BreakMinutes
			row[7] = a.TotalHours
			row[8] = a.TotalAmount
		}
		if err := setRow(f, sheetDays, i+2, row); err != nil {
			return err
		}
	}

	summary := [][]interface{}{
		{"Year", cal.Year},
		{"Month", cal.Month},
		{"Working days", cal.TotalWorkingDays},
		{"Present days", cal.TotalPresentDays},
		{"Attendance rate (%)", cal.AttendanceRate},
		{"Days worked", rep.TotalDays},
		{"Total hours", rep.TotalHours},
		{"Total amount", rep.TotalAmount},
		{"Average daily hours", rep.AverageDailyHours},
	}
	if cal.HolidaysDegraded {
		summary = append(summary, []interface{}{"Note", "holiday calendar unavailable"})
	}
	for i, row := range summary {
		if err := setRow(f, sheetSummary, i+1, row); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sheetSummary, "A1", fmt.Sprintf("A%d", len(summary)), headerStyle); err != nil {
		return err
	}
	return f.SetColWidth(sheetSummary, "A", "A", 22)
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}
