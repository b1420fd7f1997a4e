package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/moyuu-az/attendance-system/internal/domain/report"
	"github.com/moyuu-az/attendance-system/internal/handler/http/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportHandler interface {
	MonthlyCalendar(w http.ResponseWriter, r *http.Request)
	MonthlyReport(w http.ResponseWriter, r *http.Request)
	ExportMonthly(w http.ResponseWriter, r *http.Request)
	YearlyReport(w http.ResponseWriter, r *http.Request)
}

type reportHandlerImpl struct {
	reportService report.ReportService
}

func NewReportHandler(reportService report.ReportService) ReportHandler {
	return &reportHandlerImpl{
		reportService: reportService,
	}
}

// monthlyRequest reads user_id, year and month from the query string.
func monthlyRequest(r *http.Request) (report.MonthlyRequest, error) {
	userID, err := subjectOf(r, r.URL.Query().Get("user_id"))
	if err != nil {
		return report.MonthlyRequest{}, err
	}
	year, err := getIntQueryParam(r, "year")
	if err != nil {
		return report.MonthlyRequest{}, errBadQuery{err}
	}
	month, err := getIntQueryParam(r, "month")
	if err != nil {
		return report.MonthlyRequest{}, errBadQuery{err}
	}
	return report.MonthlyRequest{UserID: userID, Year: intOrZero(year), Month: intOrZero(month)}, nil
}

// errBadQuery marks a malformed query parameter.
type errBadQuery struct{ err error }

func (e errBadQuery) Error() string { return e.err.Error() }

func writeRequestError(w http.ResponseWriter, err error) {
	if bad, ok := err.(errBadQuery); ok {
		response.BadRequest(w, bad.Error())
		return
	}
	response.HandleError(w, err)
}

// MonthlyCalendar handles GET /attendance/calendar
func (h *reportHandlerImpl) MonthlyCalendar(w http.ResponseWriter, r *http.Request) {
	req, err := monthlyRequest(r)
	if err != nil {
		writeRequestError(w, err)
		return
	}

	result, err := h.reportService.MonthlyCalendar(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// MonthlyReport handles GET /reports/monthly
func (h *reportHandlerImpl) MonthlyReport(w http.ResponseWriter, r *http.Request) {
	req, err := monthlyRequest(r)
	if err != nil {
		writeRequestError(w, err)
		return
	}

	result, err := h.reportService.MonthlyReport(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ExportMonthly handles GET /reports/monthly/export
func (h *reportHandlerImpl) ExportMonthly(w http.ResponseWriter, r *http.Request) {
	req, err := monthlyRequest(r)
	if err != nil {
		writeRequestError(w, err)
		return
	}

	buf, filename, err := h.reportService.ExportMonthly(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// YearlyReport handles GET /reports/yearly
func (h *reportHandlerImpl) YearlyReport(w http.ResponseWriter, r *http.Request) {
	userID, err := subjectOf(r, r.URL.Query().Get("user_id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	year, err := getIntQueryParam(r, "year")
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	result, err := h.reportService.YearlyReport(r.Context(), report.YearlyRequest{UserID: userID, Year: intOrZero(year)})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
