package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"socioai/internal/export"
	"socioai/internal/service"
)

// ReportHandler serves cash-flow reports.
type ReportHandler struct {
	reports service.ReportService
}

// NewReportHandler creates a new report handler.
func NewReportHandler(reports service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

func dateRange(c echo.Context) (service.DateRange, error) {
	from, err := parseDate("from", c.QueryParam("from"))
	if err != nil {
		return service.DateRange{}, err
	}
	to, err := parseDate("to", c.QueryParam("to"))
	if err != nil {
		return service.DateRange{}, err
	}
	return service.DateRange{From: from, To: to}, nil
}

// CashFlowGlobal godoc
// @Summary Monthly cash flow of every user
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Success 200 {array} service.PeriodSummary
// @Failure 403 {object} errors.ErrorResponse
// @Router /reports/cash-flow [get]
func (h *ReportHandler) CashFlowGlobal(c echo.Context) error {
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}
	rows, err := h.reports.CashFlowGlobal(c.Request().Context(), actor)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, rows)
}

// CashFlow godoc
// @Summary Monthly cash flow of a user
// @Description Most recent month first. Expense totals are positive magnitudes.
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param username path string true "Username (email)"
// @Param from query string false "First day, YYYY-MM-DD"
// @Param to query string false "Last day, YYYY-MM-DD"
// @Success 200 {array} service.PeriodSummary
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /reports/cash-flow/{username} [get]
func (h *ReportHandler) CashFlow(c echo.Context) error {
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}
	rng, err := dateRange(c)
	if err != nil {
		return err
	}
	rows, err := h.reports.CashFlow(c.Request().Context(), actor, c.Param("username"), rng)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, rows)
}

// ExportCashFlow godoc
// @Summary Download the monthly cash flow of a user
// @Tags reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce text/csv
// @Security BearerAuth
// @Param username path string true "Username (email)"
// @Param from query string false "First day, YYYY-MM-DD"
// @Param to query string false "Last day, YYYY-MM-DD"
// @Param format query string false "xlsx (default) or csv"
// @Success 200 {file} file
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /reports/cash-flow/{username}/export [get]
func (h *ReportHandler) ExportCashFlow(c echo.Context) error {
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}
	rng, err := dateRange(c)
	if err != nil {
		return err
	}
	format := strings.ToLower(c.QueryParam("format"))
	if format == "" {
		format = "xlsx"
	}
	if format != "xlsx" && format != "csv" {
		return badRequest("VALIDATION_ERROR", "format must be xlsx or csv")
	}

	rows, err := h.reports.CashFlow(c.Request().Context(), actor, c.Param("username"), rng)
	if err != nil {
		return fail(err)
	}

	var buf bytes.Buffer
	contentType := export.XLSXContentType
	if format == "csv" {
		contentType = export.CSVContentType
		err = export.WriteCashFlowCSV(&buf, rows)
	} else {
		err = export.WriteCashFlowXLSX(&buf, rows)
	}
	if err != nil {
		return fail(err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=\"cash_flow_%s.%s\"", time.Now().Format("20060102"), format))
	return c.Blob(http.StatusOK, contentType, buf.Bytes())
}
