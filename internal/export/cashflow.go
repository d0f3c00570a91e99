// Package export renders reports as downloadable files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"socioai/internal/service"
)

const (
	// XLSXContentType is the media type of WriteCashFlowXLSX output.
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	// CSVContentType is the media type of WriteCashFlowCSV output.
	CSVContentType = "text/csv; charset=utf-8"

	cashFlowSheet = "Cash flow"
)

var cashFlowHeaders = []string{"Period", "Total income", "Total expense", "Net balance"}

// WriteCashFlowXLSX writes the monthly summaries as a single-sheet workbook.
func WriteCashFlowXLSX(w io.Writer, rows []service.PeriodSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(cashFlowSheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	for i, h := range cashFlowHeaders {
		if err := f.SetCellValue(cashFlowSheet, fmt.Sprintf("%c1", 'A'+i), h); err != nil {
			return err
		}
	}

	// Amounts go in as their exact decimal text so no float rounding reaches the file.
	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return fmt.Errorf("create amount style: %w", err)
	}
	for idx, r := range rows {
		row := idx + 2
		if err := f.SetCellValue(cashFlowSheet, fmt.Sprintf("A%d", row), r.Period); err != nil {
			return err
		}
		amounts := []string{
			r.TotalIncome.StringFixed(2),
			r.TotalExpense.StringFixed(2),
			r.NetBalance.StringFixed(2),
		}
		for col, v := range amounts {
			if err := f.SetCellDefault(cashFlowSheet, fmt.Sprintf("%c%d", 'B'+col, row), v); err != nil {
				return err
			}
		}
	}
	if len(rows) > 0 {
		if err := f.SetCellStyle(cashFlowSheet, "B2", fmt.Sprintf("D%d", len(rows)+1), amountStyle); err != nil {
			return fmt.Errorf("style amounts: %w", err)
		}
	}

	if err := f.SetColWidth(cashFlowSheet, "A", "A", 10); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetColWidth(cashFlowSheet, "B", "D", 15); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteCashFlowCSV writes the monthly summaries as CSV with fixed two-decimal amounts.
func WriteCashFlowCSV(w io.Writer, rows []service.PeriodSummary) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(cashFlowHeaders); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.Period,
			r.TotalIncome.StringFixed(2),
			r.TotalExpense.StringFixed(2),
			r.NetBalance.StringFixed(2),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
