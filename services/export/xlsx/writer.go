// Package xlsx writes report workbooks as Office Open XML spreadsheets.
package xlsx

import (
	"io"
	"strconv"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/apsas/core/report"
)

const (
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	defaultSheet = "Sheet1"
	// builtin number format "0.00"
	twoDecimals = 2
	minColWidth = 12
	maxColWidth = 60
)

type Writer struct{}

var _ report.Writer = Writer{}

func NewWriter() Writer {
	return Writer{}
}

func (Writer) ContentType() string {
	return ContentType
}

// Write writes every table of wb on its own sheet, headers first.
// A table without rows gives a sheet holding only its headers.
func (Writer) Write(w io.Writer, wb *report.Workbook) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.Wrap(err, "creating header style")
	}
	percent, err := f.NewStyle(&excelize.Style{NumFmt: twoDecimals})
	if err != nil {
		return errors.Wrap(err, "creating percent style")
	}

	for i, tbl := range wb.Tables {
		if i == 0 {
			err = f.SetSheetName(defaultSheet, tbl.Name)
		} else {
			_, err = f.NewSheet(tbl.Name)
		}
		if err != nil {
			return errors.Wrapf(err, "creating sheet %q", tbl.Name)
		}
		if err = writeTable(f, tbl, header, percent); err != nil {
			return errors.Wrapf(err, "writing sheet %q", tbl.Name)
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "writing workbook")
	}
	return nil
}

func writeTable(f *excelize.File, tbl *report.Table, headerStyle, percentStyle int) error {
	sheet := tbl.Name
	if len(tbl.Columns) == 0 {
		return nil
	}

	headers := make([]interface{}, 0, len(tbl.Columns))
	for _, h := range tbl.Headers() {
		headers = append(headers, h)
	}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(tbl.Columns), 1)
	if err != nil {
		return err
	}
	if err = f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}

	for i, row := range tbl.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := row
		if err = f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	for c, col := range tbl.Columns {
		name, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		if err = f.SetColWidth(sheet, name, name, colWidth(tbl, c)); err != nil {
			return err
		}
		if col.Kind == report.Percent && len(tbl.Rows) > 0 {
			if err = f.SetCellStyle(sheet, name+"2", name+strconv.Itoa(len(tbl.Rows)+1), percentStyle); err != nil {
				return err
			}
		}
	}
	return nil
}

// colWidth fits the widest header or text value of column c, within bounds.
func colWidth(tbl *report.Table, c int) float64 {
	width := len(tbl.Columns[c].Header)
	for _, row := range tbl.Rows {
		if s, ok := row[c].(string); ok && len(s) > width {
			width = len(s)
		}
	}
	width += 2
	switch {
	case width < minColWidth:
		return minColWidth
	case width > maxColWidth:
		return maxColWidth
	}
	return float64(width)
}
