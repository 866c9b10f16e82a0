// Package report models exportable workbooks: named tables of uniform rows,
// built section by section.
package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/apsas/core"
)

// ErrNoData is returned when a workbook would not hold a single row.
var ErrNoData = errors.New("no data available to export")

type Kind int

const (
	Text Kind = iota
	Number
	Date
	Percent
)

type Column struct {
	Header string
	Kind   Kind
}

func TextCol(header string) Column    { return Column{Header: header, Kind: Text} }
func NumberCol(header string) Column  { return Column{Header: header, Kind: Number} }
func DateCol(header string) Column    { return Column{Header: header, Kind: Date} }
func PercentCol(header string) Column { return Column{Header: header, Kind: Percent} }

// Table is one sheet of a workbook. Every row holds one value per column.
type Table struct {
	Name    string
	Columns []Column
	Rows    [][]interface{}
}

func NewTable(name string, cols ...Column) *Table {
	return &Table{Name: name, Columns: cols}
}

// AddRow appends a row, normalising every value for its column kind.
// Missing trailing values are left blank and extra values are dropped.
func (t *Table) AddRow(values ...interface{}) {
	row := make([]interface{}, len(t.Columns))
	for i, col := range t.Columns {
		if i < len(values) {
			row[i] = Normalize(col.Kind, values[i])
		}
	}
	t.Rows = append(t.Rows, row)
}

func (t *Table) Headers() []string {
	headers := make([]string, 0, len(t.Columns))
	for _, col := range t.Columns {
		headers = append(headers, col.Header)
	}
	return headers
}

// Section builds one table of a workbook.
type Section struct {
	Name  string
	Build func(ctx context.Context) (*Table, error)
}

type Failure struct {
	Section string
	Err     error
}

func (f Failure) Error() string {
	return f.Section + ": " + f.Err.Error()
}

type Workbook struct {
	Name     string
	Tables   []*Table
	Failures []Failure
}

func (wb *Workbook) Rows() int {
	var n int
	for _, t := range wb.Tables {
		n += len(t.Rows)
	}
	return n
}

// Filename is "{name}_{YYYY-MM-DD}.xlsx".
func (wb *Workbook) Filename(at time.Time) string {
	return Filename(wb.Name, at)
}

func Filename(name string, at time.Time) string {
	return fmt.Sprintf("%s_%s.xlsx", name, at.Format(core.DateLayout))
}

// Writer serialises workbooks into a file format.
type Writer interface {
	Write(w io.Writer, wb *Workbook) error
	ContentType() string
}

// Build runs every section independently. A failing section is recorded in the
// workbook failures and left out. Tables are named after their section, with
// sheet names sanitised and made unique.
// ErrNoData is returned, with no workbook, when the sections produced no row at all.
func Build(ctx context.Context, name string, sections ...Section) (*Workbook, error) {
	wb := &Workbook{Name: name}
	names := newSheetNamer()

	for _, sec := range sections {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tbl, err := buildSection(ctx, sec)
		if err != nil {
			wb.Failures = append(wb.Failures, Failure{Section: sec.Name, Err: err})
			continue
		}
		if sec.Name != "" {
			tbl.Name = sec.Name
		}
		tbl.Name = names.next(tbl.Name)
		wb.Tables = append(wb.Tables, tbl)
	}

	if wb.Rows() == 0 {
		if len(wb.Failures) > 0 {
			return nil, errors.Wrap(ErrNoData, wb.Failures[0].Error())
		}
		return nil, ErrNoData
	}
	return wb, nil
}

func buildSection(ctx context.Context, sec Section) (tbl *Table, err error) {
	defer func() {
		if r := recover(); r != nil {
			tbl, err = nil, errors.Errorf("panic: %v", r)
		}
	}()
	if sec.Build == nil {
		return nil, errors.New("section has no builder")
	}
	tbl, err = sec.Build(ctx)
	if err == nil && tbl == nil {
		err = errors.New("section built no table")
	}
	return tbl, err
}
