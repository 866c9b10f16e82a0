package report

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"
)

func staticSection(name string, rows ...[]interface{}) Section {
	return Section{Name: name, Build: func(context.Context) (*Table, error) {
		tbl := NewTable(name, TextCol("Name"), NumberCol("Count"))
		for _, r := range rows {
			tbl.AddRow(r...)
		}
		return tbl, nil
	}}
}

func failingSection(name string) Section {
	return Section{Name: name, Build: func(context.Context) (*Table, error) {
		return nil, errors.New("upstream down")
	}}
}

func TestBuild(t *testing.T) {
	ctx := context.Background()

	t.Run("empty section still has its sheet", func(t *testing.T) {
		wb, err := Build(ctx, "Overview",
			staticSection("Overview", []interface{}{"classes", 3}),
			staticSection("Top Students"),
		)
		require.NoError(t, err)
		require.Len(t, wb.Tables, 2)
		assert.Equal(t, "Top Students", wb.Tables[1].Name)
		assert.Empty(t, wb.Tables[1].Rows)
		assert.Equal(t, []string{"Name", "Count"}, wb.Tables[1].Headers())
	})

	t.Run("failing section is skipped", func(t *testing.T) {
		wb, err := Build(ctx, "Overview",
			failingSection("By Class"),
			staticSection("Overview", []interface{}{"classes", 3}),
		)
		require.NoError(t, err)
		require.Len(t, wb.Tables, 1)
		require.Len(t, wb.Failures, 1)
		assert.Equal(t, "By Class", wb.Failures[0].Section)
		assert.Equal(t, "By Class: upstream down", wb.Failures[0].Error())
	})

	t.Run("panicking section is skipped", func(t *testing.T) {
		boom := Section{Name: "Boom", Build: func(context.Context) (*Table, error) { panic("boom") }}
		wb, err := Build(ctx, "Overview", boom, staticSection("Overview", []interface{}{"a", 1}))
		require.NoError(t, err)
		assert.Len(t, wb.Tables, 1)
		assert.Len(t, wb.Failures, 1)
	})

	t.Run("no rows at all", func(t *testing.T) {
		wb, err := Build(ctx, "Overview", staticSection("Overview"), staticSection("By Class"))
		assert.Nil(t, wb)
		assert.Equal(t, ErrNoData, err)
	})

	t.Run("every section failed", func(t *testing.T) {
		wb, err := Build(ctx, "Overview", failingSection("Overview"))
		assert.Nil(t, wb)
		assert.True(t, errors.Is(err, ErrNoData))
	})

	t.Run("no sections", func(t *testing.T) {
		_, err := Build(ctx, "Overview")
		assert.Equal(t, ErrNoData, err)
	})

	t.Run("cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := Build(cctx, "Overview", staticSection("Overview", []interface{}{"a", 1}))
		assert.Equal(t, context.Canceled, err)
	})

	t.Run("duplicate sheet names", func(t *testing.T) {
		wb, err := Build(ctx, "Classes",
			staticSection("Classes", []interface{}{"a", 1}),
			staticSection("classes"),
			staticSection("Classes"),
		)
		require.NoError(t, err)
		assert.Equal(t, "Classes", wb.Tables[0].Name)
		assert.Equal(t, "classes (2)", wb.Tables[1].Name)
		assert.Equal(t, "Classes (3)", wb.Tables[2].Name)
	})
}

func TestTable_AddRow(t *testing.T) {
	at := time.Date(2024, 3, 9, 23, 30, 0, 0, time.UTC)
	tbl := NewTable("Rows", TextCol("Name"), NumberCol("Count"), DateCol("Created"), PercentCol("Rate"))

	tbl.AddRow("SE1801", 30, at, 33.33333)
	tbl.AddRow("SE1802", null.Int{}, null.TimeFrom(at), 12.346)
	tbl.AddRow("SE1803")
	tbl.AddRow("SE1804", int64(2), time.Time{}, 50, "dropped")

	assert.Equal(t, [][]interface{}{
		{"SE1801", 30.0, "2024-03-09", 33.33},
		{"SE1802", nil, "2024-03-09", 12.35},
		{"SE1803", nil, nil, nil},
		{"SE1804", 2.0, nil, 50.0},
	}, tbl.Rows)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "12", Normalize(Text, 12))
	assert.Equal(t, "n/a", Normalize(Number, "n/a"))
	assert.Equal(t, 0.0, Normalize(Percent, 0))
	assert.Nil(t, Normalize(Text, null.String{}))
	assert.Equal(t, "x", Normalize(Text, null.StringFrom("x")))
}

func TestSheetName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{name: "Overview", want: "Overview"},
		{name: "By Class: SE/AI?", want: "By Class SE AI"},
		{name: "[2024] *draft*", want: "(2024) draft"},
		{name: `a\b`, want: "a b"},
		{name: "", want: "Sheet"},
		{name: "'quoted'", want: "quoted"},
		{name: strings.Repeat("x", 40), want: strings.Repeat("x", 31)},
		{name: strings.Repeat("é", 40), want: strings.Repeat("é", 31)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SheetName(tt.name))
		})
	}
}

func TestSheetNamer_longNames(t *testing.T) {
	n := newSheetNamer()
	long := strings.Repeat("x", 40)
	assert.Equal(t, strings.Repeat("x", 31), n.next(long))
	assert.Equal(t, strings.Repeat("x", 27)+" (2)", n.next(long))
}

func TestFilename(t *testing.T) {
	at := time.Date(2024, 11, 5, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, "Overview_2024-11-05.xlsx", Filename("Overview", at))
	assert.Equal(t, "Classes_2024-11-05.xlsx", (&Workbook{Name: "Classes"}).Filename(at))
}
