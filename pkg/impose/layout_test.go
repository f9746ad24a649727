package impose

import (
	"math"
	"testing"

	"github.com/matzehuels/zinefold/pkg/errors"
	"github.com/matzehuels/zinefold/pkg/units"
)

func letterInput(columns, pageW, pageH int) LayoutInput {
	return LayoutInput{
		PaperWidth:   8.5,
		PaperHeight:  11,
		Columns:      columns,
		PageWidthPx:  pageW,
		PageHeightPx: pageH,
		Unit:         units.Inch,
	}
}

func TestComputeLayout(t *testing.T) {
	tests := []struct {
		name     string
		in       LayoutInput
		wantRows int
		wantPPU  float64
	}{
		{"one column letter", letterInput(1, 1700, 1100), 2, 200},
		{"two columns letter", letterInput(2, 1700, 1100), 4, 400},
		{"exact fit", LayoutInput{PaperWidth: 8, PaperHeight: 10, Columns: 1, PageWidthPx: 800, PageHeightPx: 500}, 2, 100},
		{"tall pages", letterInput(1, 1700, 2000), 1, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := ComputeLayout(tt.in)
			if err != nil {
				t.Fatalf("ComputeLayout() error = %v", err)
			}
			if l.Rows != tt.wantRows {
				t.Errorf("Rows = %d, want %d", l.Rows, tt.wantRows)
			}
			if l.Columns != tt.in.Columns {
				t.Errorf("Columns = %d, want %d", l.Columns, tt.in.Columns)
			}
			if math.Abs(l.PixelsPerUnit-tt.wantPPU) > 1e-9 {
				t.Errorf("PixelsPerUnit = %v, want %v", l.PixelsPerUnit, tt.wantPPU)
			}
		})
	}
}

func TestComputeLayoutPixels(t *testing.T) {
	in := LayoutInput{
		PaperWidth:   8.5,
		PaperHeight:  11,
		MarginLeft:   0.25,
		MarginRight:  0.25,
		MarginTop:    0.5,
		MarginBottom: 0.5,
		Gutter:       0.125,
		OffsetX:      0.1,
		OffsetY:      -0.2,
		Columns:      1,
		PageWidthPx:  1600,
		PageHeightPx: 1000,
		Unit:         units.Inch,
	}

	l, err := ComputeLayout(in)
	if err != nil {
		t.Fatalf("ComputeLayout() error = %v", err)
	}

	// 1600px over 8 printable inches.
	const ppu = 200.0
	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"PixelsPerUnit", l.PixelsPerUnit, ppu},
		{"PaperWidthPx", l.PaperWidthPx, 8.5 * ppu},
		{"PaperHeightPx", l.PaperHeightPx, 11 * ppu},
		{"Margins.Left", l.Margins.Left, 0.25 * ppu},
		{"Margins.Right", l.Margins.Right, 0.25 * ppu},
		{"Margins.Top", l.Margins.Top, 0.5 * ppu},
		{"Margins.Bottom", l.Margins.Bottom, 0.5 * ppu},
		{"GutterPx", l.GutterPx, 0.125 * ppu},
		{"OffsetXPx", l.OffsetXPx, 0.1 * ppu},
		{"OffsetYPx", l.OffsetYPx, -0.2 * ppu},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > 1e-9 {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}

	// 10 printable inches * 200 = 2000px => two 1000px rows.
	if l.Rows != 2 {
		t.Errorf("Rows = %d, want 2", l.Rows)
	}
	if l.ColumnWidthPx != 1600 || l.PageHeightPx != 1000 {
		t.Errorf("page size = %dx%d, want 1600x1000", l.ColumnWidthPx, l.PageHeightPx)
	}
	if l.SlotsPerRow() != 2 || l.SlotsPerSide() != 4 || l.PagesPerSheet() != 8 {
		t.Errorf("capacity = %d/%d/%d, want 2/4/8", l.SlotsPerRow(), l.SlotsPerSide(), l.PagesPerSheet())
	}
}

func TestComputeLayoutInfeasible(t *testing.T) {
	tests := []struct {
		name string
		in   LayoutInput
	}{
		{"no row fits", letterInput(1, 100, 5000)},
		{"zero columns", letterInput(0, 1700, 1100)},
		{"negative columns", letterInput(-2, 1700, 1100)},
		{"zero page width", letterInput(1, 0, 1100)},
		{"zero page height", letterInput(1, 1700, 0)},
		{"margins eat width", LayoutInput{PaperWidth: 8.5, PaperHeight: 11, MarginLeft: 5, MarginRight: 4, Columns: 1, PageWidthPx: 100, PageHeightPx: 100}},
		{"margins eat height", LayoutInput{PaperWidth: 8.5, PaperHeight: 11, MarginTop: 6, MarginBottom: 5, Columns: 1, PageWidthPx: 100, PageHeightPx: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeLayout(tt.in)
			if err == nil {
				t.Fatal("ComputeLayout() error = nil, want INFEASIBLE_LAYOUT")
			}
			if !errors.Is(err, errors.ErrCodeInfeasibleLayout) {
				t.Errorf("ComputeLayout() code = %v, want %v", errors.GetCode(err), errors.ErrCodeInfeasibleLayout)
			}
		})
	}
}

func TestComputeLayoutDeterministic(t *testing.T) {
	in := LayoutInput{
		PaperWidth: 21, PaperHeight: 29.7, MarginLeft: 1.1, MarginRight: 0.7,
		MarginTop: 1.3, MarginBottom: 0.9, Gutter: 0.3, OffsetX: 0.13, OffsetY: 0.07,
		Columns: 3, PageWidthPx: 1237, PageHeightPx: 811, Unit: units.Centimeter,
	}

	first, err := ComputeLayout(in)
	if err != nil {
		t.Fatalf("ComputeLayout() error = %v", err)
	}
	for i := 0; i < 100; i++ {
		again, err := ComputeLayout(in)
		if err != nil {
			t.Fatalf("ComputeLayout() error = %v", err)
		}
		if again != first {
			t.Fatalf("ComputeLayout() run %d = %+v, want %+v", i, again, first)
		}
	}
}

func TestComputeLayoutRowsIsFloor(t *testing.T) {
	for columns := 1; columns <= 4; columns++ {
		for _, pageW := range []int{640, 1200, 2550, 3300} {
			for _, pageH := range []int{300, 700, 1650, 2200} {
				in := letterInput(columns, pageW, pageH)
				in.MarginTop, in.MarginBottom = 0.3, 0.4
				l, err := ComputeLayout(in)
				if errors.Is(err, errors.ErrCodeInfeasibleLayout) {
					continue
				}
				if err != nil {
					t.Fatalf("ComputeLayout(%+v) error = %v", in, err)
				}
				budget := (in.PaperHeight - in.MarginTop - in.MarginBottom) * l.PixelsPerUnit
				used := float64(l.Rows * pageH)
				if used > budget+1e-6 {
					t.Errorf("cols=%d %dx%d: rows %d use %.1fpx of %.1fpx", columns, pageW, pageH, l.Rows, used, budget)
				}
				if used+float64(pageH) <= budget-1e-6 {
					t.Errorf("cols=%d %dx%d: another row fits (%d rows, %.1fpx of %.1fpx)", columns, pageW, pageH, l.Rows, used, budget)
				}
			}
		}
	}
}

func TestLayoutDefaultsUnit(t *testing.T) {
	in := letterInput(1, 1700, 1100)
	in.Unit = ""
	l, err := ComputeLayout(in)
	if err != nil {
		t.Fatalf("ComputeLayout() error = %v", err)
	}
	if l.Unit != units.Inch {
		t.Errorf("Unit = %q, want %q", l.Unit, units.Inch)
	}
	if l.DPI() != 200 {
		t.Errorf("DPI() = %v, want 200", l.DPI())
	}
}
