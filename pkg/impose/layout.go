package impose

import (
	"fmt"
	"math"

	"github.com/matzehuels/zinefold/pkg/errors"
	"github.com/matzehuels/zinefold/pkg/units"
)

// rowEpsilon absorbs floating point noise when flooring the row count, so
// that a height that fits exactly is not rounded down by one.
const rowEpsilon = 1e-9

// LayoutInput holds the physical paper description and the scanned page size.
// Physical lengths are in Unit; pixel sizes come from the measured scans.
type LayoutInput struct {
	PaperWidth   float64
	PaperHeight  float64
	MarginLeft   float64
	MarginRight  float64
	MarginTop    float64
	MarginBottom float64
	Gutter       float64
	OffsetX      float64
	OffsetY      float64

	// Columns is the number of folding pairs per row.
	Columns int

	// PageWidthPx is the pixel width of one grid column. A column holds a
	// facing pair, so for scanned spreads this is the spread width.
	PageWidthPx int

	// PageHeightPx is the pixel height of one page.
	PageHeightPx int

	Unit units.Unit
}

// Margins holds per-edge lengths in pixels.
type Margins struct {
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// Layout is the grid shape and every physical length converted to pixels.
// It is computed once per run and treated as immutable.
type Layout struct {
	Columns int `json:"columns"`
	Rows    int `json:"rows"`

	PixelsPerUnit float64    `json:"pixels_per_unit"`
	Unit          units.Unit `json:"unit"`

	PaperWidthPx  float64 `json:"paper_width_px"`
	PaperHeightPx float64 `json:"paper_height_px"`
	Margins       Margins `json:"margins"`
	GutterPx      float64 `json:"gutter_px"`
	OffsetXPx     float64 `json:"offset_x_px"`
	OffsetYPx     float64 `json:"offset_y_px"`

	ColumnWidthPx int `json:"column_width_px"`
	PageHeightPx  int `json:"page_height_px"`
}

// SlotsPerRow returns the number of page slots in one grid row.
func (l Layout) SlotsPerRow() int { return 2 * l.Columns }

// SlotsPerSide returns the number of page slots on one sheet side.
func (l Layout) SlotsPerSide() int { return l.Rows * l.SlotsPerRow() }

// PagesPerSheet returns how many pages one sheet (front and back) can hold.
func (l Layout) PagesPerSheet() int { return 2 * l.SlotsPerSide() }

// Valid reports whether the grid has positive dimensions.
func (l Layout) Valid() bool { return l.Columns >= 1 && l.Rows >= 1 }

// DPI returns the print resolution implied by the layout scale.
func (l Layout) DPI() float64 { return units.DPI(l.PixelsPerUnit, l.Unit) }

// String summarizes the grid for logs.
func (l Layout) String() string {
	return fmt.Sprintf("%dx%d grid @ %.1f px/%s", l.Columns, l.Rows, l.PixelsPerUnit, l.Unit)
}

// ComputeLayout derives the grid layout for the given paper and page size.
//
// The scale is chosen so that Columns column widths exactly span the
// printable width; Rows is the largest count of page heights that fit the
// printable height at that scale. It fails with INFEASIBLE_LAYOUT when not
// even one row fits, or when the inputs leave no printable area.
func ComputeLayout(in LayoutInput) (Layout, error) {
	if in.Columns < 1 {
		return Layout{}, errors.New(errors.ErrCodeInfeasibleLayout, "columns must be at least 1, got %d", in.Columns)
	}
	if in.PageWidthPx <= 0 || in.PageHeightPx <= 0 {
		return Layout{}, errors.New(errors.ErrCodeInfeasibleLayout, "page size must be positive, got %dx%d px", in.PageWidthPx, in.PageHeightPx)
	}

	availableWidth := in.PaperWidth - in.MarginLeft - in.MarginRight
	availableHeight := in.PaperHeight - in.MarginTop - in.MarginBottom
	if availableWidth <= 0 || availableHeight <= 0 {
		return Layout{}, errors.New(errors.ErrCodeInfeasibleLayout,
			"margins leave no printable area (%.3g x %.3g %s)", availableWidth, availableHeight, unitOrDefault(in.Unit))
	}

	ppu := units.PixelsPerUnit(float64(in.Columns*in.PageWidthPx), availableWidth)
	rows := int(math.Floor(availableHeight*ppu/float64(in.PageHeightPx) + rowEpsilon))
	if rows < 1 {
		return Layout{}, errors.New(errors.ErrCodeInfeasibleLayout,
			"%d column(s) of %dpx pages leave no room for a %dpx row (printable height %.3g %s = %.0f px)",
			in.Columns, in.PageWidthPx, in.PageHeightPx, availableHeight, unitOrDefault(in.Unit), availableHeight*ppu)
	}

	return Layout{
		Columns:       in.Columns,
		Rows:          rows,
		PixelsPerUnit: ppu,
		Unit:          unitOrDefault(in.Unit),
		PaperWidthPx:  units.ToPixels(in.PaperWidth, ppu),
		PaperHeightPx: units.ToPixels(in.PaperHeight, ppu),
		Margins: Margins{
			Left:   units.ToPixels(in.MarginLeft, ppu),
			Right:  units.ToPixels(in.MarginRight, ppu),
			Top:    units.ToPixels(in.MarginTop, ppu),
			Bottom: units.ToPixels(in.MarginBottom, ppu),
		},
		GutterPx:      units.ToPixels(in.Gutter, ppu),
		OffsetXPx:     units.ToPixels(in.OffsetX, ppu),
		OffsetYPx:     units.ToPixels(in.OffsetY, ppu),
		ColumnWidthPx: in.PageWidthPx,
		PageHeightPx:  in.PageHeightPx,
	}, nil
}

func unitOrDefault(u units.Unit) units.Unit {
	if u == "" {
		return units.DefaultUnit
	}
	return u
}
