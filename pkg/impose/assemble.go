package impose

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/matzehuels/zinefold/pkg/errors"
)

// DefaultExtension is the raster format written for each sheet side.
const DefaultExtension = "png"

// Gravity is the horizontal alignment of rows on a side.
type Gravity string

const (
	GravityWest Gravity = "west"
	GravityEast Gravity = "east"
)

// Size is a pixel extent.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// String formats the size as WxH.
func (s Size) String() string { return fmt.Sprintf("%dx%d", s.Width, s.Height) }

// Padding is the whole-pixel border spliced around the page grid.
type Padding struct {
	Left   int `json:"left"`
	Right  int `json:"right"`
	Top    int `json:"top"`
	Bottom int `json:"bottom"`
}

// PageCrop tells the compositor which region of which file forms a page.
type PageCrop struct {
	Index  int    `json:"index"`
	Path   string `json:"path"`
	Region Region `json:"region"`
}

// Cell is one grid cell of a render request; a nil Crop is filler.
type Cell struct {
	Crop *PageCrop `json:"crop,omitempty"`
}

// Filler reports whether the cell renders as blank space.
func (c Cell) Filler() bool { return c.Crop == nil }

// SheetRenderRequest describes how to composite one sheet side.
//
// The compositor crops every cell, appends each row horizontally, stacks the
// rows vertically aligned by Gravity, splices Padding around the result and
// writes Output. Filler cells are blank CellSize rectangles.
type SheetRenderRequest struct {
	Sheet    int      `json:"sheet"` // 1-based
	Side     Side     `json:"side"`
	Output   string   `json:"output"`
	Canvas   Size     `json:"canvas"`
	CellSize Size     `json:"cell_size"`
	Rows     [][]Cell `json:"rows"`
	Padding  Padding  `json:"padding"`
	Gravity  Gravity  `json:"gravity"`
}

// Name returns a label such as "sheet 2 back" for logs and errors.
func (r SheetRenderRequest) Name() string {
	return fmt.Sprintf("sheet %d %s", r.Sheet, r.Side)
}

// Crops returns the non-filler cells in row-major order.
func (r SheetRenderRequest) Crops() []PageCrop {
	var out []PageCrop
	for _, row := range r.Rows {
		for _, c := range row {
			if !c.Filler() {
				out = append(out, *c.Crop)
			}
		}
	}
	return out
}

// AssembleOptions controls output naming.
type AssembleOptions struct {
	// OutputDir is joined in front of every output file name.
	OutputDir string
	// Extension selects the raster format (default png).
	Extension string
}

// OutputName returns the deterministic file name for one sheet side,
// e.g. "sheet-001-front.png". sheet is 1-based.
func OutputName(sheet int, side Side, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		ext = DefaultExtension
	}
	return fmt.Sprintf("sheet-%03d-%s.%s", sheet, side, strings.ToLower(ext))
}

// AssembleRenderCommands turns a plan into one render request per sheet
// side, front before back, sheet by sheet. It performs no I/O; running it
// twice on the same plan yields identical requests.
func AssembleRenderCommands(plan Plan, opts AssembleOptions) ([]SheetRenderRequest, error) {
	if len(plan.Sheets) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyInput, "plan has no sheets")
	}
	if !plan.Layout.Valid() {
		return nil, errors.New(errors.ErrCodeLayoutMismatch, "layout grid must be at least 1x1, got %dx%d", plan.Layout.Columns, plan.Layout.Rows)
	}

	l := plan.Layout
	w, h := maxPageSize(plan.Pages)
	cell := Size{Width: w, Height: h}
	canvas := Size{Width: roundPx(l.PaperWidthPx), Height: roundPx(l.PaperHeightPx)}

	out := make([]SheetRenderRequest, 0, 2*len(plan.Sheets))
	for _, side := range plan.Sides() {
		sheet := side.Sheet + 1
		out = append(out, SheetRenderRequest{
			Sheet:    sheet,
			Side:     side.Side,
			Output:   filepath.Join(opts.OutputDir, OutputName(sheet, side.Side, opts.Extension)),
			Canvas:   canvas,
			CellSize: cell,
			Rows:     cells(side),
			Padding:  SidePadding(l, side.Side),
			Gravity:  sideGravity(side.Side),
		})
	}
	return out, nil
}

// SidePadding computes the border around the page grid of one side.
//
// The gutter pushes the grid towards the binding edge, which swaps sides
// between front and back; the offsets shift both faces the same way on the
// paper. Values are rounded to whole pixels and never negative.
func SidePadding(l Layout, side Side) Padding {
	sign := 1.0
	if side == Back {
		sign = -1
	}
	return Padding{
		Left:   clampPx(l.Margins.Left + l.OffsetXPx + sign*l.GutterPx),
		Right:  clampPx(l.Margins.Right - l.OffsetXPx - sign*l.GutterPx),
		Top:    clampPx(l.Margins.Top + l.OffsetYPx),
		Bottom: clampPx(l.Margins.Bottom - l.OffsetYPx),
	}
}

func sideGravity(s Side) Gravity {
	if s == Back {
		return GravityEast
	}
	return GravityWest
}

func cells(side SheetSide) [][]Cell {
	rows := make([][]Cell, len(side.Slots))
	for r, slots := range side.Slots {
		rows[r] = make([]Cell, len(slots))
		for c, slot := range slots {
			if slot.Filler() {
				continue
			}
			p := slot.Page
			rows[r][c] = Cell{Crop: &PageCrop{Index: p.Index, Path: p.Source.Path, Region: p.Crop}}
		}
	}
	return rows
}

func roundPx(v float64) int { return int(math.Round(v)) }

func clampPx(v float64) int { return max(0, roundPx(v)) }
