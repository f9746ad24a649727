package impose

import (
	"github.com/matzehuels/zinefold/pkg/errors"
)

// OddPolicy decides what happens to the middle page of an odd page count.
type OddPolicy int

const (
	// OddDrop leaves the middle page unplaced and reports it in Plan.Unplaced.
	OddDrop OddPolicy = iota
	// OddPad appends a blank page so that every real page is placed.
	OddPad
)

// String returns "drop" or "pad".
func (p OddPolicy) String() string {
	if p == OddPad {
		return "pad"
	}
	return "drop"
}

// Slot is one grid cell; a nil Page is filler.
type Slot struct {
	Page *LogicalPage `json:"page,omitempty"`
}

// Filler reports whether the slot is empty.
func (s Slot) Filler() bool { return s.Page == nil || s.Page.Blank() }

// SheetSide is one printable face: Rows × 2*Columns slots.
type SheetSide struct {
	Sheet int      `json:"sheet"`
	Side  Side     `json:"side"`
	Slots [][]Slot `json:"slots"`
}

// Pages returns the pages on this side in row-major order, skipping filler.
func (s SheetSide) Pages() []LogicalPage {
	var out []LogicalPage
	for _, row := range s.Slots {
		for _, slot := range row {
			if !slot.Filler() {
				out = append(out, *slot.Page)
			}
		}
	}
	return out
}

// Sheet is one physical sheet with both faces.
type Sheet struct {
	Index int       `json:"index"`
	Front SheetSide `json:"front"`
	Back  SheetSide `json:"back"`
}

// Plan is the full imposition: every sheet and where each page landed.
type Plan struct {
	Layout Layout `json:"layout"`

	// Pages is the planned sequence, including any blank padding.
	Pages []LogicalPage `json:"pages"`

	Sheets []Sheet `json:"sheets"`

	// Unplaced lists pages that have no slot (the middle page of an odd
	// count under OddDrop).
	Unplaced []LogicalPage `json:"unplaced,omitempty"`

	// Padded is the number of blank pages appended.
	Padded int `json:"padded"`
}

// Sides returns every sheet side in print order: front then back, sheet by sheet.
func (p Plan) Sides() []SheetSide {
	out := make([]SheetSide, 0, 2*len(p.Sheets))
	for _, s := range p.Sheets {
		out = append(out, s.Front, s.Back)
	}
	return out
}

// Locate finds the slot holding the page with the given sequence index.
func (p Plan) Locate(index int) (Placement, bool) {
	for _, side := range p.Sides() {
		for r, row := range side.Slots {
			for c, slot := range row {
				if slot.Page != nil && slot.Page.Index == index {
					return Placement{Sheet: side.Sheet, Side: side.Side, Row: r, Slot: c, Page: index}, true
				}
			}
		}
	}
	return Placement{}, false
}

// PlacedCount returns the number of non-filler slots.
func (p Plan) PlacedCount() int {
	n := 0
	for _, side := range p.Sides() {
		n += len(side.Pages())
	}
	return n
}

type planConfig struct {
	odd OddPolicy
}

// PlanOption configures PlanImposition.
type PlanOption func(*planConfig)

// WithOddPolicy sets how an odd page count is handled (default OddDrop).
func WithOddPolicy(p OddPolicy) PlanOption {
	return func(c *planConfig) { c.odd = p }
}

// PlanImposition assigns every page to a sheet slot in booklet signature order.
//
// It fails with EMPTY_INPUT for zero pages and LAYOUT_MISMATCH when the
// layout grid has non-positive dimensions. A partially filled last sheet is
// kept; its free slots are filler.
func PlanImposition(pages []LogicalPage, layout Layout, opts ...PlanOption) (Plan, error) {
	if len(pages) == 0 {
		return Plan{}, errors.New(errors.ErrCodeEmptyInput, "no pages to place")
	}
	if !layout.Valid() {
		return Plan{}, errors.New(errors.ErrCodeLayoutMismatch, "layout grid must be at least 1x1, got %dx%d", layout.Columns, layout.Rows)
	}

	cfg := planConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	seq := make([]LogicalPage, len(pages), len(pages)+1)
	copy(seq, pages)
	for i := range seq {
		seq[i].Index = i
	}

	plan := Plan{Layout: layout}
	if cfg.odd == OddPad && len(seq)%2 == 1 {
		w, h := maxPageSize(seq)
		seq = append(seq, BlankPage(len(seq), w, h))
		plan.Padded = 1
	}
	plan.Pages = seq

	placed := make([]bool, len(seq))
	for p := range Placements(len(seq), layout.Columns, layout.Rows) {
		for p.Sheet >= len(plan.Sheets) {
			plan.Sheets = append(plan.Sheets, newSheet(len(plan.Sheets), layout))
		}
		sheet := &plan.Sheets[p.Sheet]
		side := &sheet.Front
		if p.Side == Back {
			side = &sheet.Back
		}
		side.Slots[p.Row][p.Slot] = Slot{Page: &plan.Pages[p.Page]}
		placed[p.Page] = true
	}

	for i, ok := range placed {
		if !ok && !seq[i].Blank() {
			plan.Unplaced = append(plan.Unplaced, seq[i])
		}
	}
	return plan, nil
}

func newSheet(index int, l Layout) Sheet {
	return Sheet{
		Index: index,
		Front: SheetSide{Sheet: index, Side: Front, Slots: newGrid(l)},
		Back:  SheetSide{Sheet: index, Side: Back, Slots: newGrid(l)},
	}
}

func newGrid(l Layout) [][]Slot {
	grid := make([][]Slot, l.Rows)
	for r := range grid {
		grid[r] = make([]Slot, l.SlotsPerRow())
	}
	return grid
}

func maxPageSize(pages []LogicalPage) (w, h int) {
	for _, p := range pages {
		w = max(w, p.Width())
		h = max(h, p.Height())
	}
	return w, h
}
