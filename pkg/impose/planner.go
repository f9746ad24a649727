package impose

import (
	"fmt"
	"iter"
)

// Side is one face of a printed sheet.
type Side int

const (
	Front Side = iota
	Back
)

// String returns "front" or "back".
func (s Side) String() string {
	switch s {
	case Front:
		return "front"
	case Back:
		return "back"
	default:
		return fmt.Sprintf("side(%d)", int(s))
	}
}

// Placement assigns one page to one slot.
type Placement struct {
	Sheet int  // 0-based sheet index
	Side  Side // front or back
	Row   int  // 0-based row on the side
	Slot  int  // 0-based slot within the row, in [0, 2*columns)
	Page  int  // index into the planned page sequence
}

// PlannerState is the cursor state of the signature walk.
//
// I and J point at the first and last unread pages. Column is the pair index
// that the next step fills; it may equal the column count, in which case the
// next step first rolls over to a new row (and possibly a new sheet).
type PlannerState struct {
	I      int
	J      int
	Sheet  int
	Row    int
	Column int
}

// NewPlannerState returns the initial state for n pages.
func NewPlannerState(n int) PlannerState {
	return PlannerState{I: 0, J: n - 1}
}

// Done reports whether no pair of pages remains.
func (s PlannerState) Done() bool { return s.I >= s.J }

// BackRightSlot returns the back slot behind the front-left page of pair column.
func BackRightSlot(columns, column int) int { return 2*(columns-column) - 1 }

// BackLeftSlot returns the back slot behind the front-right page of pair column.
func BackLeftSlot(columns, column int) int { return 2 * (columns - column - 1) }

// Step places the next group of pages and returns the advanced state.
//
// The front pair gets pages J (left) and I (right). The back pair gets J-1
// and I+1 in mirrored slots, but only when both lie strictly between I and J
// and are distinct: with fewer than four pages left the back is filler and a
// lone middle page is left for the caller to report.
//
// Step is pure; a finished state, or a grid without positive dimensions,
// is returned unchanged with no placements.
func Step(s PlannerState, columns, rows int) (PlannerState, []Placement) {
	if s.Done() || columns < 1 || rows < 1 {
		return s, nil
	}

	if s.Column >= columns {
		s.Column = 0
		s.Row++
		if s.Row >= rows {
			s.Row = 0
			s.Sheet++
		}
	}

	c := s.Column
	out := make([]Placement, 0, 4)
	out = append(out,
		Placement{Sheet: s.Sheet, Side: Front, Row: s.Row, Slot: 2 * c, Page: s.J},
		Placement{Sheet: s.Sheet, Side: Front, Row: s.Row, Slot: 2*c + 1, Page: s.I},
	)
	if s.J-s.I >= 3 {
		out = append(out,
			Placement{Sheet: s.Sheet, Side: Back, Row: s.Row, Slot: BackRightSlot(columns, c), Page: s.J - 1},
			Placement{Sheet: s.Sheet, Side: Back, Row: s.Row, Slot: BackLeftSlot(columns, c), Page: s.I + 1},
		)
	}

	return PlannerState{
		I:      s.I + 2,
		J:      s.J - 2,
		Sheet:  s.Sheet,
		Row:    s.Row,
		Column: c + 1,
	}, out
}

// Placements yields the slot assignments for n pages on a columns × rows grid
// in the order the planner makes them. It yields nothing for an invalid grid.
func Placements(n, columns, rows int) iter.Seq[Placement] {
	return func(yield func(Placement) bool) {
		if columns < 1 || rows < 1 {
			return
		}
		var batch []Placement
		for s := NewPlannerState(n); !s.Done(); {
			s, batch = Step(s, columns, rows)
			for _, p := range batch {
				if !yield(p) {
					return
				}
			}
		}
	}
}
