// Package impose arranges scanned zine spreads into a duplex booklet imposition.
//
// # Overview
//
// A scanned zine is a sequence of spread images, each holding two facing
// pages. To print it as a booklet, pages must be re-ordered onto sheet sides
// so that after duplex printing, folding and cutting they read in order.
// This package computes that arrangement without touching any pixels:
//
//  1. [SplitSpreads] turns measured [SourceSpread] values into [LogicalPage]
//     descriptors (a source file plus a crop region).
//  2. [ComputeLayout] derives the grid (columns × rows) and all pixel
//     paddings from the paper size and the scanned page size.
//  3. [PlanImposition] assigns every page to a (sheet, side, row, slot).
//  4. [AssembleRenderCommands] turns the plan into one [SheetRenderRequest]
//     per sheet side for an external raster compositor.
//
// Every step is a pure function of its inputs.
//
// # Grid
//
// A layout has Columns folding pairs per row; each pair holds two pages side
// by side, so a row has 2*Columns slots. The pixels-per-unit scale is the one
// at which Columns pairs exactly span the printable width; Rows is the number
// of page heights that fit the printable height at that scale.
//
// # Signature Order
//
// The planner walks the page sequence from both ends. For each pair it puts
// the last unread page on the front left and the first unread page on the
// front right. The back of the same pair holds the next two pages inwards,
// mirrored horizontally so that they register with their front counterparts
// when the sheet is turned over:
//
//	front slots:  [2c] = j      [2c+1] = i
//	back slots:   [2(C-c)-1] = j-1    [2(C-c-1)] = i+1
//
// where c is the pair index within the row and C the column count.
//
// # Odd Page Counts
//
// A booklet consumes pages four at a time. When the count is odd the middle
// page has no partner. With [OddDrop] (the default) it is left out and
// reported in [Plan.Unplaced]; with [OddPad] a blank page is appended so
// that every real page is placed.
//
// # State Machine
//
// The planner is an explicit [PlannerState] advanced by [Step]. [Placements]
// exposes the same walk as a lazy sequence of [Placement] events, which is
// useful for inspecting the order without building a plan.
package impose
