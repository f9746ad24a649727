// Package units converts physical paper measurements and scales them to pixels.
//
// Paper, margins, gutter and offsets are configured in a physical [Unit]
// (inches by default). The imposition engine works in pixels: it derives a
// single pixels-per-unit factor from the scanned page size and multiplies
// every physical length by it with [ToPixels].
//
// # Units
//
//   - [Inch]: the default, matching US paper sizes
//   - [Centimeter] and [Millimeter]: metric
//   - [Point]: 1/72 inch, as used by PDF tooling
//
// [ParseUnit] accepts the common spellings ("inches", "in", "cm", "mm",
// "pt", "points"). An empty string yields [Inch].
//
// # Paper Presets
//
// [LookupPaper] resolves named sizes such as "letter" or "a4". Presets carry
// their native unit; use [Paper.In] to express them in the configured unit:
//
//	p, _ := units.LookupPaper("a4")
//	w, h := p.In(units.Inch)
package units
