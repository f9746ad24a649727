package units

import (
	"strings"

	"github.com/matzehuels/zinefold/pkg/errors"
)

// Unit is a physical length unit.
type Unit string

// Supported units.
const (
	Inch       Unit = "in"
	Centimeter Unit = "cm"
	Millimeter Unit = "mm"
	Point      Unit = "pt"
)

// DefaultUnit is used when the configuration does not name one.
const DefaultUnit = Inch

// perInch is the number of each unit in one inch.
var perInch = map[Unit]float64{
	Inch:       1,
	Centimeter: 2.54,
	Millimeter: 25.4,
	Point:      72,
}

// aliases maps accepted spellings to their canonical unit.
var aliases = map[string]Unit{
	"":            Inch,
	"in":          Inch,
	"inch":        Inch,
	"inches":      Inch,
	"cm":          Centimeter,
	"centimeter":  Centimeter,
	"centimeters": Centimeter,
	"mm":          Millimeter,
	"millimeter":  Millimeter,
	"millimeters": Millimeter,
	"pt":          Point,
	"point":       Point,
	"points":      Point,
}

// ParseUnit resolves a unit name. Matching is case-insensitive and ignores
// surrounding whitespace. The empty string resolves to [DefaultUnit].
func ParseUnit(s string) (Unit, error) {
	if u, ok := aliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return u, nil
	}
	return "", errors.New(errors.ErrCodeInvalidUnit, "unknown unit %q (must be one of: in, cm, mm, pt)", s)
}

// Valid reports whether u is one of the supported units.
func (u Unit) Valid() bool {
	_, ok := perInch[u]
	return ok
}

// String returns the canonical abbreviation.
func (u Unit) String() string { return string(u) }

// Convert expresses v, measured in from, in the unit to.
// Unknown units are treated as inches.
func Convert(v float64, from, to Unit) float64 {
	if from == to {
		return v
	}
	return v / factor(from) * factor(to)
}

func factor(u Unit) float64 {
	if f, ok := perInch[u]; ok {
		return f
	}
	return 1
}

// PixelsPerUnit returns the scale at which totalPx pixels span span units.
// It returns 0 when span is not positive.
func PixelsPerUnit(totalPx, span float64) float64 {
	if span <= 0 {
		return 0
	}
	return totalPx / span
}

// ToPixels scales a physical length by the pixels-per-unit factor.
func ToPixels(v, ppu float64) float64 {
	return v * ppu
}

// DPI converts a pixels-per-unit factor in unit u to dots per inch.
func DPI(ppu float64, u Unit) float64 {
	return ppu * factor(u)
}
