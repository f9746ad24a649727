package units

import (
	"sort"
	"strings"

	"github.com/matzehuels/zinefold/pkg/errors"
)

// Paper is a named sheet size in its native unit.
type Paper struct {
	Name   string
	Width  float64
	Height float64
	Unit   Unit
}

// In returns the paper's width and height expressed in u.
func (p Paper) In(u Unit) (width, height float64) {
	return Convert(p.Width, p.Unit, u), Convert(p.Height, p.Unit, u)
}

// Paper presets.
var (
	Letter  = Paper{Name: "letter", Width: 8.5, Height: 11, Unit: Inch}
	Legal   = Paper{Name: "legal", Width: 8.5, Height: 14, Unit: Inch}
	Tabloid = Paper{Name: "tabloid", Width: 11, Height: 17, Unit: Inch}
	A3      = Paper{Name: "a3", Width: 297, Height: 420, Unit: Millimeter}
	A4      = Paper{Name: "a4", Width: 210, Height: 297, Unit: Millimeter}
	A5      = Paper{Name: "a5", Width: 148, Height: 210, Unit: Millimeter}
)

// DefaultPaper is used when the configuration gives no size.
var DefaultPaper = Letter

var papers = map[string]Paper{
	Letter.Name:  Letter,
	Legal.Name:   Legal,
	Tabloid.Name: Tabloid,
	A3.Name:      A3,
	A4.Name:      A4,
	A5.Name:      A5,
}

// LookupPaper resolves a preset by name (case-insensitive).
func LookupPaper(name string) (Paper, error) {
	if p, ok := papers[strings.ToLower(strings.TrimSpace(name))]; ok {
		return p, nil
	}
	return Paper{}, errors.New(errors.ErrCodeInvalidPaper, "unknown paper size %q (must be one of: %s)", name, strings.Join(PaperNames(), ", "))
}

// PaperNames returns the preset names in sorted order.
func PaperNames() []string {
	names := make([]string, 0, len(papers))
	for n := range papers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
