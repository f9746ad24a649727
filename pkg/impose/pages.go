package impose

import (
	"fmt"
	"strings"

	"github.com/matzehuels/zinefold/pkg/errors"
)

// SourceSpread is one scanned input image with its measured pixel size.
type SourceSpread struct {
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Pane identifies which part of a source image a page comes from.
type Pane int

const (
	PaneLeft Pane = iota
	PaneRight
	PaneWhole
	PaneBlank // padding page with no source
)

// String returns the pane name.
func (p Pane) String() string {
	switch p {
	case PaneLeft:
		return "left"
	case PaneRight:
		return "right"
	case PaneWhole:
		return "whole"
	case PaneBlank:
		return "blank"
	default:
		return fmt.Sprintf("pane(%d)", int(p))
	}
}

// Region is a crop rectangle in source pixels.
type Region struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	X      int `json:"x"`
	Y      int `json:"y"`
}

// String formats the region as an ImageMagick geometry (WxH+X+Y).
func (r Region) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// LogicalPage is one reading-order page: a crop of a source spread.
// No pixels are held; Crop describes what the compositor must cut out.
type LogicalPage struct {
	Index  int          `json:"index"`
	Source SourceSpread `json:"source"`
	Pane   Pane         `json:"pane"`
	Crop   Region       `json:"crop"`
}

// Width returns the page width in pixels.
func (p LogicalPage) Width() int { return p.Crop.Width }

// Height returns the page height in pixels.
func (p LogicalPage) Height() int { return p.Crop.Height }

// Blank reports whether the page is padding without a source image.
func (p LogicalPage) Blank() bool { return p.Pane == PaneBlank }

// String returns a short label such as "p3" or "blank".
func (p LogicalPage) String() string {
	if p.Blank() {
		return "blank"
	}
	return fmt.Sprintf("p%d", p.Index)
}

// BlankPage returns a padding page of the given size.
func BlankPage(index, width, height int) LogicalPage {
	return LogicalPage{
		Index: index,
		Pane:  PaneBlank,
		Crop:  Region{Width: width, Height: height},
	}
}

// Format describes how source images map to pages.
type Format string

const (
	// FormatSpread treats each image as two facing pages.
	FormatSpread Format = "spread"
	// FormatPage treats each image as a single page.
	FormatPage Format = "page"
)

// ParseFormat resolves a format name; the empty string yields FormatSpread.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatSpread:
		return FormatSpread, nil
	case FormatPage:
		return FormatPage, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidConfig, "unknown format %q (must be one of: spread, page)", s)
	}
}

// SplitOptions controls how spreads become logical pages.
type SplitOptions struct {
	Format Format

	// BackIsFirst moves the final image's last page to the start of the
	// sequence, for scans whose last image holds the front cover.
	BackIsFirst bool

	// SkipCovers drops the left pane of the first spread and the right pane
	// of the last spread: the outside covers of a scanned zine. A pane moved
	// by BackIsFirst is kept.
	SkipCovers bool
}

// SplitSpreads turns measured source images into logical pages in reading order.
//
// In spread format each image yields its left then its right pane; in page
// format every image is one page. Indices are assigned after reordering.
func SplitSpreads(spreads []SourceSpread, opts SplitOptions) ([]LogicalPage, error) {
	if len(spreads) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyInput, "no source images")
	}
	for _, s := range spreads {
		if s.Width <= 0 || s.Height <= 0 {
			return nil, errors.New(errors.ErrCodeInternal, "source %s has invalid size %dx%d", s.Path, s.Width, s.Height)
		}
	}

	last := len(spreads) - 1
	pages := make([]LogicalPage, 0, 2*len(spreads))
	var opener []LogicalPage

	switch opts.Format {
	case FormatPage:
		for k, s := range spreads {
			if k == last && opts.BackIsFirst {
				opener = append(opener, cropPane(s, PaneWhole))
				continue
			}
			pages = append(pages, cropPane(s, PaneWhole))
		}
	case FormatSpread, "":
		for k, s := range spreads {
			if !(opts.SkipCovers && k == 0) {
				pages = append(pages, cropPane(s, PaneLeft))
			}
			if k == last && opts.BackIsFirst {
				opener = append(opener, cropPane(s, PaneRight))
				continue
			}
			if !(opts.SkipCovers && k == last) {
				pages = append(pages, cropPane(s, PaneRight))
			}
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown format %q", opts.Format)
	}

	pages = append(opener, pages...)
	for i := range pages {
		pages[i].Index = i
	}
	return pages, nil
}

// cropPane returns the page cut from one pane of s. Odd widths give the
// extra column to the right pane.
func cropPane(s SourceSpread, pane Pane) LogicalPage {
	half := s.Width / 2
	var r Region
	switch pane {
	case PaneLeft:
		r = Region{Width: half, Height: s.Height}
	case PaneRight:
		r = Region{Width: s.Width - half, Height: s.Height, X: half}
	default:
		r = Region{Width: s.Width, Height: s.Height}
	}
	return LogicalPage{Source: s, Pane: pane, Crop: r}
}
