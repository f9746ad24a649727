// Package raster defines the image compositor used to measure, crop and
// assemble sheet sides, with an ImageMagick implementation and an in-memory
// recorder for tests and dry runs.
//
// The imposition engine never touches pixels. It hands the compositor
// [impose.SheetRenderRequest] values, and the compositor turns each one into
// a single output image:
//
//	crop every cell → append cells of a row → stack rows (gravity) →
//	splice padding → extend to the paper canvas → write
//
// # Implementations
//
//   - [Magick] shells out to ImageMagick 7 (`magick`).
//   - [Recorder] records calls in memory and can inject failures.
package raster

import (
	"context"
	"fmt"

	"github.com/matzehuels/zinefold/pkg/impose"
)

// DefaultBackground fills filler cells and padding.
const DefaultBackground = "white"

// Compositor is the external collaborator that reads and writes pixels.
// Implementations must be safe for concurrent use.
type Compositor interface {
	// Measure returns the pixel dimensions of the image at path.
	Measure(ctx context.Context, path string) (impose.Size, error)

	// Crop returns a handle to a region of the image at path. Handles are
	// lazy: no pixels are read until the handle is used by Compose.
	Crop(ctx context.Context, path string, region impose.Region) (Handle, error)

	// Compose renders one sheet side and returns the written file path.
	Compose(ctx context.Context, req impose.SheetRenderRequest) (string, error)
}

// Handle is a lazy reference to a cropped region of a source image.
type Handle struct {
	Path   string
	Region impose.Region
}

// String returns the handle as "path[geometry]".
func (h Handle) String() string {
	return fmt.Sprintf("%s[%s]", h.Path, h.Region)
}

// Args returns the ImageMagick argument fragment that loads the cropped
// region as one image in a parenthesized sub-list.
func (h Handle) Args() []string {
	return []string{"(", h.Path, "-crop", h.Region.String(), "+repage", ")"}
}

// Args returns the ImageMagick 7 arguments (without the binary) that render
// req into req.Output. Handles are built directly from the request, which
// skips the region checks Crop applies.
func Args(req impose.SheetRenderRequest) []string {
	grid := make([][]*Handle, len(req.Rows))
	for i, row := range req.Rows {
		grid[i] = make([]*Handle, len(row))
		for j, cell := range row {
			if !cell.Filler() {
				grid[i][j] = &Handle{Path: cell.Crop.Path, Region: cell.Crop.Region}
			}
		}
	}
	return argsTo(req, grid, req.Output)
}

// cropGrid asks c for a handle to every non-filler cell of req. Filler cells
// stay nil. The first failing crop fails the whole side.
func cropGrid(ctx context.Context, c Compositor, req impose.SheetRenderRequest) ([][]*Handle, error) {
	grid := make([][]*Handle, len(req.Rows))
	for i, row := range req.Rows {
		grid[i] = make([]*Handle, len(row))
		for j, cell := range row {
			if cell.Filler() {
				continue
			}
			h, err := c.Crop(ctx, cell.Crop.Path, cell.Crop.Region)
			if err != nil {
				return nil, err
			}
			grid[i][j] = &h
		}
	}
	return grid, nil
}

func argsTo(req impose.SheetRenderRequest, grid [][]*Handle, output string) []string {
	args := []string{"-background", DefaultBackground}

	for _, row := range grid {
		args = append(args, "(")
		for _, h := range row {
			if h == nil {
				args = append(args, "(", "-size", req.CellSize.String(), "xc:"+DefaultBackground, "+size", ")")
				continue
			}
			args = append(args, h.Args()...)
		}
		args = append(args, "+append", ")")
	}

	p := req.Padding
	args = append(args,
		"-gravity", magickGravity(req.Gravity), "-append",
		"-gravity", "NorthWest", "-splice", fmt.Sprintf("%dx%d", p.Left, p.Top),
		"-gravity", "SouthEast", "-splice", fmt.Sprintf("%dx%d", p.Right, p.Bottom),
	)
	if req.Canvas.Width > 0 && req.Canvas.Height > 0 {
		args = append(args, "-gravity", canvasAnchor(req.Gravity), "-extent", req.Canvas.String())
	}
	return append(args, "+repage", output)
}

func magickGravity(g impose.Gravity) string {
	if g == impose.GravityEast {
		return "East"
	}
	return "West"
}

// canvasAnchor keeps the spliced margins in place when the grid is smaller
// than the paper: fronts grow to the right, backs to the left.
func canvasAnchor(g impose.Gravity) string {
	if g == impose.GravityEast {
		return "NorthEast"
	}
	return "NorthWest"
}
