// Package pdfout binds rendered sheet images into a single print PDF.
//
// Each image becomes one page sized to the paper, in the order given:
// sheet 1 front, sheet 1 back, sheet 2 front, and so on. Printing the PDF
// duplex (flip on the long edge) reproduces the imposition.
package pdfout

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/matzehuels/zinefold/pkg/errors"
	"github.com/matzehuels/zinefold/pkg/units"
)

var bindable = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".tif": true, ".tiff": true, ".webp": true,
}

// Bind writes images as the pages of the PDF at out. width and height give
// the paper size in u. An existing file at out is replaced.
func Bind(images []string, out string, width, height float64, u units.Unit) error {
	if len(images) == 0 {
		return errors.New(errors.ErrCodeEmptyInput, "no sheet images to bind")
	}
	if width <= 0 || height <= 0 {
		return errors.New(errors.ErrCodeInvalidPaper, "paper must be positive, got %gx%g %s", width, height, u)
	}
	for _, img := range images {
		if !bindable[strings.ToLower(filepath.Ext(img))] {
			return errors.New(errors.ErrCodeInvalidConfig, "cannot bind %s into a PDF (supported: png, jpg, tif, webp)", img)
		}
	}

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("create pdf directory: %w", err)
	}
	// Importing into an existing file appends pages.
	if err := os.Remove(out); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("replace %s: %w", out, err)
	}

	imp := pdfcpu.DefaultImportConfig()
	imp.PageDim = &types.Dim{
		Width:  units.Convert(width, u, units.Point),
		Height: units.Convert(height, u, units.Point),
	}
	imp.UserDim = true
	imp.Pos = types.Full

	if err := api.ImportImagesFile(images, out, imp, model.NewDefaultConfiguration()); err != nil {
		return fmt.Errorf("bind %d sheet images into %s: %w", len(images), out, err)
	}
	return nil
}

// PageCount returns the number of pages in the PDF at path.
func PageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("pdf page count failed: %w", err)
	}
	return n, nil
}
