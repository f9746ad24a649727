package pdfout

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/zinefold/pkg/errors"
	"github.com/matzehuels/zinefold/pkg/units"
)

func sheetImage(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 85, 110))
	for x := 0; x < 85; x++ {
		img.Set(x, x, color.Black)
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBind(t *testing.T) {
	dir := t.TempDir()
	images := []string{
		sheetImage(t, dir, "sheet-001-front.png"),
		sheetImage(t, dir, "sheet-001-back.png"),
	}
	out := filepath.Join(dir, "print", "zine.pdf")

	// Binding twice replaces rather than appends.
	for i := 0; i < 2; i++ {
		if err := Bind(images, out, 8.5, 11, units.Inch); err != nil {
			t.Fatalf("Bind() error = %v", err)
		}
	}

	n, err := PageCount(out)
	if err != nil {
		t.Fatalf("PageCount() error = %v", err)
	}
	if n != 2 {
		t.Errorf("PageCount() = %d, want 2", n)
	}
}

func TestBindErrors(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "zine.pdf")

	if err := Bind(nil, out, 8.5, 11, units.Inch); !errors.Is(err, errors.ErrCodeEmptyInput) {
		t.Errorf("Bind(nil) error = %v, want EMPTY_INPUT", err)
	}
	if err := Bind([]string{"a.png"}, out, 0, 11, units.Inch); !errors.Is(err, errors.ErrCodeInvalidPaper) {
		t.Errorf("Bind(zero width) error = %v, want INVALID_PAPER", err)
	}
	if err := Bind([]string{"a.bmp"}, out, 8.5, 11, units.Inch); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("Bind(bmp) error = %v, want INVALID_CONFIG", err)
	}
}
