package raster

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/zinefold/pkg/errors"
	"github.com/matzehuels/zinefold/pkg/impose"
)

const missingBinary = "zinefold-test-no-such-magick"

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewGray(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
}

func TestMagickMeasureDecodesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spread.png")
	writePNG(t, path, 64, 40)

	// The in-process decoder answers without the binary.
	m := NewMagick(missingBinary, 0, nil)
	got, err := m.Measure(context.Background(), path)
	if err != nil {
		t.Fatalf("Measure() error = %v", err)
	}
	if got != (impose.Size{Width: 64, Height: 40}) {
		t.Errorf("Measure() = %v, want 64x40", got)
	}
}

func TestMagickMeasureMissingFile(t *testing.T) {
	m := NewMagick(missingBinary, 0, nil)
	_, err := m.Measure(context.Background(), filepath.Join(t.TempDir(), "nope.png"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Measure() error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestMagickMeasureFallsBackToBinary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.xcf")
	if err := os.WriteFile(path, []byte("not an image header"), 0o644); err != nil {
		t.Fatal(err)
	}

	m := NewMagick(missingBinary, 0, nil)
	_, err := m.Measure(context.Background(), path)
	if !errors.Is(err, errors.ErrCodeToolMissing) {
		t.Errorf("Measure() error = %v, want TOOL_MISSING", err)
	}
}

func TestMagickComposeToolMissing(t *testing.T) {
	dir := t.TempDir()
	req := sampleRequest()
	req.Output = filepath.Join(dir, "sheet-001-back.png")

	m := NewMagick(missingBinary, 0, nil)
	_, err := m.Compose(context.Background(), req)
	if !errors.Is(err, errors.ErrCodeToolMissing) {
		t.Fatalf("Compose() error = %v, want TOOL_MISSING", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("output dir has %d entries after failure, want 0", len(entries))
	}
}

func TestMagickComposeNoOutput(t *testing.T) {
	req := sampleRequest()
	req.Output = ""
	if _, err := NewMagick(missingBinary, 0, nil).Compose(context.Background(), req); !errors.Is(err, errors.ErrCodeInternal) {
		t.Errorf("Compose() error = %v, want INTERNAL_ERROR", err)
	}
}

func TestMagickComposeBadRegion(t *testing.T) {
	req := sampleRequest()
	req.Rows[1][0].Crop.Region.Width = 0
	_, err := NewMagick(missingBinary, 0, nil).Compose(context.Background(), req)
	if !errors.Is(err, errors.ErrCodeCompositorFailure) || errors.Is(err, errors.ErrCodeToolMissing) {
		t.Errorf("Compose(zero width cell) error = %v, want COMPOSITOR_FAILURE before running the tool", err)
	}
}

func TestMagickCrop(t *testing.T) {
	m := NewMagick(missingBinary, 0, nil)
	ctx := context.Background()

	h, err := m.Crop(ctx, "a.png", impose.Region{Width: 10, Height: 10})
	if err != nil || h.Path != "a.png" {
		t.Errorf("Crop() = %v, %v", h, err)
	}
	if _, err := m.Crop(ctx, "a.png", impose.Region{Width: 0, Height: 10}); err == nil {
		t.Error("Crop(zero width) error = nil")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := m.Crop(cancelled, "a.png", impose.Region{Width: 1, Height: 1}); err == nil {
		t.Error("Crop(cancelled) error = nil")
	}
}
