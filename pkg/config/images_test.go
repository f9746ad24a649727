package config

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/matzehuels/zinefold/pkg/errors"
)

func writeImage(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewGray(image.Rect(0, 0, 4, 2))); err != nil {
		t.Fatal(err)
	}
}

func TestResolveImages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"scans/03.png", "scans/01.png", "scans/02.png", "cover.png"} {
		writeImage(t, filepath.Join(dir, name))
	}
	if err := os.MkdirAll(filepath.Join(dir, "scans", "old.png"), 0o755); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{
		Images: []string{"cover.png", "scans/*.png"},
		Path:   filepath.Join(dir, "job.json"),
	}
	got, err := cfg.ResolveImages()
	if err != nil {
		t.Fatalf("ResolveImages() error = %v", err)
	}
	want := []string{
		filepath.Join(dir, "cover.png"),
		filepath.Join(dir, "scans", "01.png"),
		filepath.Join(dir, "scans", "02.png"),
		filepath.Join(dir, "scans", "03.png"),
	}
	if !slices.Equal(got, want) {
		t.Errorf("ResolveImages() = %v, want %v", got, want)
	}
}

func TestResolveImagesAbsolute(t *testing.T) {
	dir := t.TempDir()
	abs := filepath.Join(dir, "a.png")
	writeImage(t, abs)

	cfg := &Config{Images: []string{abs}, Path: filepath.Join(t.TempDir(), "elsewhere", "job.yaml")}
	got, err := cfg.ResolveImages()
	if err != nil || len(got) != 1 || got[0] != abs {
		t.Errorf("ResolveImages() = %v, %v", got, err)
	}
}

func TestResolveImagesErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.png", "these are not pixels")

	tests := []struct {
		name   string
		images []string
		code   errors.Code
	}{
		{"missing file", []string{"nope.png"}, errors.ErrCodeFileNotFound},
		{"empty glob", []string{"*.tif"}, errors.ErrCodeFileNotFound},
		{"not an image", []string{"notes.png"}, errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Images: tt.images, Path: filepath.Join(dir, "job.json")}
			_, err := cfg.ResolveImages()
			if !errors.Is(err, tt.code) {
				t.Errorf("ResolveImages() error = %v, want %s", err, tt.code)
			}
		})
	}
}
