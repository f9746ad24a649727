package raster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	_ "golang.org/x/image/bmp"  // register decoder
	_ "golang.org/x/image/tiff" // register decoder
	_ "golang.org/x/image/webp" // register decoder

	"github.com/matzehuels/zinefold/pkg/errors"
	"github.com/matzehuels/zinefold/pkg/impose"
)

// DefaultBinary is the ImageMagick 7 entry point.
const DefaultBinary = "magick"

// BinaryEnv overrides the ImageMagick binary when no explicit one is given.
const BinaryEnv = "ZINEFOLD_MAGICK"

// Magick is a [Compositor] backed by the ImageMagick 7 command line.
//
// Requires ImageMagick 7: brew install imagemagick (macOS),
// apt install imagemagick (Linux).
type Magick struct {
	// Binary is the executable to run (default "magick").
	Binary string

	// Timeout bounds every single invocation; zero means no limit beyond ctx.
	Timeout time.Duration

	Logger *log.Logger
}

var _ Compositor = (*Magick)(nil)

// NewMagick returns a Magick compositor. An empty binary falls back to
// $ZINEFOLD_MAGICK and then to "magick".
func NewMagick(binary string, timeout time.Duration, logger *log.Logger) *Magick {
	if binary == "" {
		binary = os.Getenv(BinaryEnv)
	}
	if binary == "" {
		binary = DefaultBinary
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Magick{Binary: binary, Timeout: timeout, Logger: logger}
}

// CommandLine returns the full argument vector, binary first, that Compose
// would run for req.
func (m *Magick) CommandLine(req impose.SheetRenderRequest) []string {
	return append([]string{m.binary()}, Args(req)...)
}

// Measure reads the image header in-process when the format is known
// (png, jpeg, gif, tiff, bmp, webp) and asks `magick identify` otherwise.
func (m *Magick) Measure(ctx context.Context, path string) (impose.Size, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return impose.Size{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "image %s", path)
		}
		return impose.Size{}, fmt.Errorf("open %s: %w", path, err)
	}
	cfg, format, decErr := image.DecodeConfig(f)
	f.Close()
	if decErr == nil {
		m.logger().Debug("measured image", "path", path, "format", format, "width", cfg.Width, "height", cfg.Height)
		return impose.Size{Width: cfg.Width, Height: cfg.Height}, nil
	}

	out, err := m.run(ctx, "identify", "-format", "%w %h", path+"[0]")
	if err != nil {
		return impose.Size{}, fmt.Errorf("measure %s: %w", path, err)
	}
	var size impose.Size
	if _, err := fmt.Sscanf(strings.TrimSpace(string(out)), "%d %d", &size.Width, &size.Height); err != nil {
		return impose.Size{}, errors.Wrap(errors.ErrCodeCompositorFailure, err, "parse identify output %q for %s", out, path)
	}
	return size, nil
}

// Crop validates the region and returns a lazy handle.
func (m *Magick) Crop(ctx context.Context, path string, region impose.Region) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return Handle{}, err
	}
	if region.Width <= 0 || region.Height <= 0 || region.X < 0 || region.Y < 0 {
		return Handle{}, errors.New(errors.ErrCodeInternal, "invalid crop %s for %s", region, path)
	}
	return Handle{Path: path, Region: region}, nil
}

// Compose renders req with one `magick` invocation. The image is written
// next to req.Output under a temporary name and renamed into place, so a
// failed or cancelled run never leaves a truncated sheet behind.
func (m *Magick) Compose(ctx context.Context, req impose.SheetRenderRequest) (string, error) {
	if req.Output == "" {
		return "", errors.New(errors.ErrCodeInternal, "%s has no output path", req.Name())
	}

	grid, err := cropGrid(ctx, m, req)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeCompositorFailure, err, "crop cells of %s", req.Name())
	}

	dir, base := filepath.Split(req.Output)
	tmp := filepath.Join(dir, fmt.Sprintf(".%s-%s%s", strings.TrimSuffix(base, filepath.Ext(base)), uuid.NewString(), filepath.Ext(base)))

	start := time.Now()
	if _, err := m.run(ctx, argsTo(req, grid, tmp)...); err != nil {
		os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, req.Output); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("move %s into place: %w", req.Output, err)
	}

	m.logger().Debug("composed sheet", "sheet", req.Sheet, "side", req.Side, "output", req.Output, "duration", time.Since(start))
	return req.Output, nil
}

// run executes the binary with a per-invocation timeout and returns stdout.
func (m *Magick) run(ctx context.Context, args ...string) ([]byte, error) {
	bin := m.binary()
	if _, err := exec.LookPath(bin); err != nil {
		return nil, errors.Wrap(errors.ErrCodeToolMissing, err,
			"%s not found; install ImageMagick 7:\n  macOS:  brew install imagemagick\n  Linux:  apt install imagemagick", bin)
	}

	if m.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	m.logger().Debug("running compositor", "cmd", bin, "args", len(args))
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.Wrap(errors.ErrCodeCompositorFailure, ctxErr, "%s", bin)
		}
		return nil, errors.Wrap(errors.ErrCodeCompositorFailure, err, "%s: %s", bin, strings.TrimSpace(errBuf.String()))
	}
	return out.Bytes(), nil
}

func (m *Magick) binary() string {
	if m.Binary == "" {
		return DefaultBinary
	}
	return m.Binary
}

func (m *Magick) logger() *log.Logger {
	if m.Logger == nil {
		return log.Default()
	}
	return m.Logger
}
