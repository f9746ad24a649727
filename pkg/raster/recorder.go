package raster

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/matzehuels/zinefold/pkg/errors"
	"github.com/matzehuels/zinefold/pkg/impose"
)

// Call is one recorded compositor call.
type Call struct {
	Op      string // "measure", "crop" or "compose"
	Path    string
	Region  impose.Region
	Request impose.SheetRenderRequest
}

// Recorder is an in-memory [Compositor]. It answers Measure from Sizes,
// records every call, and fails Compose for outputs listed in Failures.
// The zero value is ready to use.
type Recorder struct {
	// Sizes maps source paths to their dimensions.
	Sizes map[string]impose.Size

	// Failures maps output paths to the error Compose returns for them.
	Failures map[string]error

	// Delay is waited out (or cut short by ctx) before each Compose.
	Delay time.Duration

	mu    sync.Mutex
	calls []Call
}

var _ Compositor = (*Recorder)(nil)

// Measure returns the configured size for path.
func (r *Recorder) Measure(ctx context.Context, path string) (impose.Size, error) {
	r.record(Call{Op: "measure", Path: path})
	if err := ctx.Err(); err != nil {
		return impose.Size{}, err
	}
	size, ok := r.Sizes[path]
	if !ok {
		return impose.Size{}, errors.New(errors.ErrCodeFileNotFound, "image %s", path)
	}
	return size, nil
}

// Crop records the call and returns a handle.
func (r *Recorder) Crop(ctx context.Context, path string, region impose.Region) (Handle, error) {
	r.record(Call{Op: "crop", Path: path, Region: region})
	if err := ctx.Err(); err != nil {
		return Handle{}, err
	}
	return Handle{Path: path, Region: region}, nil
}

// Compose records the request, crops every non-filler cell through Crop and
// returns the output path, or the injected failure for it.
func (r *Recorder) Compose(ctx context.Context, req impose.SheetRenderRequest) (string, error) {
	r.record(Call{Op: "compose", Path: req.Output, Request: req})
	if _, err := cropGrid(ctx, r, req); err != nil {
		return "", errors.Wrap(errors.ErrCodeCompositorFailure, err, "crop cells of %s", req.Name())
	}
	if r.Delay > 0 {
		select {
		case <-time.After(r.Delay):
		case <-ctx.Done():
			return "", errors.Wrap(errors.ErrCodeCompositorFailure, ctx.Err(), "compose %s", req.Output)
		}
	}
	if err := ctx.Err(); err != nil {
		return "", errors.Wrap(errors.ErrCodeCompositorFailure, err, "compose %s", req.Output)
	}
	if err, ok := r.Failures[req.Output]; ok {
		return "", err
	}
	return req.Output, nil
}

// Calls returns a copy of the recorded calls, optionally filtered by op.
func (r *Recorder) Calls(op string) []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	if op == "" {
		return slices.Clone(r.calls)
	}
	var out []Call
	for _, c := range r.calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func (r *Recorder) record(c Call) {
	r.mu.Lock()
	r.calls = append(r.calls, c)
	r.mu.Unlock()
}
