// Package render runs sheet render requests against a compositor.
//
// Requests are independent, so they are dispatched concurrently with a
// bounded number of workers. Every compositor invocation gets its own
// timeout. A failing side does not stop the others: failures are collected
// per sheet side and reported together, and outputs that were written stay
// on disk.
package render

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/zinefold/pkg/errors"
	"github.com/matzehuels/zinefold/pkg/impose"
	"github.com/matzehuels/zinefold/pkg/observability"
	"github.com/matzehuels/zinefold/pkg/raster"
)

// DefaultTimeout bounds one compositor invocation.
const DefaultTimeout = 2 * time.Minute

// Renderer dispatches render requests to a compositor.
type Renderer struct {
	Compositor raster.Compositor

	// Workers caps concurrent invocations (default runtime.NumCPU()).
	Workers int

	// Timeout bounds each invocation (default DefaultTimeout).
	Timeout time.Duration

	Logger *log.Logger

	// OnResult, if set, is called once per finished request. Calls are
	// serialized.
	OnResult func(Result)
}

// Result is the outcome of one request.
type Result struct {
	Request  impose.SheetRenderRequest
	Output   string
	Duration time.Duration
	Err      error
}

// Report collects the outcome of a Render call.
type Report struct {
	// Results holds one entry per request, in request order.
	Results  []Result
	Failures []*errors.SheetError
	Duration time.Duration
}

// Written returns the output paths that were produced, in request order.
func (r *Report) Written() []string {
	var out []string
	for _, res := range r.Results {
		if res.Err == nil && res.Output != "" {
			out = append(out, res.Output)
		}
	}
	return out
}

// Err summarizes the failures; nil when every side rendered.
func (r *Report) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Wrap(errors.ErrCodeCompositorFailure, stderrors.Join(errs...),
		"%d of %d sheet sides failed", len(r.Failures), len(r.Results))
}

// commandLiner is implemented by compositors that can describe the
// command they run, for error messages.
type commandLiner interface {
	CommandLine(req impose.SheetRenderRequest) []string
}

// Render executes every request and returns the collected report. The
// error is reserved for failures that prevent rendering altogether, such
// as an output directory that cannot be created.
func (r *Renderer) Render(ctx context.Context, reqs []impose.SheetRenderRequest) (*Report, error) {
	if r.Compositor == nil {
		return nil, errors.New(errors.ErrCodeInternal, "renderer has no compositor")
	}
	report := &Report{Results: make([]Result, len(reqs))}
	if len(reqs) == 0 {
		return report, nil
	}
	if err := makeOutputDirs(reqs); err != nil {
		return nil, err
	}

	logger := r.logger()
	hooks := observability.Compositor()
	observability.Pipeline().OnRenderStart(ctx, len(reqs))
	start := time.Now()

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(r.workers())

	for i, req := range reqs {
		g.Go(func() error {
			res := r.renderOne(ctx, req)
			hooks.OnCompose(ctx, req.Sheet, req.Side.String(), res.Duration, res.Err)

			mu.Lock()
			defer mu.Unlock()
			report.Results[i] = res
			if res.Err != nil {
				logger.Error("render failed", "sheet", req.Sheet, "side", req.Side, "error", res.Err)
			} else {
				logger.Debug("rendered", "sheet", req.Sheet, "side", req.Side, "output", res.Output, "duration", res.Duration)
			}
			if r.OnResult != nil {
				r.OnResult(res)
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, res := range report.Results {
		if res.Err != nil {
			report.Failures = append(report.Failures, r.sheetError(res))
		}
	}
	report.Duration = time.Since(start)
	observability.Pipeline().OnRenderComplete(ctx, len(reqs), len(report.Failures), report.Duration)

	logger.Info("rendered sheets",
		"sides", len(reqs),
		"failed", len(report.Failures),
		"workers", r.workers(),
		"duration", report.Duration)
	return report, nil
}

func (r *Renderer) renderOne(ctx context.Context, req impose.SheetRenderRequest) Result {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return Result{Request: req, Err: err}
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout())
	defer cancel()

	out, err := r.Compositor.Compose(callCtx, req)
	if err != nil && callCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		err = fmt.Errorf("timed out after %s: %w", r.timeout(), err)
	}
	return Result{Request: req, Output: out, Duration: time.Since(start), Err: err}
}

func (r *Renderer) sheetError(res Result) *errors.SheetError {
	se := &errors.SheetError{
		Sheet: res.Request.Sheet,
		Side:  res.Request.Side.String(),
		Err:   res.Err,
	}
	if cl, ok := r.Compositor.(commandLiner); ok {
		se.Command = strings.Join(cl.CommandLine(res.Request), " ")
	}
	return se
}

func makeOutputDirs(reqs []impose.SheetRenderRequest) error {
	seen := make(map[string]bool)
	for _, req := range reqs {
		dir := filepath.Dir(req.Output)
		if seen[dir] {
			continue
		}
		seen[dir] = true
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	return nil
}

func (r *Renderer) workers() int {
	if r.Workers > 0 {
		return r.Workers
	}
	return runtime.NumCPU()
}

func (r *Renderer) timeout() time.Duration {
	if r.Timeout > 0 {
		return r.Timeout
	}
	return DefaultTimeout
}

func (r *Renderer) logger() *log.Logger {
	if r.Logger == nil {
		return log.Default()
	}
	return r.Logger
}
