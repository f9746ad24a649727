// Package pipeline runs a complete zinefold job.
//
// A job moves through five stages:
//
//  1. Measure: resolve the configured images and read their pixel sizes
//     (cached by path, size and modification time)
//  2. Layout: split spreads into pages and fit the page grid to the paper
//  3. Plan: assign every page to a sheet side and assemble render requests
//  4. Render: hand each request to the raster compositor, concurrently
//  5. Bind and publish: optionally join the sheets into one PDF and upload
//     the results to S3
//
// The first three stages never touch pixels. [Runner.Plan] stops after
// them, which is what dry runs and the plan browser use.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, raster.NewMagick("", 0, logger), logger)
//	defer runner.Close()
//
//	cfg, err := config.Load("zine.toml")
//	if err != nil {
//	    return err
//	}
//	result, err := runner.Execute(ctx, cfg, pipeline.Options{OutputDir: "out"})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(result.Report.Written())
package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/zinefold/pkg/config"
	"github.com/matzehuels/zinefold/pkg/impose"
	"github.com/matzehuels/zinefold/pkg/render"
)

// =============================================================================
// Options - Per-Run Overrides
// =============================================================================

// Options overrides parts of a job for a single run. Zero values keep what
// the job file says.
type Options struct {
	// OutputDir replaces output.dir.
	OutputDir string

	// Workers replaces compositor.workers.
	Workers int

	// Timeout replaces compositor.timeout.
	Timeout time.Duration

	// PDF replaces output.pdf.
	PDF string

	// Publish replaces output.publish.
	Publish string

	// DryRun stops after planning; no compositor call is made.
	DryRun bool

	// Refresh ignores cached measurements. Fresh ones are still stored.
	Refresh bool

	// OnResult is called once per rendered sheet side.
	OnResult func(render.Result) `json:"-"`
}

// Validate rejects overrides that can never be applied.
func (o Options) Validate() error {
	if o.Workers < 0 {
		return fmt.Errorf("invalid workers: %d (must not be negative)", o.Workers)
	}
	if o.Timeout < 0 {
		return fmt.Errorf("invalid timeout: %s (must not be negative)", o.Timeout)
	}
	if o.Publish != "" && !strings.HasPrefix(o.Publish, "s3://") {
		return fmt.Errorf("invalid publish target: %q (must be s3://bucket/prefix)", o.Publish)
	}
	return nil
}

// apply returns a defaulted copy of cfg with the overrides in place. The
// caller's config is not modified.
func (o Options) apply(cfg *config.Config) *config.Config {
	c := *cfg
	c.Images = append([]string(nil), cfg.Images...)
	if o.OutputDir != "" {
		c.Output.Dir = o.OutputDir
	}
	if o.Workers > 0 {
		c.Compositor.Workers = o.Workers
	}
	if o.Timeout > 0 {
		c.Compositor.Timeout = o.Timeout.String()
	}
	if o.PDF != "" {
		c.Output.PDF = o.PDF
	}
	if o.Publish != "" {
		c.Output.Publish = o.Publish
	}
	c.SetDefaults()
	return &c
}

// =============================================================================
// Result - Pipeline Outputs
// =============================================================================

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID correlates the log lines of one run.
	RunID string

	// Config is the effective job after overrides and defaults.
	Config *config.Config

	Spreads  []impose.SourceSpread
	Pages    []impose.LogicalPage
	Layout   impose.Layout
	Plan     impose.Plan
	Requests []impose.SheetRenderRequest

	// Report is nil for dry runs.
	Report *render.Report

	// PDF is the bound document path, if one was written.
	PDF string

	// Published lists the s3:// URLs of uploaded files.
	Published []string

	Stats     Stats
	CacheInfo CacheInfo
}

// Outputs returns every file the run wrote: sheet images in print order,
// then the PDF.
func (r *Result) Outputs() []string {
	var out []string
	if r.Report != nil {
		out = append(out, r.Report.Written()...)
	}
	if r.PDF != "" {
		out = append(out, r.PDF)
	}
	return out
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Images   int
	Pages    int
	Sheets   int
	Sides    int
	Padded   int
	Unplaced int

	MeasureTime time.Duration
	LayoutTime  time.Duration
	PlanTime    time.Duration
	RenderTime  time.Duration
	BindTime    time.Duration
	PublishTime time.Duration
}

// CacheInfo counts measurement cache lookups.
type CacheInfo struct {
	MeasureHits   int
	MeasureMisses int
}
