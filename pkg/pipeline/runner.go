package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/zinefold/pkg/cache"
	"github.com/matzehuels/zinefold/pkg/config"
	"github.com/matzehuels/zinefold/pkg/raster"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache, compositor and logger; it
// doesn't store pipeline results. Multiple goroutines can safely use the
// same Runner with different jobs.
type Runner struct {
	Cache      cache.Cache
	Keyer      cache.Keyer
	Compositor raster.Compositor
	Logger     *log.Logger

	// Publisher, if set, replaces the S3 publisher built from the
	// environment.
	Publisher Publisher
}

// NewRunner creates a runner.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
// If comp is nil, ImageMagick is used.
func NewRunner(c cache.Cache, keyer cache.Keyer, comp raster.Compositor, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	if comp == nil {
		comp = raster.NewMagick("", config.DefaultTimeout, logger)
	}
	return &Runner{
		Cache:      c,
		Keyer:      keyer,
		Compositor: comp,
		Logger:     logger,
	}
}

// Plan runs measure → layout → plan. The result holds the render requests
// but nothing has been drawn.
func (r *Runner) Plan(ctx context.Context, cfg *config.Config, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	c := opts.apply(cfg)
	if err := c.Validate(); err != nil {
		return nil, err
	}

	result := &Result{RunID: uuid.NewString(), Config: c}
	logger := r.Logger.With("run", result.RunID[:8])

	// Stage 1: Measure
	paths, err := c.ResolveImages()
	if err != nil {
		return nil, err
	}
	measureStart := time.Now()
	spreads, info, err := r.MeasureWithCacheInfo(ctx, paths, opts.Refresh)
	if err != nil {
		return nil, fmt.Errorf("measure: %w", err)
	}
	result.Spreads = spreads
	result.CacheInfo = info
	result.Stats.Images = len(spreads)
	result.Stats.MeasureTime = time.Since(measureStart)

	logger.Info("measured images",
		"images", len(spreads),
		"cached", info.MeasureHits,
		"duration", result.Stats.MeasureTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	pages, layout, err := GenerateLayout(ctx, c, spreads)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Pages = pages
	result.Layout = layout
	result.Stats.Pages = len(pages)
	result.Stats.LayoutTime = time.Since(layoutStart)

	logger.Info("computed layout",
		"grid", fmt.Sprintf("%dx%d", layout.Columns, layout.Rows),
		"dpi", fmt.Sprintf("%.1f", layout.DPI()),
		"pages", len(pages),
		"duration", result.Stats.LayoutTime)

	// Stage 3: Plan
	planStart := time.Now()
	plan, reqs, err := GeneratePlan(ctx, c, pages, layout)
	if err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}
	result.Plan = plan
	result.Requests = reqs
	result.Stats.Sheets = len(plan.Sheets)
	result.Stats.Sides = len(reqs)
	result.Stats.Padded = plan.Padded
	result.Stats.Unplaced = len(plan.Unplaced)
	result.Stats.PlanTime = time.Since(planStart)

	for _, p := range plan.Unplaced {
		logger.Warn("page not placed", "page", p.Index, "source", p.Source.Path)
	}
	logger.Info("planned imposition",
		"sheets", len(plan.Sheets),
		"padded", plan.Padded,
		"duration", result.Stats.PlanTime)

	return result, nil
}

// Execute runs the complete pipeline. Unless opts.DryRun is set it renders
// every sheet side, then binds and publishes when the job asks for it.
//
// If some sides fail to render the result is still returned, together with
// a COMPOSITOR_FAILURE error; binding and publishing are skipped.
func (r *Runner) Execute(ctx context.Context, cfg *config.Config, opts Options) (*Result, error) {
	result, err := r.Plan(ctx, cfg, opts)
	if err != nil {
		return nil, err
	}
	if opts.DryRun {
		return result, nil
	}
	logger := r.Logger.With("run", result.RunID[:8])

	// Stage 4: Render
	if err := r.RenderSheets(ctx, result, opts.OnResult, logger); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	logger.Info("rendered sheets",
		"written", len(result.Report.Written()),
		"failed", len(result.Report.Failures),
		"duration", result.Stats.RenderTime)
	if err := result.Report.Err(); err != nil {
		return result, err
	}

	// Stage 5: Bind and publish
	if err := r.Bind(result); err != nil {
		return result, err
	}
	if result.PDF != "" {
		logger.Info("bound pdf", "path", result.PDF, "duration", result.Stats.BindTime)
	}
	if err := r.Publish(ctx, result, logger); err != nil {
		return result, err
	}
	if len(result.Published) > 0 {
		logger.Info("published outputs", "files", len(result.Published), "duration", result.Stats.PublishTime)
	}
	return result, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
