package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/zinefold/pkg/config"
	"github.com/matzehuels/zinefold/pkg/pdfout"
	"github.com/matzehuels/zinefold/pkg/publish"
	"github.com/matzehuels/zinefold/pkg/render"
)

// Publisher uploads finished files and returns where they landed.
type Publisher interface {
	Publish(ctx context.Context, files []string) ([]string, error)
}

// RenderSheets hands every request to the compositor. Per-side failures are
// collected in the result's report; the returned error is non-nil only when
// rendering could not start.
func (r *Runner) RenderSheets(ctx context.Context, res *Result, onResult func(render.Result), logger *log.Logger) error {
	timeout, err := res.Config.Timeout()
	if err != nil {
		return err
	}
	rd := &render.Renderer{
		Compositor: r.Compositor,
		Workers:    res.Config.Compositor.Workers,
		Timeout:    timeout,
		Logger:     logger,
		OnResult:   onResult,
	}
	report, err := rd.Render(ctx, res.Requests)
	if err != nil {
		return err
	}
	res.Report = report
	res.Stats.RenderTime = report.Duration
	return nil
}

// Bind joins the written sheets into the configured PDF, if any.
func (r *Runner) Bind(res *Result) error {
	out := res.Config.Output.PDF
	if out == "" || res.Report == nil {
		return nil
	}
	sheet, err := res.Config.Sheet()
	if err != nil {
		return err
	}
	start := time.Now()
	if err := pdfout.Bind(res.Report.Written(), out, sheet.Width, sheet.Height, sheet.Unit); err != nil {
		return fmt.Errorf("bind pdf: %w", err)
	}
	res.PDF = out
	res.Stats.BindTime = time.Since(start)
	return nil
}

// Publish uploads every output of the run to the configured target, if any.
func (r *Runner) Publish(ctx context.Context, res *Result, logger *log.Logger) error {
	if res.Config.Output.Publish == "" {
		return nil
	}
	start := time.Now()
	p, err := r.publisher(ctx, res.Config, logger)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	urls, err := p.Publish(ctx, res.Outputs())
	res.Published = urls
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	res.Stats.PublishTime = time.Since(start)
	return nil
}

func (r *Runner) publisher(ctx context.Context, cfg *config.Config, logger *log.Logger) (Publisher, error) {
	if r.Publisher != nil {
		return r.Publisher, nil
	}
	target, err := publish.ParseTarget(cfg.Output.Publish)
	if err != nil {
		return nil, err
	}
	return publish.New(ctx, target, publish.OptionsFromEnv(), logger)
}
