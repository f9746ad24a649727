package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/zinefold/pkg/config"
	"github.com/matzehuels/zinefold/pkg/impose"
	"github.com/matzehuels/zinefold/pkg/observability"
)

// GenerateLayout splits the measured spreads into pages and fits the grid
// to the job's paper.
func GenerateLayout(ctx context.Context, cfg *config.Config, spreads []impose.SourceSpread) ([]impose.LogicalPage, impose.Layout, error) {
	start := time.Now()
	pages, layout, err := generateLayout(cfg, spreads)
	observability.Pipeline().OnLayoutComplete(ctx, layout.Columns, layout.Rows, time.Since(start), err)
	return pages, layout, err
}

func generateLayout(cfg *config.Config, spreads []impose.SourceSpread) ([]impose.LogicalPage, impose.Layout, error) {
	split, err := cfg.SplitOptions()
	if err != nil {
		return nil, impose.Layout{}, err
	}
	pages, err := impose.SplitSpreads(spreads, split)
	if err != nil {
		return nil, impose.Layout{}, err
	}

	colW, pageH := ColumnGeometry(spreads, split.Format)
	in, err := cfg.LayoutInput(colW, pageH)
	if err != nil {
		return nil, impose.Layout{}, err
	}
	layout, err := impose.ComputeLayout(in)
	if err != nil {
		return nil, impose.Layout{}, err
	}
	return pages, layout, nil
}

// ColumnGeometry returns the pixel width of one grid column and the pixel
// height of one page. A column holds a facing pair: one spread, or two
// single-page scans side by side. Mixed sizes use the largest.
func ColumnGeometry(spreads []impose.SourceSpread, format impose.Format) (columnWidth, pageHeight int) {
	for _, s := range spreads {
		columnWidth = max(columnWidth, s.Width)
		pageHeight = max(pageHeight, s.Height)
	}
	if format == impose.FormatPage {
		columnWidth *= 2
	}
	return columnWidth, pageHeight
}

// GeneratePlan places the pages and assembles one render request per
// sheet side.
func GeneratePlan(ctx context.Context, cfg *config.Config, pages []impose.LogicalPage, layout impose.Layout) (impose.Plan, []impose.SheetRenderRequest, error) {
	start := time.Now()
	plan, reqs, err := generatePlan(cfg, pages, layout)
	observability.Pipeline().OnPlanComplete(ctx, len(plan.Pages), len(plan.Sheets), time.Since(start), err)
	return plan, reqs, err
}

func generatePlan(cfg *config.Config, pages []impose.LogicalPage, layout impose.Layout) (impose.Plan, []impose.SheetRenderRequest, error) {
	odd, err := cfg.OddPolicy()
	if err != nil {
		return impose.Plan{}, nil, err
	}
	plan, err := impose.PlanImposition(pages, layout, impose.WithOddPolicy(odd))
	if err != nil {
		return impose.Plan{}, nil, err
	}
	reqs, err := impose.AssembleRenderCommands(plan, cfg.AssembleOptions())
	if err != nil {
		return plan, nil, err
	}
	return plan, reqs, nil
}
