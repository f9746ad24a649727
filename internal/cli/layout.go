package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/zinefold/pkg/impose"
)

// layoutCommand creates the layout command, which shows the grid geometry
// chosen for the job's paper.
func (c *CLI) layoutCommand() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "layout [job file]",
		Short: "Show the page grid and pixel geometry for a job",
		Long: `Show the page grid and pixel geometry for a job.

The scale is chosen so that the configured columns of facing pairs exactly
span the printable width; the row count is whatever fits below that. Use this
to tune margins and gutter before rendering.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: configCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args, noCache)
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the measurement cache")

	return cmd
}

// runLayout plans the job and prints its layout.
func (c *CLI) runLayout(ctx context.Context, args []string, noCache bool) error {
	res, err := c.plan(ctx, args, noCache)
	if err != nil {
		return err
	}
	l := res.Layout

	printSuccess("Layout %s", l)
	printKeyValue("paper", fmt.Sprintf("%.0fx%.0f px (%.1f dpi)", l.PaperWidthPx, l.PaperHeightPx, l.DPI()))
	printKeyValue("grid", fmt.Sprintf("%d columns x %d rows", l.Columns, l.Rows))
	printKeyValue("capacity", fmt.Sprintf("%d slots per side, %d pages per sheet", l.SlotsPerSide(), l.PagesPerSheet()))
	printKeyValue("column", fmt.Sprintf("%dx%d px", l.ColumnWidthPx, l.PageHeightPx))
	printKeyValue("margins", fmt.Sprintf("L %.0f  R %.0f  T %.0f  B %.0f px", l.Margins.Left, l.Margins.Right, l.Margins.Top, l.Margins.Bottom))
	printKeyValue("gutter", fmt.Sprintf("%.0f px", l.GutterPx))
	printKeyValue("offset", fmt.Sprintf("%.0f, %.0f px", l.OffsetXPx, l.OffsetYPx))
	for _, side := range []impose.Side{impose.Front, impose.Back} {
		p := impose.SidePadding(l, side)
		printKeyValue(side.String()+" pad", fmt.Sprintf("L %d  R %d  T %d  B %d px", p.Left, p.Right, p.Top, p.Bottom))
	}
	printRunStats(res)
	return nil
}
