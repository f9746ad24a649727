package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/zinefold/pkg/impose"
	"github.com/matzehuels/zinefold/pkg/pipeline"
)

// planCommand creates the plan command, which shows the imposition without
// rendering anything.
func (c *CLI) planCommand() *cobra.Command {
	var (
		interactive bool
		asJSON      bool
		noCache     bool
	)

	cmd := &cobra.Command{
		Use:   "plan [job file]",
		Short: "Show where every page lands, without rendering",
		Long: `Show where every page lands, without rendering.

Each row of the table is one grid row of one sheet side. Slots read left to
right as printed; "·" marks filler. Use --interactive to page through sheet
sides, or --json for the full plan.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: configCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPlan(cmd.Context(), args, interactive, asJSON, noCache)
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "browse sheet sides interactively")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the plan as JSON")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the measurement cache")

	return cmd
}

// runPlan runs the pipeline up to planning and shows the result.
func (c *CLI) runPlan(ctx context.Context, args []string, interactive, asJSON, noCache bool) error {
	res, err := c.plan(ctx, args, noCache)
	if err != nil {
		return err
	}

	switch {
	case asJSON:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Plan)
	case interactive:
		_, err := tea.NewProgram(NewSheetBrowserModel(res.Plan), tea.WithContext(ctx)).Run()
		return err
	}

	printSuccess("Planned %d sheets", res.Stats.Sheets)
	printRunStats(res)
	for _, p := range res.Plan.Unplaced {
		printWarning("Page %d (%s) has no slot", p.Index, p.Source.Path)
	}
	fmt.Println(planTable(res.Plan).Render())
	printNextStep("Render", appName+" impose "+res.Config.Path)
	return nil
}

// plan loads the job and runs measure → layout → plan behind a spinner.
func (c *CLI) plan(ctx context.Context, args []string, noCache bool) (*pipeline.Result, error) {
	cfg, err := loadConfig(args)
	if err != nil {
		return nil, err
	}
	runner, err := c.newRunner(ctx, cfg, noCache, 0)
	if err != nil {
		return nil, fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinner(ctx, c.out, fmt.Sprintf("Measuring %s...", cfg.Path))
	spinner.Start()
	res, err := runner.Plan(ctx, cfg, pipeline.Options{})
	if err != nil {
		spinner.Fail("Planning failed")
		return nil, err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return res, nil
}

// =============================================================================
// Plan Tables
// =============================================================================

const fillerMark = "·"

var headerStyle = lipgloss.NewStyle().Foreground(colorLabel).Bold(true)

// planTable lays out every grid row of every sheet side.
func planTable(plan impose.Plan) *table.Table {
	headers := []string{"Sheet", "Side", "Row"}
	for i := range plan.Layout.SlotsPerRow() {
		headers = append(headers, strconv.Itoa(i+1))
	}

	var rows [][]string
	for _, side := range plan.Sides() {
		for r, slots := range side.Slots {
			row := []string{strconv.Itoa(side.Sheet + 1), side.Side.String(), strconv.Itoa(r + 1)}
			for _, slot := range slots {
				row = append(row, slotLabel(slot))
			}
			rows = append(rows, row)
		}
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorMuted)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col < 3:
				return lipgloss.NewStyle().Foreground(colorLabel)
			case rows[row][col] == fillerMark:
				return lipgloss.NewStyle().Foreground(colorMuted)
			default:
				return lipgloss.NewStyle().Foreground(colorAccent)
			}
		})
}

// sideTable draws one sheet side as it will be printed, naming the source
// of each page.
func sideTable(side impose.SheetSide) *table.Table {
	var rows [][]string
	for _, slots := range side.Slots {
		row := make([]string, len(slots))
		for i, slot := range slots {
			if slot.Filler() {
				row[i] = fillerMark
				continue
			}
			p := slot.Page
			row[i] = fmt.Sprintf("%s\n%s %s", p, filepath.Base(p.Source.Path), p.Pane)
		}
		rows = append(rows, row)
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorMuted)).
		BorderRow(true).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1).Align(lipgloss.Center)
			if row >= 0 && row < len(rows) && rows[row][col] == fillerMark {
				return base.Foreground(colorMuted)
			}
			return base.Foreground(colorText)
		})
}

func slotLabel(s impose.Slot) string {
	if s.Filler() {
		return fillerMark
	}
	return s.Page.String()
}
