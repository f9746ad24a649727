package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/zinefold/pkg/errors"
	"github.com/matzehuels/zinefold/pkg/observability/prom"
	"github.com/matzehuels/zinefold/pkg/pipeline"
	"github.com/matzehuels/zinefold/pkg/raster"
	"github.com/matzehuels/zinefold/pkg/render"
)

// imposeOpts holds the command-line flags for the impose command.
type imposeOpts struct {
	output      string
	workers     int
	timeout     time.Duration
	dryRun      bool
	noCache     bool
	refresh     bool
	pdf         string
	publish     string
	metricsFile string
}

// imposeCommand creates the impose command, which renders every sheet side.
func (c *CLI) imposeCommand() *cobra.Command {
	var opts imposeOpts

	cmd := &cobra.Command{
		Use:   "impose [job file]",
		Short: "Render scanned spreads onto booklet sheets",
		Long: `Render scanned spreads onto booklet sheets.

Reads a job file (JSON, TOML or YAML; default ` + defaultConfigFile + `), measures
the scans, plans the imposition and asks ImageMagick to compose one image per
sheet side. Sheets are named sheet-001-front.png, sheet-001-back.png, ...

Print the sheets duplex, flipping on the long edge, then fold and cut.

With --dry-run nothing is drawn; the compositor commands are printed instead.
Failed sheet sides are reported together at the end; the others are kept.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: configCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runImpose(cmd.Context(), args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output directory (default: output.dir, then ./out)")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "concurrent compositor invocations (default: number of CPUs)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "timeout per compositor invocation (default 2m)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "print compositor commands without running them")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the measurement cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-measure images even if cached")
	cmd.Flags().StringVar(&opts.pdf, "pdf", "", "also bind the sheets into this PDF")
	cmd.Flags().StringVar(&opts.publish, "publish", "", "upload outputs to s3://bucket/prefix")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics for this run to a textfile")

	return cmd
}

// runImpose loads the job, runs the pipeline and reports every output.
func (c *CLI) runImpose(ctx context.Context, args []string, opts imposeOpts) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	var metrics *prom.Metrics
	if opts.metricsFile != "" {
		metrics = prom.New()
		metrics.Register()
	}

	runner, err := c.newRunner(ctx, cfg, opts.noCache, opts.timeout)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	watch := startStopwatch(loggerFromContext(ctx))
	spinner := newSpinner(ctx, c.out, fmt.Sprintf("Imposing %s...", cfg.Path))
	spinner.Start()
	rendered := 0
	res, err := runner.Execute(ctx, cfg, pipeline.Options{
		OutputDir: opts.output,
		Workers:   opts.workers,
		Timeout:   opts.timeout,
		PDF:       opts.pdf,
		Publish:   opts.publish,
		DryRun:    opts.dryRun,
		Refresh:   opts.refresh,
		OnResult: func(render.Result) {
			rendered++
			spinner.SetMessage(fmt.Sprintf("Rendered %d sheet sides...", rendered))
		},
	})
	spinner.Stop()

	if metrics != nil {
		if werr := metrics.WriteTextfile(opts.metricsFile); werr != nil {
			c.Logger.Warn("write metrics", "path", opts.metricsFile, "error", werr)
		}
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if res == nil {
		return err
	}

	for _, p := range res.Plan.Unplaced {
		printWarning("Page %d (%s) has no slot and was left out", p.Index, p.Source.Path)
	}

	if opts.dryRun {
		printDryRun(res, raster.NewMagick(cfg.Compositor.Binary, 0, c.Logger))
		return nil
	}
	if res.Report != nil {
		for _, r := range res.Report.Results {
			printRenderResult(r)
		}
	}
	if err != nil {
		if res.Report != nil && len(res.Report.Failures) > 0 {
			printError("%d of %d sheet sides failed", len(res.Report.Failures), len(res.Requests))
		}
		return err
	}

	watch.done("imposed", "sides", len(res.Report.Written()), "sheets", res.Stats.Sheets)
	printSuccess("Imposed %d pages onto %d sheets", res.Stats.Pages-res.Stats.Padded-res.Stats.Unplaced, res.Stats.Sheets)
	printRunStats(res)
	if res.PDF != "" {
		printFile(res.PDF)
	}
	for _, url := range res.Published {
		printURL(url)
	}
	return nil
}

// printRenderResult reports one sheet side.
func printRenderResult(r render.Result) {
	if r.Err != nil {
		printError("Sheet %d %s: %s", r.Request.Sheet, r.Request.Side, errors.UserMessage(r.Err))
		return
	}
	printFile(r.Output)
}

// printDryRun lists the planned sides and the command each would run.
func printDryRun(res *pipeline.Result, m *raster.Magick) {
	printInfo("Dry run: %d sheet sides planned", len(res.Requests))
	printRunStats(res)
	for _, req := range res.Requests {
		fmt.Println()
		printKeyValue(fmt.Sprintf("sheet %d", req.Sheet), req.Side.String()+" "+StyleDim.Render(req.Output))
		fmt.Println(styleCommand.Render(shellJoin(m.CommandLine(req))))
	}
}

// shellJoin quotes args for copy-pasting into a POSIX shell.
func shellJoin(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		if a != "" && !strings.ContainsAny(a, " \t\n'\"\\$`()[]{}*?!;&|<>#~") {
			quoted[i] = a
			continue
		}
		quoted[i] = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
	}
	return strings.Join(quoted, " ")
}
