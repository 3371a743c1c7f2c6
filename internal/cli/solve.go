package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dm3k/dm3k/pkg/layout"
	"github.com/dm3k/dm3k/pkg/pipeline"
)

// solveCommand creates the solve command.
func (c *CLI) solveCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		opts    pipeline.Options
	)

	cmd := &cobra.Command{
		Use:   "solve [document]",
		Short: "Send a document to the solver service and save the trace",
		Long: `Send a document to the solver service and save the trace.

The solution (a full_trace of resource/activity decisions) is written as JSON
and can be passed to 'dm3k layout --trace'. Solutions are cached by document
content and algorithm; --refresh asks the solver again.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSolve(cmd.Context(), args[0], output, noCache, opts)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.solution.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVar(&opts.Algorithm, "algorithm", "", "solver algorithm (default from config)")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "ignore cached solutions")

	return cmd
}

func (c *CLI) runSolve(ctx context.Context, input, output string, noCache bool, flags pipeline.Options) error {
	d, err := loadDocument(input)
	if err != nil {
		return err
	}
	opts, err := c.mergeFlags(flags)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, noCache, true)
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Solving with %s...", opts.Algorithm))
	spinner.Start()
	sol, hit, err := runner.SolveWithCacheInfo(ctx, d, opts)
	if err != nil {
		spinner.StopWithError("Solve failed")
		return err
	}
	spinner.StopWithSuccess("Solved")

	if output == "" {
		output = basePath("", input) + ".solution.json"
	}
	data, err := json.MarshalIndent(sol, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	printFile(output)
	printTraceStats(sol.FullTrace, hit)
	printNewline()
	printNextStep("Lay out", "dm3k layout "+input+" --trace "+output)
	return nil
}

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output     string
		tracePath  string
		formatsStr string
		noCache    bool
		summary    bool
		opts       pipeline.Options
	)

	cmd := &cobra.Command{
		Use:   "layout [document]",
		Short: "Lay out and draw the solution matrix of a document",
		Long: `Lay out and draw the solution matrix of a document.

Without --trace the document is solved first (see 'dm3k solve'). The matrix
places resource instances as rows and activity instances as columns; row
heights follow budgets and column widths follow --width-func.

Outputs are written to <output>.<format> for each of --format
(svg, png, pdf, json). PNG and PDF need rsvg-convert on PATH.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = parseFormats(formatsStr)
			return c.runLayout(cmd.Context(), args[0], tracePath, output, noCache, summary, opts)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output base path (default: <input>)")
	cmd.Flags().StringVar(&tracePath, "trace", "", "solution file from 'dm3k solve' (skips the solver)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, pdf, json (comma-separated)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&summary, "summary", false, "print a table of resource rows")
	cmd.Flags().StringVar(&opts.Algorithm, "algorithm", "", "solver algorithm (default from config)")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "ignore cached solutions")
	cmd.Flags().StringVar(&opts.WidthFunc, "width-func", "", "column width driver: cost, reward, ratio (default from config)")
	cmd.Flags().Float64Var(&opts.ContainerWidth, "container-width", 0, "matrix width (default: derived from frame width)")
	cmd.Flags().Float64Var(&opts.ContainerHeight, "container-height", 0, "matrix height (default: derived from frame width)")
	cmd.Flags().Float64Var(&opts.FrameWidth, "frame-width", 0, "frame width used to derive the matrix size")
	cmd.Flags().StringVar(&opts.Title, "title", "", "title drawn above the matrix")
	cmd.Flags().StringVar(&opts.Color, "color", "", "cell fill color, e.g. #4a90d9")
	cmd.Flags().BoolVar(&opts.NoLabels, "no-labels", false, "omit instance and container names")

	return cmd
}

func (c *CLI) runLayout(ctx context.Context, input, tracePath, output string, noCache, summary bool, flags pipeline.Options) error {
	d, err := loadDocument(input)
	if err != nil {
		return err
	}
	opts, err := c.mergeFlags(flags)
	if err != nil {
		return err
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, noCache, tracePath == "")
	if err != nil {
		return err
	}
	defer runner.Close()

	var trace layout.Trace
	if tracePath != "" {
		f, err := os.Open(tracePath)
		if err != nil {
			return err
		}
		sol, err := layout.ReadSolution(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("read %s: %w", tracePath, err)
		}
		trace = sol.FullTrace
	} else {
		spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Solving with %s...", opts.Algorithm))
		spinner.Start()
		sol, hit, err := runner.SolveWithCacheInfo(ctx, d, opts)
		if err != nil {
			spinner.StopWithError("Solve failed")
			return err
		}
		spinner.Stop()
		loggerFromContext(ctx).Debug("solved", "entries", len(sol.FullTrace.Resource), "cached", hit)
		trace = sol.FullTrace
	}

	l, layoutHit, err := runner.LayoutWithCacheInfo(ctx, d, trace, opts)
	if err != nil {
		return err
	}
	artifacts, _, err := runner.RenderWithCacheInfo(ctx, l, opts)
	if err != nil {
		return err
	}
	paths, err := writeArtifacts(basePath(output, input), opts.Formats, artifacts)
	if err != nil {
		return err
	}

	printSuccess("Layout complete")
	for _, p := range paths {
		printFile(p)
	}
	printLayoutStats(l, layoutHit)
	if summary {
		printNewline()
		fmt.Println(layoutTable(l))
	}
	return nil
}

// mergeFlags fills unset flags from the config file.
func (c *CLI) mergeFlags(flags pipeline.Options) (pipeline.Options, error) {
	opts, err := c.pipelineDefaults()
	if err != nil {
		return pipeline.Options{}, err
	}
	if flags.Algorithm != "" {
		opts.Algorithm = flags.Algorithm
	}
	if flags.WidthFunc != "" {
		opts.WidthFunc = strings.ToLower(flags.WidthFunc)
	}
	if flags.FrameWidth != 0 {
		opts.FrameWidth = flags.FrameWidth
	}
	opts.Refresh = flags.Refresh
	opts.ContainerWidth = flags.ContainerWidth
	opts.ContainerHeight = flags.ContainerHeight
	opts.Formats = flags.Formats
	opts.Title = flags.Title
	opts.Detailed = flags.Detailed
	opts.Color = flags.Color
	opts.NoLabels = flags.NoLabels
	return opts, nil
}
