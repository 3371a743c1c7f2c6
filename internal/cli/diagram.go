package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dm3k/dm3k/pkg/pipeline"
)

// diagramCommand creates the diagram command.
func (c *CLI) diagramCommand() *cobra.Command {
	var (
		output     string
		formatsStr string
		noCache    bool
		detailed   bool
	)

	cmd := &cobra.Command{
		Use:   "diagram [document]",
		Short: "Draw the problem diagram of a document",
		Long: `Draw the problem diagram of a document.

Resource and activity classes become nodes; contains links, allocations and
constraints become edges. The diagram is laid out by Graphviz and written to
<output>.<format> for each of --format (dot, svg, png, pdf).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.pipelineDefaults()
			if err != nil {
				return err
			}
			opts.Formats = parseFormats(formatsStr)
			opts.Detailed = detailed
			return c.runDiagram(cmd.Context(), args[0], output, noCache, opts)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output base path (default: <input>)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, png, pdf (comma-separated)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "list budgets, costs and rewards in node labels")

	return cmd
}

func (c *CLI) runDiagram(ctx context.Context, input, output string, noCache bool, opts pipeline.Options) error {
	prog := newProgress(loggerFromContext(ctx))

	d, err := loadDocument(input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, noCache, false)
	if err != nil {
		return err
	}
	defer runner.Close()

	artifacts, cached, err := runner.DiagramWithCacheInfo(ctx, d, opts)
	if err != nil {
		return err
	}
	paths, err := writeArtifacts(basePath(output, input), opts.Formats, artifacts)
	if err != nil {
		return err
	}
	prog.done("Drew " + input)

	printSuccess("Diagram complete")
	for _, p := range paths {
		printFile(p)
	}
	printStats([]string{plural(len(paths), "file", "files")}, cacheStatus(cached))
	return nil
}
