package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dm3k/dm3k/pkg/document"
	apperr "github.com/dm3k/dm3k/pkg/errors"
	"github.com/dm3k/dm3k/pkg/model"
)

// validateCommand creates the validate command.
func (c *CLI) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [document]",
		Short: "Check a problem document",
		Long: `Check a problem document.

The document's structure and class references are checked first, then it is
imported into a fresh model so that budget, containment and allocation rules
are enforced as well. Export wrappers are accepted; "-" reads JSON from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runValidate(cmd.Context(), args[0])
		},
	}
}

func (c *CLI) runValidate(ctx context.Context, input string) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	d, err := loadDocument(input)
	if err != nil {
		return err
	}
	if err := document.Validate(d); err != nil {
		printError("%s is not valid", input)
		return err
	}
	m := model.New()
	if err := document.Import(m, d, document.WithLogger(logger)); err != nil {
		printError("%s does not import", input)
		return err
	}
	prog.done("Validated " + input)

	printSuccess("%s is valid", input)
	printModelStats(m)
	return nil
}

// convertCommand creates the convert command.
func (c *CLI) convertCommand() *cobra.Command {
	var (
		output  string
		dataset string
	)

	cmd := &cobra.Command{
		Use:   "convert [document]",
		Short: "Convert a document between JSON and YAML or in and out of the export wrapper",
		Long: `Convert a document between JSON and YAML, or in and out of the export wrapper.

The output encoding follows the extension of --output (.yaml/.yml for YAML,
anything else JSON). Without --output the document is written to stdout as
JSON. --dataset wraps the document in the export envelope; otherwise wrapped
input is unwrapped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDocument(args[0])
			if err != nil {
				return err
			}
			var out any = d
			if dataset != "" {
				if err := apperr.ValidateName(dataset); err != nil {
					return err
				}
				out = document.Wrap(dataset, d)
			}
			return writeDocument(out, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&dataset, "dataset", "", "wrap the output in an export envelope with this dataset name")

	return cmd
}

// roundTripCommand creates the roundtrip command.
func (c *CLI) roundTripCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "roundtrip [document]",
		Short: "Import a document into a model and export it again",
		Long: `Import a document into a model and export it again.

The exported document is the canonical form of the input: default instance
rows are filled in and every class, link and constraint appears in model
order. The command reports whether the canonical form differs from the input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRoundTrip(cmd.Context(), args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")

	return cmd
}

func (c *CLI) runRoundTrip(ctx context.Context, input, output string) error {
	logger := loggerFromContext(ctx)

	d, err := loadDocument(input)
	if err != nil {
		return err
	}
	m := model.New()
	if err := document.Import(m, d, document.WithLogger(logger)); err != nil {
		return err
	}
	out := document.Export(m)

	before, err := document.Hash(d)
	if err != nil {
		return err
	}
	after, err := document.Hash(out)
	if err != nil {
		return err
	}
	logger.Debug("round trip", "input_hash", before, "output_hash", after)

	if err := writeDocument(out, output); err != nil {
		return err
	}
	if output == "" {
		return nil
	}
	if before == after {
		printSuccess("Round trip is stable")
	} else {
		printWarning("Canonical form differs from the input")
	}
	printFile(output)
	return nil
}

// writeDocument writes a document or wrapper to path, or to stdout as
// JSON when path is empty.
func writeDocument(v any, path string) error {
	if path == "" {
		return document.Write(v, os.Stdout)
	}
	if err := document.WriteFile(v, path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
