package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	apperr "github.com/dm3k/dm3k/pkg/errors"
	"github.com/dm3k/dm3k/pkg/store"
)

// storeCommand creates the document store command.
func (c *CLI) storeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Keep documents in the configured document store",
		Long: `Keep documents in the configured document store.

The backend (file, redis, mongo, s3 or memory) is chosen in the [store] section
of the config file. Records are addressed by the ID returned from 'put'.`,
	}

	cmd.AddCommand(c.storePutCommand())
	cmd.AddCommand(c.storeGetCommand())
	cmd.AddCommand(c.storeListCommand())
	cmd.AddCommand(c.storeDeleteCommand())

	return cmd
}

// storePutCommand creates the "store put" subcommand.
func (c *CLI) storePutCommand() *cobra.Command {
	var name, id string

	cmd := &cobra.Command{
		Use:   "put [document]",
		Short: "Store a document and print its ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runStorePut(cmd.Context(), args[0], name, id)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name (default: file name without extension)")
	cmd.Flags().StringVar(&id, "id", "", "replace the record with this ID")

	return cmd
}

func (c *CLI) runStorePut(ctx context.Context, input, name, id string) error {
	d, err := loadDocument(input)
	if err != nil {
		return err
	}
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	}
	if err := apperr.ValidateName(name); err != nil {
		return err
	}

	st, err := c.newStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	id, err = st.Put(ctx, store.Record{ID: id, Name: name, Document: d})
	if err != nil {
		return err
	}
	printSuccess("Stored %s", name)
	printKeyValue("ID", id)
	return nil
}

// storeGetCommand creates the "store get" subcommand.
func (c *CLI) storeGetCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Write a stored document",
		Long: `Write a stored document to --output, or to stdout as JSON.

The output encoding follows the extension of --output, like 'dm3k convert'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.newStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			rec, err := st.Get(ctx, args[0])
			if err != nil {
				return err
			}
			if err := writeDocument(rec.Document, output); err != nil {
				return err
			}
			if output != "" {
				printSuccess("Fetched %s", rec.Name)
				printFile(output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")

	return cmd
}

// storeListCommand creates the "store list" subcommand.
func (c *CLI) storeListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored documents, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.newStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			summaries, err := st.List(ctx)
			if err != nil {
				return err
			}
			if len(summaries) == 0 {
				printInfo("No stored documents")
				return nil
			}
			fmt.Println(summaryTable(summaries))
			return nil
		},
	}
}

// storeDeleteCommand creates the "store delete" subcommand.
func (c *CLI) storeDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a stored document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.newStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Delete(ctx, args[0]); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					printWarning("No document with ID %s", args[0])
				}
				return err
			}
			printSuccess("Deleted %s", args[0])
			return nil
		},
	}
}

func summaryTable(summaries []store.Summary) string {
	rows := make([][]string, len(summaries))
	for i, s := range summaries {
		rows[i] = []string{s.ID, s.Name, s.UpdatedAt.Local().Format(time.DateTime)}
	}
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Name", "Updated").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 0:
				return StyleDim
			}
			return StyleValue
		}).
		Render()
}
