package main

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"hublink/internal/message"
	"hublink/internal/schema"
)

func newSchemasCommand(ctx *commandContext) *cobra.Command {
	var missingOnly bool

	cmd := &cobra.Command{
		Use:   "schemas",
		Short: "List message types and their schema catalogue coverage",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger(cfg)
			if err != nil {
				return err
			}

			catalogue, err := schema.NewCatalogue(schema.NewDirStore(cfg.SchemaDir), logger)
			if err != nil {
				return fmt.Errorf("load schema catalogue: %w", err)
			}

			rows := make([]schemaRow, 0, len(message.Types()))
			for _, t := range message.Types() {
				covered := catalogue.Has(t)
				if missingOnly && covered {
					continue
				}
				rows = append(rows, schemaRow{
					code:    int(t),
					name:    t.String(),
					label:   humanizeTypeName(t.String()),
					covered: covered,
				})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderSchemaTable(rows))
			fmt.Fprintf(cmd.OutOrStdout(), "%d schema documents loaded from %s\n", catalogue.Len(), cfg.SchemaDir)
			return nil
		},
	}

	cmd.Flags().BoolVar(&missingOnly, "missing", false, "Only show message types without a schema document")

	return cmd
}

// schemaRow is one line of the coverage table.
type schemaRow struct {
	code    int
	name    string
	label   string
	covered bool
}

// renderSchemaTable draws the coverage table: numeric code right aligned,
// catalogue status in the last column.
func renderSchemaTable(rows []schemaRow) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Header = text.FormatDefault
	tw.AppendHeader(table.Row{"Code", "Type", "Label", "Schema"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	for _, row := range rows {
		status := "missing"
		if row.covered {
			status = "ok"
		}
		tw.AppendRow(table.Row{row.code, row.name, row.label, status})
	}

	return tw.Render()
}

// humanizeTypeName turns a camelCase wire name into a title-cased label,
// e.g. "devicePropertyChangedNotification" into "Device Property Changed
// Notification".
func humanizeTypeName(name string) string {
	var b strings.Builder
	for i, r := range name {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}
	return cases.Title(language.Und).String(b.String())
}
