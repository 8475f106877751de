package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"classicphotos/internal/catalog"
	"classicphotos/internal/fetch"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	var catalogFlag string

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the photos in the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, closeLog, err := ctx.newLogger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer func() { _ = closeLog() }()
			location := cfg.Catalog.Path
			if strings.TrimSpace(catalogFlag) != "" {
				location = catalogFlag
			}

			cat, err := catalog.Load(cmd.Context(), location, fetch.NewFromConfig(cfg), logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			rows := make([][]string, 0, cat.Len())
			for key, record := range cat.Records {
				rows = append(rows, []string{strconv.Itoa(key), record.Name, record.Source.String()})
			}
			fmt.Fprintln(out, renderTable(
				[]column{{title: "#", numeric: true}, {title: "Name"}, {title: "Source"}},
				rows,
			))
			for _, entry := range cat.Skipped {
				fmt.Fprintln(out, renderStatusLine(entry.Name, toneWarn, "skipped: unparseable locator: "+strconv.Quote(entry.Source), colorize))
			}
			fmt.Fprintln(out, renderStatusLine("Photos", toneInfo, strconv.Itoa(cat.Len()), colorize))
			return nil
		},
	}
	cmd.Flags().StringVar(&catalogFlag, "catalog", "", "Catalog path or URL (overrides config)")
	return cmd
}
