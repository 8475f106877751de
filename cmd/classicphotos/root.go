package main

import "github.com/spf13/cobra"

func newRootCommand() *cobra.Command {
	var configFlag string
	ctx := newCommandContext(&configFlag)

	root := &cobra.Command{
		Use:   "classicphotos",
		Short: "Download a photo catalog and sepia-filter the visible rows",
		Long: "classicphotos loads a name -> URL photo catalog, then scrolls a viewport across it,\n" +
			"downloading and filtering only the rows on screen.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
	}
	root.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	root.AddCommand(newRunCommand(ctx), newCatalogCommand(ctx), newConfigCommand(ctx))
	return root
}
