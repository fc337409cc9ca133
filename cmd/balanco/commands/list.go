package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DrSkyle/balanco/pkg/columnar"
	"github.com/DrSkyle/balanco/pkg/config"
)

var listDetails bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List consolidated files under the output prefix",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		if store == nil {
			return config.ErrNoSink
		}

		keys, err := store.List(ctx, cfg.OutputPrefix)
		if err != nil {
			return err
		}
		if len(keys) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No files under %s (%s)\n", cfg.OutputPrefix, store.Describe())
			return nil
		}

		fmt.Fprintln(cmd.OutOrStdout(), titleStyle.Render(store.Describe()))
		for _, k := range keys {
			if !listDetails {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", k)
				continue
			}
			data, err := store.Get(ctx, k)
			if err != nil {
				return err
			}
			info, err := columnar.Inspect(data)
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s  %s\n", k, failStyle.Render(err.Error()))
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %s  %d rows, %d columns (%s)\n", k, info.Rows, len(info.Columns), strings.Join(info.Codecs, ","))
		}
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVar(&listDetails, "details", false, "Read each file footer and print row and column counts")
}
