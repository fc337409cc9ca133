package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DrSkyle/balanco/pkg/columnar"
	"github.com/DrSkyle/balanco/pkg/config"
)

var showRows int

var showCmd = &cobra.Command{
	Use:   "show <key>",
	Short: "Print the first rows of a consolidated file",
	Long: `Reads a file written by consolidate back from the configured sink and
prints its first rows. Keys are the ones printed by list.

Example:
  balanco show bndes-data/2024/03/05/balanco_patrimonial_2023_consolidado.parquet`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		if store == nil {
			return config.ErrNoSink
		}

		data, err := store.Get(ctx, args[0])
		if err != nil {
			return err
		}
		t, err := columnar.Decode(data)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), renderTable(t.Head(showRows)))
		fmt.Fprintf(cmd.OutOrStdout(), "\n[%d rows x %d columns]\n", t.Len(), len(t.Columns))
		return nil
	},
}

func init() {
	showCmd.Flags().IntVar(&showRows, "rows", 5, "Rows to print")
}
