package commands

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/DrSkyle/balanco/pkg/numeric"
	"github.com/DrSkyle/balanco/pkg/table"
)

const (
	legacyResourceID = "165243b3-e57b-47e6-bd79-65d12ead7c02"
	legacyLimit      = 5_000_000
)

var (
	fetchResourceID string
	fetchLimit      int
	fetchRows       int
	fetchColumn     string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch one datastore resource and print its head",
	Long: `Downloads a single datastore resource, converts its value column with
the numeric normalizer and prints the first rows. Floats are shown with two
decimals.

Example:
  balanco fetch --rows 10
  balanco fetch --resource-id <id> --column valor`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newCKANClient()

		result, err := client.DatastoreSearch(cmd.Context(), fetchResourceID, fetchLimit)
		if err != nil {
			return fmt.Errorf("error fetching data: %w", err)
		}
		t := result.Table()
		logger.Info("Data fetched successfully", "resource_id", fetchResourceID, "records", t.Len())
		if t.Empty() {
			fmt.Fprintln(cmd.OutOrStdout(), "No records.")
			return nil
		}

		bad, err := numeric.ConvertColumn(t, fetchColumn, cfg.Policy())
		if err != nil {
			return err
		}
		for _, c := range bad {
			logger.Warn("Unparseable numeric cell set to null", "row", c.Row, "value", c.Value, "error", c.Err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), renderTable(t.Head(fetchRows)))
		fmt.Fprintf(cmd.OutOrStdout(), "\n[%d rows x %d columns]\n", t.Len(), len(t.Columns))
		return nil
	},
}

func init() {
	fetchCmd.Flags().StringVar(&fetchResourceID, "resource-id", legacyResourceID, "Datastore resource id")
	fetchCmd.Flags().IntVar(&fetchLimit, "limit", legacyLimit, "Maximum records to request")
	fetchCmd.Flags().IntVar(&fetchRows, "rows", 5, "Rows to print")
	fetchCmd.Flags().StringVar(&fetchColumn, "column", "quantidade_ou_valor", "Column to convert")
}

func renderTable(t *table.Table) string {
	rows := make([][]string, 0, t.Len())
	for _, r := range t.Rows {
		row := make([]string, len(t.Columns))
		for i, col := range t.Columns {
			row[i] = formatCell(r[col])
		}
		rows = append(rows, row)
	}
	return lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(flagStyle).
		Headers(t.Columns...).
		Rows(rows...).
		Render()
}

func formatCell(v any) string {
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'f', 2, 64)
	}
	return table.Text(v)
}
