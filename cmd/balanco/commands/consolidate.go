package commands

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

var consolidateYear string

var consolidateCmd = &cobra.Command{
	Use:   "consolidate [year]",
	Short: "Consolidate every resource of a year into one Parquet file",
	Long: `Fetches the balance-sheet resources whose name contains the year,
cleans and converts them, and writes the result to the configured sink.

The response body is printed as JSON. The exit code is non-zero when the
status is not 200.

Example:
  LOCAL_OUTPUT_DIR=./out balanco consolidate 2023
  S3_BUCKET_NAME=my-bucket balanco consolidate --year 2023 --strict`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var year any
		switch {
		case len(args) == 1:
			year = args[0]
		case consolidateYear != "":
			year = consolidateYear
		}

		h, err := newHandler(cmd.Context())
		if err != nil {
			return err
		}

		resp := h.Consolidate(cmd.Context(), year)
		fmt.Fprintln(cmd.OutOrStdout(), resp.Body)
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("consolidation finished with status %d", resp.StatusCode)
		}
		return nil
	},
}

func init() {
	consolidateCmd.Flags().StringVar(&consolidateYear, "year", "", "Year to consolidate")
}
