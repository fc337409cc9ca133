package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/DrSkyle/balanco/pkg/numeric"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize <value>...",
	Short: "Normalize Portuguese numeric text",
	Long: `Prints the number each argument normalizes to.

Example:
  balanco normalize "1,5 milhões" "300 mil" 42`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		failed := 0
		for _, arg := range args {
			v, err := numeric.Normalize(arg)
			if err != nil {
				failed++
				fmt.Fprintf(cmd.OutOrStdout(), "%s %q: %v\n", failStyle.Render("✗"), arg, err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %q → %s\n", okStyle.Render("✓"), arg, strconv.FormatFloat(v, 'f', -1, 64))
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d values could not be normalized", failed, len(args))
		}
		return nil
	},
}
