package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tutils/tdice/rng"
)

// rollCmd represents the roll command
var rollCmd = &cobra.Command{
	Use:   "roll",
	Short: "Roll dice",
	Long: `Roll pairs of dice and show the seed and usage counter, For example:
  tdice roll -n 10 --rng=md5 --seed=1
  tdice roll --rng=random.org`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dc, err := newContext()
		if err != nil {
			return err
		}
		defer dc.Close()

		out := cmd.OutOrStdout()
		for i := 0; i < rollCount; i++ {
			r, err := dc.Roll()
			if err != nil {
				return err
			}
			fmt.Fprintln(out, r)
		}

		s, err := dc.SeedDisplay()
		switch {
		case err == nil:
			fmt.Fprintln(out, s)
		case errors.Is(err, rng.ErrSeedUnavailable):
			fmt.Fprintln(out, "Cannot show the seed with this generator.")
		default:
			return err
		}
		fmt.Fprintln(out, dc.CounterDisplay())
		return nil
	},
}

var (
	rollCount int
)

func init() {
	rootCmd.AddCommand(rollCmd)

	flags := rollCmd.Flags()
	flags.IntVarP(&rollCount, "count", "n", 1, "number of rolls")
}
