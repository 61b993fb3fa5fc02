package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed from system entropy",
	Long: `Seed the generator from system entropy and show the seed, For example:
  tdice seed --rng=isaac
  tdice seed --rng=mersenne --entropy-device=/dev/random`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dc, err := newContext()
		if err != nil {
			return err
		}
		defer dc.Close()

		s, err := dc.SeedSystem()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if s.Secure {
			fmt.Fprintln(out, "Seeded from the system entropy source.")
		} else {
			fmt.Fprintln(out, "System entropy unavailable, seeded from the clock.")
		}
		d, err := dc.SeedDisplay()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, d)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
