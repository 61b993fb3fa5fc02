package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tutils/tdice/counter/period"
	"github.com/tutils/tdice/dice"
)

// benchCmd represents the bench command
var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Measure dice throughput",
	Long: `Roll on independent copies of the generator, one per worker, For example:
  tdice bench -n 1000000 -w 4 --rng=isaac`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if benchWorkers < 1 {
			return fmt.Errorf("workers must be positive, got %d", benchWorkers)
		}
		base, err := newContext()
		if err != nil {
			return err
		}
		defer base.Close()

		workers := make([]*dice.Context, benchWorkers)
		for i := range workers {
			if workers[i], err = base.Clone(); err != nil {
				return err
			}
			defer workers[i].Close()
		}

		used := period.NewPeriodCounter(100 * time.Millisecond)
		start := time.Now()
		var g errgroup.Group
		for i, dc := range workers {
			n := benchRolls / benchWorkers
			if i < benchRolls%benchWorkers {
				n++
			}
			dc, n := dc, n
			g.Go(func() error {
				for j := 0; j < n; j++ {
					if _, err := dc.Roll(); err != nil {
						return err
					}
					used.Add(2)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		elapsed := time.Since(start)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%d dice from %s on %d workers in %v\n", used.Value(), base.Kind(), benchWorkers, elapsed)
		fmt.Fprintf(out, "%.0f dice/sec overall, %d dice/sec last sample\n",
			float64(used.Value())/elapsed.Seconds(), used.RatePerSec())
		return nil
	},
}

var (
	benchRolls   int
	benchWorkers int
)

func init() {
	rootCmd.AddCommand(benchCmd)

	flags := benchCmd.Flags()
	flags.IntVarP(&benchRolls, "count", "n", 100000, "total number of rolls")
	flags.IntVarP(&benchWorkers, "workers", "w", 4, "number of workers")
}
