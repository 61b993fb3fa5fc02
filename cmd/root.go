package cmd

import (
	"fmt"
	"math/big"
	"os"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/tutils/tdice/dice"
	"github.com/tutils/tdice/remote"
	"github.com/tutils/tdice/rng"
	"github.com/tutils/tdice/rng/bbs"
	"github.com/tutils/tdice/rng/netrand"
)

var (
	cfgFile string

	logger = zap.NewNop()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tdice",
	Short: "Dice generator.",
	Long: `Dice generator with interchangeable random number generators.
Roll, seed or serve dice from a chosen generator, For example:
  tdice roll -n 5 --rng=mersenne --seed=42
  tdice roll --rng=bbs --seed=123456789
  tdice roll --rng=file --file=./rolls.txt
  tdice serve --listen=ws://0.0.0.0:8080/dice --rng=isaac`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLogger(viper.GetBool("verbose"))
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.tdice.yaml)")
	flags.String("rng", rng.KindDefault.String(), "random number generator, see 'tdice kinds'")
	flags.String("seed", "", "seed, a non-negative decimal integer of any size (default from system entropy)")
	flags.String("file", "", "dice file for the file generator")
	flags.String("modulus", "", "modulus for the bbs generator")
	flags.String("factors", "", "two Blum factors p,q for the bbs generator")
	flags.String("url", "", "dice service for the random.org generator, http(s) for random.org or ws(s) for a tdice server")
	flags.String("entropy-device", "", "read system seeds from this device instead of the OS generator")
	flags.BoolP("verbose", "v", false, "development logging")
	for _, name := range []string{"rng", "seed", "file", "modulus", "factors", "url", "entropy-device", "verbose"} {
		viper.BindPFlag(name, flags.Lookup(name))
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		// Search config in home directory with name ".tdice" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".tdice")
	}

	viper.SetEnvPrefix("tdice")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

func parseFactors(s string) (p, q *big.Int, err error) {
	ps, qs, ok := strings.Cut(s, ",")
	if !ok {
		return nil, nil, fmt.Errorf("%w: want p,q, got %q", bbs.ErrInvalidFactor, s)
	}
	p, ok = new(big.Int).SetString(strings.TrimSpace(ps), 10)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", bbs.ErrInvalidFactor, ps)
	}
	q, ok = new(big.Int).SetString(strings.TrimSpace(qs), 10)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", bbs.ErrInvalidFactor, qs)
	}
	return p, q, nil
}

func newFetcher(u string) netrand.Fetcher {
	if strings.HasPrefix(u, "ws://") || strings.HasPrefix(u, "wss://") {
		return remote.NewClient(
			remote.WithConnectAddress(u),
			remote.WithClientLogger(logger),
		)
	}
	return netrand.NewRandomOrg(u, netrand.WithLogger(logger))
}

// contextOptions maps the configuration onto dice options.
func contextOptions() ([]dice.Option, error) {
	opts := []dice.Option{dice.WithLogger(logger)}
	if dev := viper.GetString("entropy-device"); dev != "" {
		opts = append(opts, dice.WithEntropyDevice(dev))
	}
	if f := viper.GetString("file"); f != "" {
		opts = append(opts, dice.WithReplayFile(f))
	}
	if s := viper.GetString("modulus"); s != "" {
		m, err := bbs.ParseModulus(s)
		if err != nil {
			return nil, err
		}
		opts = append(opts, dice.WithModulus(m))
	}
	if s := viper.GetString("factors"); s != "" {
		p, q, err := parseFactors(s)
		if err != nil {
			return nil, err
		}
		opts = append(opts, dice.WithFactors(p, q))
	}
	if u := viper.GetString("url"); u != "" {
		opts = append(opts, dice.WithFetcher(newFetcher(u)))
	}
	return opts, nil
}

// newSystemContext builds a dice context from the configuration. Seedable
// generators start from system entropy.
func newSystemContext() (*dice.Context, error) {
	kind, err := rng.ParseKind(viper.GetString("rng"))
	if err != nil {
		return nil, err
	}
	opts, err := contextOptions()
	if err != nil {
		return nil, err
	}
	return dice.New(kind, opts...)
}

// newContext builds a dice context from the configuration and applies the
// configured seed.
func newContext() (*dice.Context, error) {
	dc, err := newSystemContext()
	if err != nil {
		return nil, err
	}
	if s := viper.GetString("seed"); s != "" {
		if err := dc.SeedText(s); err != nil {
			dc.Close()
			return nil, err
		}
	}
	return dc, nil
}
