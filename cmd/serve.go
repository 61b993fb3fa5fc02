package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/tutils/tdice/remote"
	"github.com/tutils/tdice/rng"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve dice over websocket",
	Long: `Start a dice server. Every connection rolls on its own generator, For example:
  tdice serve --listen=ws://0.0.0.0:8080/dice --rng=isaac
  tdice roll --rng=random.org --url=ws://127.0.0.1:8080/dice`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		newConn, kind, err := serveContextFactory()
		if err != nil {
			return err
		}

		s, err := remote.NewServer(
			remote.WithListenAddress(viper.GetString("listen")),
			remote.WithContextFactory(newConn),
			remote.WithServerLogger(logger),
		)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			s.Shutdown(shutdownCtx)
		}()

		logger.Info("dice server listening", zap.String("addr", s.Addr()), zap.Stringer("rng", kind))
		if err := s.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

var errServeSeed = errors.New("serve: connections are seeded from system entropy, --seed is not allowed")

// serveContextFactory checks the configuration once and returns the
// per-connection context factory.
func serveContextFactory() (remote.ContextFactory, rng.Kind, error) {
	if viper.GetString("seed") != "" {
		return nil, rng.KindDefault, errServeSeed
	}
	dc, err := newSystemContext()
	if err != nil {
		return nil, rng.KindDefault, err
	}
	kind := dc.Kind()
	dc.Close()
	return newSystemContext, kind, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)

	flags := serveCmd.Flags()
	flags.StringP("listen", "l", remote.DefaultListenAddress, "websocket listen address")
	viper.BindPFlag("listen", flags.Lookup("listen"))
}
