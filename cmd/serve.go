package cmd

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/liftlog/internal/metrics"
	"github.com/derickschaefer/liftlog/internal/server"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the log and prepared series as a JSON API",
	Long: `Starts an HTTP server exposing the log for a chart front end:

  GET    /api/series?window=30d&exercise=Squat&field=e1rm&narrow=1&unit=kg
  GET    /api/logs?from=2024-01-01&to=2024-03-31
  GET    /api/logs/{date}     PUT /api/logs/{date}     DELETE /api/logs/{date}
  GET    /api/exercises
  GET    /api/goals           PUT /api/goals
  POST   /api/insight?window=30d&exercise=Squat
  GET    /healthz
  GET    /metrics             Prometheus metrics

Weights are exchanged in ?unit= (default from config). Prepared series are
memoized in memory (cache_mb, cache_ttl). The server stops on SIGINT or
SIGTERM.`,
	Example: `  liftlog serve
  liftlog serve --listen 127.0.0.1:9000 --unit kg`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := openDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		loc, err := deps.Config.Location()
		if err != nil {
			return err
		}
		var analyzer server.Analyzer
		if err := deps.Config.ValidateInsight(); err == nil {
			analyzer = deps.Insight
		} else {
			slog.Warn("analysis backend not configured; /api/insight will answer 503")
		}

		addr := deps.Config.Listen
		if serveListen != "" {
			addr = serveListen
		}
		srv := server.New(deps.Store, deps.EnableMemo(), analyzer, server.Options{
			User:     deps.Config.User,
			Unit:     deps.Config.Unit,
			Location: loc,
			Narrow:   deps.Config.Narrow,
			Registry: metrics.NewRegistry(),
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if !globalFlags.Debug {
			// Request logs are Info; the CLI default handler only shows warnings.
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil)))
		}
		say(cmd, "liftlog api on %s  (user %s, db %s)", addr, deps.Config.User, deps.Store.Path())
		return srv.ListenAndServe(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (default: config listen, :8080)")
}
