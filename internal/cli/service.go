package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"stock-forecaster/internal/api"
	"stock-forecaster/internal/models"
	"stock-forecaster/internal/notify"
	"stock-forecaster/internal/scheduler"
	"stock-forecaster/internal/security"
	"stock-forecaster/internal/stream"
)

// addServiceCommands adds long-running commands.
func addServiceCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newServeCmd(app))
	rootCmd.AddCommand(newWatchCmd(app))
}

func newServeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			listen, _ := cmd.Flags().GetString("listen")
			if listen == "" {
				listen = app.Config.Server.Listen
			}

			ctx := cmd.Context()
			srv := api.NewServer(app.Service, listen, app.Config.Server.ShutdownTimeout, app.Logger)
			srv.WatchBreakers(app.Providers.Breakers...)

			if watch, _ := cmd.Flags().GetBool("watch"); watch {
				symbols, err := watchSymbols(nil, app.Config.Watch.Symbols)
				if err != nil {
					return err
				}

				hub := stream.NewHub(app.Logger)
				hub.Start(ctx)
				defer hub.Stop()
				srv.StreamFrom(hub)

				publish := func(symbol string, set models.PredictionSet) { hub.Publish(symbol, set) }
				s := scheduler.NewScheduler(ctx, app.Service, symbols, scheduler.Tee(publish, webhookSink(ctx, app)), app.Logger)
				if err := s.Register(app.Config.Watch.Cron); err != nil {
					return err
				}
				s.Start()
				defer s.Stop()
			}

			return srv.Run(ctx)
		},
	}

	cmd.Flags().String("listen", "", "listen address (default from config)")
	cmd.Flags().Bool("watch", false, "also forecast the watchlist on schedule and stream results on /api/stream")
	return cmd
}

// watchSymbols validates args, falling back to defaults when args is empty.
func watchSymbols(args, defaults []string) ([]string, error) {
	source := args
	if len(source) == 0 {
		source = defaults
	}
	symbols := make([]string, 0, len(source))
	for _, raw := range source {
		symbol, err := security.ValidateSymbol(raw)
		if err != nil {
			return nil, err
		}
		symbols = append(symbols, symbol)
	}
	return symbols, nil
}

func webhookSink(ctx context.Context, app *App) scheduler.Sink {
	hook := notify.NewWebhook(app.Config.Watch, app.Logger)
	if hook == nil {
		return nil
	}
	return hook.Sink(ctx)
}

func newWatchCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [symbols...]",
		Short: "Forecast a watchlist on a cron schedule",
		Long: `Forecast every watchlist symbol on the configured cron schedule.

Symbols default to watch.symbols from the configuration. The schedule is a
six-field cron expression with seconds first.`,
		Example: `  forecaster watch
  forecaster watch AAPL MSFT --cron "0 0 * * * *"
  forecaster watch --once`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			once, _ := cmd.Flags().GetBool("once")
			spec, _ := cmd.Flags().GetString("cron")
			if spec == "" {
				spec = app.Config.Watch.Cron
			}

			symbols, err := watchSymbols(args, app.Config.Watch.Symbols)
			if err != nil {
				return err
			}

			printLine := func(symbol string, set models.PredictionSet) {
				if output.IsJSON() {
					_ = output.JSON(set)
					return
				}
				if n := len(set.Predictions); n > 0 {
					first, last := set.Predictions[0], set.Predictions[n-1]
					output.Printf("%s  %s  day 1 %.2f (%s)  day %d %.2f (%s)\n",
						time.Now().Format("15:04:05"), symbol,
						first.Price, confidenceBar(first.Confidence),
						last.DayOffset, last.Price, confidenceBar(last.Confidence))
				}
			}

			sink := scheduler.Tee(printLine, webhookSink(cmd.Context(), app))
			s := scheduler.NewScheduler(cmd.Context(), app.Service, symbols, sink, app.Logger)
			if once {
				run := s.RunNow()
				if run.Failures > 0 && run.Forecasts == 0 {
					output.Error("All %d forecasts failed", run.Failures)
				}
				return nil
			}

			if err := s.Register(spec); err != nil {
				return err
			}
			s.Start()
			output.Info("Watching %v on %q, next run %s", symbols, spec, s.Next().Format(time.RFC3339))

			<-cmd.Context().Done()
			s.Stop()
			return nil
		},
	}

	cmd.Flags().Bool("once", false, "run once and exit")
	cmd.Flags().String("cron", "", "cron schedule (default from config)")
	return cmd
}
