// Package cli provides the command-line interface for the forecaster.
package cli

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"stock-forecaster/internal/analysis/regression"
	"stock-forecaster/internal/config"
	"stock-forecaster/internal/forecast"
	"stock-forecaster/internal/logging"
	"stock-forecaster/internal/predictor"
	"stock-forecaster/internal/provider"
	"stock-forecaster/internal/security"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2024-01-01"
)

// App holds the application dependencies.
type App struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Providers *provider.Stack
	Service   *predictor.Service
}

// NewApp wires the providers, engine and service described by cfg.
func NewApp(cfg *config.Config, logger zerolog.Logger) (*App, error) {
	method, err := forecast.ParseMethod(cfg.Forecast.Method)
	if err != nil {
		return nil, err
	}

	seed := cfg.Forecast.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	stack, err := provider.Build(cfg.Providers, cfg.Credentials.Feed, seed, logger)
	if err != nil {
		return nil, err
	}

	engine := forecast.NewEngine(method, regression.NewSource(seed), logger)
	svc := predictor.NewService(engine, stack.Provider, stack.Searcher, predictor.Options{
		LookbackDays: cfg.Forecast.LookbackDays,
		NewsLimit:    cfg.Forecast.NewsLimit,
		Timeout:      cfg.Forecast.Timeout,
	}, logger)

	logger.Debug().
		Str("method", string(method)).
		Int64("seed", seed).
		Str("providers", stack.Name()).
		Msg("Forecaster initialized")

	return &App{Config: cfg, Logger: logger, Providers: stack, Service: svc}, nil
}

// NewLogger builds the application logger from cfg.
func NewLogger(cfg config.LoggingConfig) zerolog.Logger {
	logCfg := logging.DefaultLogConfig()
	logCfg.Level = cfg.Level
	logCfg.Console = cfg.Console
	logCfg.File = cfg.File
	if cfg.FilePath != "" {
		logCfg.FilePath = cfg.FilePath
	}
	if cfg.MaxSize > 0 {
		logCfg.MaxSize = cfg.MaxSize
	}
	if cfg.MaxBackups > 0 {
		logCfg.MaxBackups = cfg.MaxBackups
	}
	if cfg.MaxAge > 0 {
		logCfg.MaxAge = cfg.MaxAge
	}
	return logging.NewLoggerWithConfig(logCfg)
}

// NewRootCmd creates the root command for the CLI. Configuration is loaded
// before any subcommand runs, from the directory given by --config.
func NewRootCmd() *cobra.Command {
	app := &App{Logger: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:   "forecaster",
		Short: "Stock Forecaster - 7-day price forecasts from indicators, news and statistical models",
		Long: `Stock Forecaster produces deterministic 7-day price forecasts for US and
Indian equities. It blends technical indicators, lexicon-based news
sentiment and a small bank of statistical models.

Market data comes from an upstream HTTP feed and RSS news when configured,
and from a seeded synthetic generator otherwise.

Use 'forecaster <command> --help' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(configDir)
			if err != nil {
				return err
			}

			logger := NewLogger(cfg.Logging)
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				logging.SetDebugLevel()
				logger = logger.Level(zerolog.DebugLevel)
			}

			wired, err := NewApp(cfg, logger)
			if err != nil {
				return err
			}
			*app = *wired
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/stock-forecaster)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	addCoreCommands(rootCmd, app)
	addForecastCommands(rootCmd, app)
	addMarketDataCommands(rootCmd, app)
	addServiceCommands(rootCmd, app)

	return rootCmd
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			}
			output.Printf("Stock Forecaster v%s\n", Version)
			output.Dim("Build date: %s", BuildDate)
			return nil
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				masked := *app.Config
				masked.Credentials.Feed.Token = security.MaskCredential(masked.Credentials.Feed.Token)
				return output.JSON(masked)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{"path": app.Config.Dir})
			}
			output.Println(app.Config.Dir)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]bool{"valid": true})
			}
			output.Success("✓ Configuration is valid")
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Forecast")
	output.Printf("  Method:          %s\n", cfg.Forecast.Method)
	output.Printf("  Seed:            %d\n", cfg.Forecast.Seed)
	output.Printf("  Timeout:         %s\n", cfg.Forecast.Timeout)
	output.Printf("  Lookback:        %d days\n", cfg.Forecast.LookbackDays)
	output.Printf("  News limit:      %d\n", cfg.Forecast.NewsLimit)
	output.Println()

	output.Bold("Providers")
	feed := cfg.Providers.FeedURL
	if feed == "" {
		feed = "(synthetic only)"
	}
	output.Printf("  Feed:            %s\n", feed)
	token := security.MaskCredential(cfg.Credentials.Feed.Token)
	if token == "" {
		token = "(none)"
	}
	output.Printf("  Feed token:      %s\n", token)
	output.Printf("  Requests/min:    %d\n", cfg.Providers.RequestsPerMinute)
	output.Printf("  Retries:         %d\n", cfg.Providers.Retries)
	output.Printf("  Breaker:         %d failures, %s cooldown\n", cfg.Providers.BreakerFailures, cfg.Providers.BreakerCooldown)
	output.Printf("  Cache TTL:       %s\n", cfg.Providers.CacheTTL)
	output.Printf("  RSS feeds:       %d\n", len(cfg.Providers.RSSFeeds))
	output.Println()

	output.Bold("Server")
	output.Printf("  Listen:          %s\n", cfg.Server.Listen)
	output.Println()

	output.Bold("Watch")
	output.Printf("  Cron:            %s\n", cfg.Watch.Cron)
	output.Printf("  Symbols:         %v\n", cfg.Watch.Symbols)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:           %s\n", cfg.Logging.Level)
	output.Printf("  File:            %v\n", cfg.Logging.File)
}
