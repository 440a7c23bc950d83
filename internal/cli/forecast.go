package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"stock-forecaster/internal/errors"
	"stock-forecaster/internal/forecast"
	"stock-forecaster/internal/models"
	"stock-forecaster/internal/sentiment"
)

// addForecastCommands adds forecasting and analysis commands.
func addForecastCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newPredictCmd(app))
	rootCmd.AddCommand(newForecastCmd(app))
	rootCmd.AddCommand(newSentimentCmd())
	rootCmd.AddCommand(newIndicatorsCmd(app))
}

func newPredictCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "predict <symbol>",
		Short: "Forecast the next 7 days for a symbol",
		Example: `  forecaster predict AAPL
  forecaster predict RELIANCE.NS --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			set, err := app.Service.Predict(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(set)
			}
			renderPredictions(output, set)
			return nil
		},
	}
}

func newForecastCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Forecast from a JSON file of price history and news",
		Long: `Forecast from caller-supplied data instead of the configured providers.

The input is a JSON object with priceHistory, news and currentPrice, the
same body accepted by POST /api/forecast. Use --input - to read stdin.`,
		Example: `  forecaster forecast --input history.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			path, _ := cmd.Flags().GetString("input")

			in, err := readInput(cmd, path)
			if err != nil {
				return err
			}

			set := app.Service.Forecast(cmd.Context(), in)
			if output.IsJSON() {
				return output.JSON(set)
			}
			renderPredictions(output, set)
			return nil
		},
	}

	cmd.Flags().StringP("input", "i", "", "JSON input file (- for stdin)")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func readInput(cmd *cobra.Command, path string) (forecast.Input, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return forecast.Input{}, fmt.Errorf("opening input: %w", err)
		}
		defer f.Close()
		r = f
	}

	var in forecast.Input
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return forecast.Input{}, errors.Wrap(errors.ErrInvalidInput, fmt.Sprintf("decoding %s: %v", path, err))
	}
	in.Symbol = models.NormalizeSymbol(in.Symbol)
	return in, nil
}

func newSentimentCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "sentiment <text...>",
		Short:   "Score the sentiment of a piece of text",
		Example: `  forecaster sentiment "Shares surge after record profit"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			r := sentiment.Analyze(strings.Join(args, " "))

			if output.IsJSON() {
				return output.JSON(r)
			}
			output.Printf("%s  score %+.3f\n", output.SentimentLabel(string(r.Label)), r.Score)
			return nil
		},
	}
}

func newIndicatorsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "indicators <symbol>",
		Short: "Show technical indicators for a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			symbol := models.NormalizeSymbol(args[0])

			set, points, err := app.Service.Indicators(cmd.Context(), symbol)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(set)
			}
			renderIndicators(output, symbol, set, points)
			return nil
		},
	}
}
