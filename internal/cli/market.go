package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"stock-forecaster/internal/models"
)

// addMarketDataCommands adds quote, history, news and search commands.
func addMarketDataCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newQuoteCmd(app))
	rootCmd.AddCommand(newHistoryCmd(app))
	rootCmd.AddCommand(newNewsCmd(app))
	rootCmd.AddCommand(newSearchCmd(app))
}

func newQuoteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "quote <symbol>",
		Short: "Show the latest quote",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			q, err := app.Service.Quote(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(q)
			}
			renderQuote(output, q)
			return nil
		},
	}
}

func newHistoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <symbol>",
		Short: "Show daily price history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			days, _ := cmd.Flags().GetInt("days")
			symbol := models.NormalizeSymbol(args[0])

			points, err := app.Service.History(cmd.Context(), symbol, days)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(points)
			}
			renderHistory(output, symbol, points)
			return nil
		},
	}

	cmd.Flags().IntP("days", "d", 30, "number of days")
	return cmd
}

func newNewsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "news <symbol>",
		Short: "Show recent news with sentiment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			limit, _ := cmd.Flags().GetInt("limit")

			items, err := app.Service.News(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(items)
			}
			if len(items) == 0 {
				output.Warning("No news found")
				return nil
			}
			renderNews(output, items)
			return nil
		},
	}

	cmd.Flags().IntP("limit", "n", 10, "maximum number of items")
	return cmd
}

func newSearchCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Search listings by symbol or company name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			limit, _ := cmd.Flags().GetInt("limit")

			results, err := app.Service.Search(cmd.Context(), strings.Join(args, " "), limit)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				if results == nil {
					results = []models.Listing{}
				}
				return output.JSON(results)
			}
			if len(results) == 0 {
				output.Warning("No listings match %q", strings.Join(args, " "))
				return nil
			}
			renderListings(output, results)
			return nil
		},
	}

	cmd.Flags().IntP("limit", "n", 15, "maximum number of results")
	return cmd
}
