package cmd

import (
	"fmt"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/factlens/factlens/internal/config"
	"github.com/factlens/factlens/internal/core"
	"github.com/factlens/factlens/internal/core/feed"
	"github.com/factlens/factlens/internal/observability"
	"github.com/factlens/factlens/internal/output"
)

var newsFormat string

var newsCmd = &cobra.Command{
	Use:   "news",
	Short: "Fetch and print today's aggregated news",
	Long: `Fetch the configured news feeds once and print the aggregated
result. In headlines mode this lists deduplicated headlines from the
single configured feed; in digest mode, one story per category.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.GetConfig()

		format, err := output.ParseFormat(newsFormat)
		if err != nil {
			ExitWithCode(observability.CLILogger, foundry.ExitFailure, "Invalid output format", err)
		}

		aggregator := feed.New(feed.NewRSSFetcher())

		var result *core.AggregatedResult
		switch cfg.News.Mode {
		case "digest":
			result, err = aggregator.Digest(cmd.Context(), cfg.News.Categories)
		default:
			result, err = aggregator.Headlines(cmd.Context(), cfg.News.FeedURL, cfg.News.MaxItems)
		}
		if err != nil {
			observability.CLILogger.Debug("Aggregation failed",
				zap.String("mode", cfg.News.Mode),
				zap.Error(err))
			ExitWithCode(observability.CLILogger, foundry.ExitExternalServiceUnavailable, "News aggregation failed", err)
		}

		rendered, err := output.NewFormatter(format).FormatNews(result)
		if err != nil {
			ExitWithCode(observability.CLILogger, foundry.ExitFailure, "Failed to render news", err)
		}
		fmt.Println(rendered)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(newsCmd)
	newsCmd.Flags().StringVarP(&newsFormat, "format", "f", "table", "output format (table, json, markdown)")
}
