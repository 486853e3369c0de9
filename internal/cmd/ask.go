package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/factlens/factlens/internal/config"
	"github.com/factlens/factlens/internal/core/relay"
	"github.com/factlens/factlens/internal/llm/gemini"
	"github.com/factlens/factlens/internal/observability"
)

// stdoutSink streams answer fragments to stdout as they arrive.
type stdoutSink struct{}

func (stdoutSink) Write(fragment string) error {
	_, err := fmt.Fprint(os.Stdout, fragment)
	return err
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question and stream the fact-checked answer",
	Long: `Ask a single question against the Gemini upstream and stream the
answer to stdout as it is generated. This is the one-shot variant of the
POST /api/ask endpoint: no rate limiting and no cache.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.GetConfig()
		question := strings.TrimSpace(strings.Join(args, " "))
		if question == "" {
			ExitWithCode(observability.CLILogger, foundry.ExitFailure, "Question must not be empty", nil)
		}

		provider, err := gemini.New(cmd.Context(), gemini.Config{
			APIKey:       cfg.Gemini.APIKey,
			Model:        cfg.Gemini.Model,
			GoogleSearch: cfg.Gemini.GoogleSearch,
		})
		if err != nil {
			ExitWithCode(observability.CLILogger, foundry.ExitConfigInvalid, "Failed to initialize Gemini provider", err)
		}

		observability.CLILogger.Debug("Asking question",
			zap.String("model", cfg.Gemini.Model),
			zap.Int("question_length", len(question)))

		// No cache: a one-shot CLI run has nothing to warm.
		r := relay.New(nil, provider)
		_, _, err = r.Relay(cmd.Context(), question, cfg.Gemini.SystemPrompt, stdoutSink{})
		fmt.Println()
		if err != nil {
			// The relay already wrote a user-visible terminal fragment.
			observability.CLILogger.Debug("Generation failed", zap.Error(err))
			ExitWithCode(observability.CLILogger, foundry.ExitExternalServiceUnavailable, "Answer generation failed", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}
