package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/raphaelgruber/datacopilot/internal/models"
	"github.com/raphaelgruber/datacopilot/internal/schema"
	"github.com/spf13/cobra"
)

var (
	askCSV   string
	askPlain bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask an analytics question and run the answer pipeline",
	Long: `Ask a free-text analytics question. The pipeline classifies the
question into intents, asks for clarification when grounding is missing, then
generates, validates and scores one answer per intent.

Examples:
  copilot ask "Calculate churn for Pro users" --csv subscriptions.csv
  copilot ask "Should we invest in acquisition or retention?"`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askCSV, "csv", "", "dataset to ground the analysis in")
	askCmd.Flags().BoolVar(&askPlain, "plain", false, "disable the interactive progress display")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	ctrl, err := getController(ctx)
	if err != nil {
		return err
	}

	var summary *schema.Summary
	if askCSV != "" {
		table, err := schema.LoadFile(askCSV)
		if err != nil {
			return fmt.Errorf("load dataset: %w", err)
		}
		summary = schema.Summarize(table)
		fmt.Printf("Loaded %d rows, %d columns\n\n", summary.RowCount, len(summary.Columns))
	}

	state := models.NewSession(args[0])
	reader := bufio.NewReader(os.Stdin)

	for {
		if askPlain {
			state = ctrl.Run(ctx, state, summary, nil)
		} else {
			state = runWithProgress(ctx, ctrl, state, summary)
		}

		switch state.Status {
		case models.StatusOffTopic, models.StatusAmbiguous:
			renderRejection(state)
			return nil

		case models.StatusClarificationNeeded:
			renderClarification(state.PendingQuestions)

			fmt.Print("Answer (empty to proceed anyway): ")
			line, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("read answer: %w", err)
			}
			answer := strings.TrimSpace(line)
			state.AddClarification(answer)
			state.ProceedWithAnswers = true
			fmt.Println()

		case models.StatusSuccess:
			renderResults(state.Results, cfg.ConfidenceThreshold)
			return nil

		default:
			if state.Status == "" {
				return fmt.Errorf("interrupted")
			}
			return fmt.Errorf("unexpected pipeline status: %s", state.Status)
		}
	}
}
