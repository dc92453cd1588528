package cli

import (
	"github.com/spf13/cobra"

	"github.com/goliatone/go-claimform/internal/fill"
	"github.com/goliatone/go-claimform/pkg/answers"
	"github.com/goliatone/go-claimform/pkg/progress"
)

type fillResult struct {
	Form      string           `json:"form"`
	Responses answers.Set      `json:"responses"`
	Progress  progress.Summary `json:"progress"`
}

func newFillCommand(app *App) *cobra.Command {
	var answersPath string

	cmd := &cobra.Command{
		Use:   "fill <template-key>",
		Short: "Answer a form interactively",
		Long: `Walk a form in the terminal, asking only the questions visible given
the answers so far, then print the responses and progress as JSON. Answers
from --answers are offered as defaults.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form, err := app.form(args[0])
			if err != nil {
				return err
			}
			start, err := app.readAnswers(answersPath)
			if err != nil {
				return err
			}

			driver := app.Driver
			if driver == nil {
				driver = &fill.SurveyDriver{Out: cmd.ErrOrStderr()}
			}
			filler := fill.New(
				fill.WithPromptDriver(driver),
				fill.WithEvaluator(app.evaluator()),
			)

			set, summary, err := filler.Fill(cmd.Context(), form, start)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), fillResult{
				Form:      form.Key,
				Responses: set,
				Progress:  summary,
			})
		},
	}

	cmd.Flags().StringVarP(&answersPath, "answers", "a", "", `JSON file of previous answers ("-" for stdin)`)
	return cmd
}
