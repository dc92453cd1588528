package cli

import (
	"github.com/spf13/cobra"
)

func newProgressCommand(app *App) *cobra.Command {
	var answersPath string

	cmd := &cobra.Command{
		Use:   "progress <template-key>",
		Short: "Compute the progress summary of a set of answers",
		Long: `Compute how many questions a form currently asks and how many are
answered. Answers are read from a JSON object file, or stdin with "-".
Unknown template keys produce the baseline summary.`,
		Example: `  claimctl progress VBA-21-0966-ARE --answers answers.json
  cat answers.json | claimctl progress VBA-21-0966-ARE --answers -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := app.templates()
			if err != nil {
				return err
			}
			set, err := app.readAnswers(answersPath)
			if err != nil {
				return err
			}

			form, _ := reg.Form(args[0])
			summary, err := app.evaluator().Compute(form, set)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), summary)
		},
	}

	cmd.Flags().StringVarP(&answersPath, "answers", "a", "", `JSON answers file ("-" for stdin)`)
	return cmd
}
