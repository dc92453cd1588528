package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-claimform/pkg/answers"
	"github.com/goliatone/go-claimform/pkg/template"
)

func newTemplatesCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List the available form templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := app.templates()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tFIELDS\tREQUIRED\tTITLE")
			for _, key := range reg.Keys() {
				form, _ := reg.Form(key)
				required, err := app.evaluator().Compute(form, answers.Set{})
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", key, len(form.Fields), required.RequiredQuestions, template.PlainText(form.Title))
			}
			return w.Flush()
		},
	}
}
