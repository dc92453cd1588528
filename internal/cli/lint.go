package cli

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	claimform "github.com/goliatone/go-claimform"
	"github.com/goliatone/go-claimform/pkg/template"
)

func newLintCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "lint [dir]",
		Short: "Check form templates for defects",
		Long: `Parse every JSON and YAML template under dir and report each defect:
malformed hide expressions, reserved or duplicate field keys, and duplicate
template keys. Without dir the --templates directory is checked, or the
built-in set when that is empty too.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := app.templatesDir
			if len(args) == 1 {
				dir = args[0]
			}

			var fsys fs.FS
			label := dir
			if dir == "" {
				fsys = claimform.FormsFS()
				label = "built-in templates"
			} else {
				info, err := os.Stat(dir)
				if err != nil {
					return err
				}
				if !info.IsDir() {
					return fmt.Errorf("%s is not a directory", dir)
				}
				fsys = os.DirFS(dir)
			}

			problems := template.LintFS(fsys)
			out := cmd.OutOrStdout()
			for _, problem := range problems {
				fmt.Fprintln(out, problem)
			}
			if len(problems) > 0 {
				return fmt.Errorf("%s: %d problem(s) found", label, len(problems))
			}

			reg, err := template.LoadFS(fsys)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s: %d template(s) ok\n", label, reg.Len())
			return nil
		},
	}
}
