// Package cli implements the claimctl command tree.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	claimform "github.com/goliatone/go-claimform"
	"github.com/goliatone/go-claimform/internal/fill"
	"github.com/goliatone/go-claimform/internal/logging"
	"github.com/goliatone/go-claimform/pkg/answers"
	"github.com/goliatone/go-claimform/pkg/progress"
	"github.com/goliatone/go-claimform/pkg/template"
)

// App holds what the commands share. Zero values are replaced by terminal
// defaults in NewRootCommand.
type App struct {
	// Driver answers the fill prompts; nil prompts on the terminal.
	Driver fill.PromptDriver
	// Stdin is read when an answers file is given as "-".
	Stdin io.Reader

	templatesDir string
	logLevel     string
	logger       *slog.Logger
}

// NewRootCommand builds the claimctl command tree.
func NewRootCommand(app *App) *cobra.Command {
	if app == nil {
		app = &App{}
	}
	if app.Stdin == nil {
		app.Stdin = os.Stdin
	}

	root := &cobra.Command{
		Use:   "claimctl",
		Short: "Inspect, lint and fill claim form templates",
		Long: `claimctl works with the claim form templates served by claimsd.
It computes progress summaries for a set of answers, checks template files
for defects, and walks a form interactively in the terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			app.logger = logging.New(logging.Config{
				Level:  app.logLevel,
				Format: string(logging.FormatText),
				Output: cmd.ErrOrStderr(),
			})
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&app.templatesDir, "templates", "", "directory of form templates (built-in set when empty)")
	flags.StringVar(&app.logLevel, "log-level", "warn", "log level: debug, info, warn or error")

	root.AddCommand(
		newProgressCommand(app),
		newLintCommand(app),
		newFillCommand(app),
		newTemplatesCommand(app),
	)
	return root
}

// Execute runs claimctl against the process arguments.
func Execute(ctx context.Context) error {
	return NewRootCommand(nil).ExecuteContext(ctx)
}

func (a *App) log() *slog.Logger {
	if a.logger == nil {
		return logging.Discard()
	}
	return a.logger
}

func (a *App) evaluator() *progress.Evaluator {
	return progress.New(progress.WithLogger(a.log()))
}

func (a *App) templates() (*template.Registry, error) {
	return claimform.LoadTemplates(a.templatesDir)
}

func (a *App) form(key string) (*template.Form, error) {
	reg, err := a.templates()
	if err != nil {
		return nil, err
	}
	form, ok := reg.Form(key)
	if !ok {
		return nil, NewErrorWithSuggestions(
			fmt.Sprintf("Unknown template %q", key),
			nil,
			"List the available templates: claimctl templates",
		)
	}
	return form, nil
}

func (a *App) readAnswers(path string) (answers.Set, error) {
	if path == "" {
		return answers.Set{}, nil
	}

	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(a.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read answers: %w", err)
	}

	var set answers.Set
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, NewErrorWithSuggestions(
			fmt.Sprintf("Answers in %s are not a JSON object", path),
			err,
			`Answers map field keys to values, e.g. {"married": "yes", "signature": "Jane Doe"}`,
		)
	}
	if set == nil {
		set = answers.Set{}
	}
	return set, nil
}

func writeJSON(w io.Writer, payload any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
