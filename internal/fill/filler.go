// Package fill walks a form template interactively, asking only the
// questions that are visible given the answers collected so far.
package fill

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-claimform/pkg/answers"
	"github.com/goliatone/go-claimform/pkg/progress"
	"github.com/goliatone/go-claimform/pkg/template"
	"github.com/goliatone/go-claimform/pkg/visibility"
)

// Filler drives a PromptDriver over a form.
type Filler struct {
	driver   PromptDriver
	progress *progress.Evaluator
}

// Option configures a Filler.
type Option func(*Filler)

// WithPromptDriver overrides the prompt driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(f *Filler) {
		if driver != nil {
			f.driver = driver
		}
	}
}

// WithEvaluator overrides the progress evaluator used for status lines.
func WithEvaluator(e *progress.Evaluator) Option {
	return func(f *Filler) {
		if e != nil {
			f.progress = e
		}
	}
}

// New builds a Filler prompting on the terminal by default.
func New(opts ...Option) *Filler {
	f := &Filler{
		driver:   &SurveyDriver{},
		progress: progress.New(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Fill asks every field of form once, in template order, skipping fields
// hidden by the answers given so far. Visibility is re-evaluated after each
// answer, so a field becomes askable as soon as an earlier answer reveals
// it. The signature is asked last. start seeds defaults and is not mutated.
func (f *Filler) Fill(ctx context.Context, form *template.Form, start answers.Set) (answers.Set, progress.Summary, error) {
	if form == nil {
		return nil, progress.Summary{}, fmt.Errorf("fill: form is required")
	}
	current := start.Clone()
	if current == nil {
		current = answers.Set{}
	}

	if title := template.PlainText(form.Title); title != "" {
		if err := f.driver.Info(ctx, title); err != nil {
			return nil, progress.Summary{}, err
		}
	}

	fields := append(form.Fields[:len(form.Fields):len(form.Fields)], template.Signature())
	asked := make(map[string]bool, len(fields))
	for {
		next, ok, err := nextField(f.progress.Visibility(), fields, asked, current)
		if err != nil {
			return nil, progress.Summary{}, err
		}
		if !ok {
			break
		}
		asked[next.Key] = true

		value, err := f.ask(ctx, next, current.Get(next.Key))
		if err != nil {
			return nil, progress.Summary{}, err
		}
		if value.Present() {
			current[next.Key] = value
		}
	}

	summary, err := f.progress.Compute(form, current)
	if err != nil {
		return nil, progress.Summary{}, err
	}
	if err := f.driver.Info(ctx, "Progress: "+summary.String()); err != nil {
		return nil, progress.Summary{}, err
	}
	return current, summary, nil
}

func nextField(engine visibility.Evaluator, fields []template.Field, asked map[string]bool, current answers.Set) (template.Field, bool, error) {
	ctx := visibility.ForModel(current)
	for _, field := range fields {
		if asked[field.Key] {
			continue
		}
		hidden, err := field.HiddenWith(engine, ctx)
		if err != nil {
			return template.Field{}, false, fmt.Errorf("fill: %w", err)
		}
		if !hidden {
			return field, true, nil
		}
	}
	return template.Field{}, false, nil
}

func (f *Filler) ask(ctx context.Context, field template.Field, previous answers.Value) (answers.Value, error) {
	message := template.PlainText(field.Label)
	if message == "" {
		message = field.Key
	}
	if field.Optional {
		message += " (optional)"
	}
	help := template.PlainText(field.Help)

	switch {
	case field.Implicit():
		name, err := f.driver.Input(ctx, InputConfig{
			Message: "Type your full name to sign",
			Help:    "Leave blank to sign later.",
		})
		if err != nil {
			return answers.Value{}, err
		}
		if strings.TrimSpace(name) == "" {
			return answers.Absent(), nil
		}
		return answers.String(strings.TrimSpace(name)), nil

	case len(field.Options) > 0:
		labels := make([]string, len(field.Options))
		defaultIndex := -1
		for i, opt := range field.Options {
			labels[i] = template.PlainText(opt.Name)
			if labels[i] == "" {
				labels[i] = answers.Of(opt.Value).Display()
			}
			if previous.Present() && answers.Of(opt.Value).Display() == previous.Display() {
				defaultIndex = i
			}
		}
		idx, err := f.driver.Select(ctx, SelectConfig{Message: message, Options: labels, DefaultIndex: defaultIndex, Help: help})
		if err != nil {
			return answers.Value{}, err
		}
		if idx < 0 || idx >= len(field.Options) {
			return answers.Absent(), nil
		}
		return answers.Of(field.Options[idx].Value), nil

	case field.Type == "checkbox" || field.Type == "confirm":
		def, _ := previous.BoolValue()
		yes, err := f.driver.Confirm(ctx, ConfirmConfig{Message: message, Default: def, Help: help})
		if err != nil {
			return answers.Value{}, err
		}
		return answers.Bool(yes), nil

	case field.Type == "textarea":
		text, err := f.driver.TextArea(ctx, TextAreaConfig{Message: message, Default: previous.Display(), Help: help})
		if err != nil {
			return answers.Value{}, err
		}
		return textValue(text, previous), nil

	default:
		text, err := f.driver.Input(ctx, InputConfig{Message: message, Default: previous.Display(), Help: help})
		if err != nil {
			return answers.Value{}, err
		}
		return textValue(text, previous), nil
	}
}

// textValue keeps a blank answer only when it clears an earlier one.
func textValue(text string, previous answers.Value) answers.Value {
	if text == "" && !previous.Present() {
		return answers.Absent()
	}
	return answers.String(text)
}
