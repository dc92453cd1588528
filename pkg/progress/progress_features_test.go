package progress_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/cucumber/godog"

	"github.com/goliatone/go-claimform/pkg/answers"
	"github.com/goliatone/go-claimform/pkg/progress"
	"github.com/goliatone/go-claimform/pkg/template"
)

// TestProgressFeatures executes the progress feature scenarios via godog.
func TestProgressFeatures(t *testing.T) {
	suite := godog.TestSuite{
		Name:                "progress",
		ScenarioInitializer: initializeProgressScenario,
		Options: &godog.Options{
			Format:    "pretty",
			Paths:     []string{filepath.Join("testdata", "features")},
			Strict:    true,
			TestingT:  t,
			Randomize: 0,
		},
	}
	if suite.Run() != 0 {
		t.Fatalf("non-zero godog status")
	}
}

func initializeProgressScenario(ctx *godog.ScenarioContext) {
	state := &progressState{}
	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		state.reset()
		return ctx, nil
	})

	ctx.Step(`^no form template$`, state.noForm)
	ctx.Step(`^a form "([^"]+)" with fields:$`, state.formWithFields)
	ctx.Step(`^the responses:$`, state.withResponses)
	ctx.Step(`^progress is computed$`, state.compute)
	ctx.Step(`^the summary is (\d+) required, (\d+) optional, (\d+) answered required, (\d+) answered optional$`, state.summaryIs)
	ctx.Step(`^the template is rejected as misconfigured$`, state.templateRejected)
}

// progressState holds scenario state for the feature tests.
type progressState struct {
	form      *template.Form
	formErr   error
	responses answers.Set
	summary   progress.Summary
}

func (s *progressState) reset() {
	s.form = nil
	s.formErr = nil
	s.responses = answers.Set{}
	s.summary = progress.Summary{}
}

func (s *progressState) noForm() error {
	s.form = nil
	return nil
}

func (s *progressState) formWithFields(key string, table *godog.Table) error {
	var fields []template.Field
	for i, row := range table.Rows {
		if i == 0 {
			continue
		}
		optional, err := strconv.ParseBool(row.Cells[1].Value)
		if err != nil {
			return fmt.Errorf("row %d: optional: %w", i, err)
		}
		fields = append(fields, template.Field{
			Key:            row.Cells[0].Value,
			Optional:       optional,
			HideExpression: row.Cells[2].Value,
		})
	}
	s.form, s.formErr = template.NewForm(key, fields...)
	return nil
}

func (s *progressState) withResponses(table *godog.Table) error {
	for i, row := range table.Rows {
		if i == 0 {
			continue
		}
		var raw any
		if err := json.Unmarshal([]byte(row.Cells[1].Value), &raw); err != nil {
			return fmt.Errorf("row %d: value must be JSON: %w", i, err)
		}
		s.responses[row.Cells[0].Value] = answers.Of(raw)
	}
	return nil
}

func (s *progressState) compute() error {
	if s.formErr != nil {
		return s.formErr
	}
	summary, err := quietEvaluator().Compute(s.form, s.responses)
	if err != nil {
		return err
	}
	s.summary = summary
	return nil
}

func (s *progressState) summaryIs(required, optional, answeredRequired, answeredOptional int) error {
	want := progress.Summary{
		RequiredQuestions: required,
		OptionalQuestions: optional,
		AnsweredRequired:  answeredRequired,
		AnsweredOptional:  answeredOptional,
	}
	if s.summary != want {
		return fmt.Errorf("summary mismatch: got %+v, want %+v", s.summary, want)
	}
	return nil
}

func (s *progressState) templateRejected() error {
	var cfgErr *template.ConfigError
	if !errors.As(s.formErr, &cfgErr) {
		return fmt.Errorf("expected configuration error, got %v", s.formErr)
	}
	return nil
}
