package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-claimform/internal/fill"
	"github.com/goliatone/go-claimform/pkg/progress"
)

const petsYAML = `
key: pets
title: Pets
fields:
  - key: has_pet
    type: select
    templateOptions:
      label: Do you have a pet?
      options:
        - name: "Yes"
          value: "yes"
        - name: "No"
          value: "no"
  - key: pet_name
    type: input
    hideExpression: model.has_pet !== 'yes'
    templateOptions:
      label: Pet name
`

type cannedDriver struct {
	inputs map[string]string
	asked  []string
}

func (d *cannedDriver) Input(_ context.Context, cfg fill.InputConfig) (string, error) {
	d.asked = append(d.asked, cfg.Message)
	return d.inputs[cfg.Message], nil
}

func (d *cannedDriver) Confirm(_ context.Context, cfg fill.ConfirmConfig) (bool, error) {
	d.asked = append(d.asked, cfg.Message)
	return true, nil
}

func (d *cannedDriver) Select(_ context.Context, cfg fill.SelectConfig) (int, error) {
	d.asked = append(d.asked, cfg.Message)
	return 0, nil
}

func (d *cannedDriver) TextArea(_ context.Context, cfg fill.TextAreaConfig) (string, error) {
	d.asked = append(d.asked, cfg.Message)
	return "", nil
}

func (d *cannedDriver) Info(context.Context, string) error { return nil }

func run(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(app)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestProgressCommand(t *testing.T) {
	dir := t.TempDir()
	answersPath := writeFile(t, dir, "answers.json", `{"claimant_type":"veteran","veteran_first_name":"Jane","phone":"","signature":"Jane Doe"}`)

	out, err := run(t, nil, "progress", "VBA-21-0966-ARE", "--answers", answersPath)
	require.NoError(t, err)

	var got progress.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, progress.Summary{
		RequiredQuestions: 10,
		OptionalQuestions: 8,
		AnsweredRequired:  3,
		AnsweredOptional:  0,
	}, got)
}

func TestProgressCommandReadsStdin(t *testing.T) {
	app := &App{Stdin: strings.NewReader(`{"has_pet":"no"}`)}
	dir := t.TempDir()
	writeFile(t, dir, "pets.yaml", petsYAML)

	out, err := run(t, app, "--templates", dir, "progress", "pets", "--answers", "-")
	require.NoError(t, err)

	var got progress.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, progress.Summary{RequiredQuestions: 2, AnsweredRequired: 1}, got)
}

func TestProgressCommandUnknownTemplate(t *testing.T) {
	out, err := run(t, nil, "progress", "no-such-form")
	require.NoError(t, err)

	var got progress.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, progress.Baseline(), got)
}

func TestProgressCommandRejectsNonObjectAnswers(t *testing.T) {
	dir := t.TempDir()
	answersPath := writeFile(t, dir, "answers.json", `["not", "an", "object"]`)

	_, err := run(t, nil, "progress", "VBA-21-0966-ARE", "--answers", answersPath)
	require.Error(t, err)
	var hint *ErrorWithSuggestion
	assert.ErrorAs(t, err, &hint)
}

func TestLintBuiltInTemplates(t *testing.T) {
	out, err := run(t, nil, "lint")
	require.NoError(t, err)
	assert.Contains(t, out, "built-in templates: 2 template(s) ok")
}

func TestLintReportsEveryProblem(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.json", `{"fields":[{"key":"x","hideExpression":"model.y ="}]}`)
	writeFile(t, dir, "b.yaml", "fields:\n  - key: signature\n")
	writeFile(t, dir, "pets.yaml", petsYAML)

	out, err := run(t, nil, "lint", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 problem(s) found")
	assert.Contains(t, out, `field "x"`)
	assert.Contains(t, out, `field "signature"`)
	assert.NotContains(t, out, "pets")
}

func TestTemplatesCommand(t *testing.T) {
	out, err := run(t, nil, "templates")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "KEY"))
	assert.True(t, strings.HasPrefix(lines[1], "VBA-21-0966-ARE"))
	assert.Contains(t, lines[1], "Intent to File")
	assert.True(t, strings.HasPrefix(lines[2], "VBA-21-526EZ-ARE"))
}

func TestFillCommand(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pets.yaml", petsYAML)

	driver := &cannedDriver{inputs: map[string]string{
		"Pet name":                    "Rex",
		"Type your full name to sign": "Jane Doe",
	}}
	out, err := run(t, &App{Driver: driver}, "--templates", dir, "fill", "pets")
	require.NoError(t, err)

	assert.Equal(t, []string{"Do you have a pet?", "Pet name", "Type your full name to sign"}, driver.asked)

	var got struct {
		Form      string            `json:"form"`
		Responses map[string]string `json:"responses"`
		Progress  progress.Summary  `json:"progress"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "pets", got.Form)
	assert.Equal(t, map[string]string{"has_pet": "yes", "pet_name": "Rex", "signature": "Jane Doe"}, got.Responses)
	assert.Equal(t, progress.Summary{RequiredQuestions: 3, AnsweredRequired: 3}, got.Progress)
}

func TestFillCommandUnknownTemplate(t *testing.T) {
	_, err := run(t, &App{Driver: &cannedDriver{}}, "fill", "no-such-form")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "claimctl templates")
}
