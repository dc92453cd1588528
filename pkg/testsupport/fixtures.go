// Package testsupport holds fixtures and golden file helpers shared by the
// package tests.
package testsupport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-claimform/pkg/answers"
	"github.com/goliatone/go-claimform/pkg/template"
)

// MaritalForm returns a three question form: a required "married" answer,
// a required "spouse" revealed only when married is "yes", and optional
// "notes".
func MaritalForm() *template.Form {
	return template.MustForm("marital",
		template.MustField("married", false, ""),
		template.MustField("spouse", false, "model.married != 'yes'"),
		template.MustField("notes", true, ""),
	)
}

// MustRegistry builds a registry from forms, failing the test on duplicate
// keys.
func MustRegistry(t testing.TB, forms ...*template.Form) *template.Registry {
	t.Helper()

	reg, err := template.NewRegistry(forms...)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	return reg
}

// MustAnswers decodes a JSON object literal into an answer set.
func MustAnswers(t testing.TB, raw string) answers.Set {
	t.Helper()

	var set answers.Set
	if err := json.Unmarshal([]byte(raw), &set); err != nil {
		t.Fatalf("decode answers: %v", err)
	}
	return set
}

// LoadAnswers reads a JSON answers fixture, returning an error for callers
// managing setup outside of *testing.T.
func LoadAnswers(path string) (answers.Set, error) {
	if path == "" {
		return nil, errors.New("testsupport: answers path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("testsupport: read answers: %w", err)
	}
	var set answers.Set
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("testsupport: unmarshal answers: %w", err)
	}
	return set, nil
}

// MustLoadAnswers is LoadAnswers for tests.
func MustLoadAnswers(t testing.TB, path string) answers.Set {
	t.Helper()

	set, err := LoadAnswers(path)
	if err != nil {
		t.Fatalf("load answers: %v", err)
	}
	return set
}

// WriteGolden writes value as indented JSON when UPDATE_GOLDENS is set.
func WriteGolden(t testing.TB, path string, value any) {
	t.Helper()

	if os.Getenv("UPDATE_GOLDENS") == "" {
		return
	}
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("marshal golden: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, append(payload, '\n'), 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
}

// MustLoadGolden decodes a JSON golden file into dst.
func MustLoadGolden(t testing.TB, path string, dst any) {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		t.Fatalf("unmarshal golden: %v", err)
	}
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}
