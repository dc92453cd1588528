package progress

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/goliatone/go-claimform/pkg/answers"
	"github.com/goliatone/go-claimform/pkg/template"
	"github.com/goliatone/go-claimform/pkg/visibility"
)

// Summary counts how many questions a form currently asks and how many of
// them have been answered.
type Summary struct {
	RequiredQuestions int `json:"requiredQuestions"`
	OptionalQuestions int `json:"optionalQuestions"`
	AnsweredRequired  int `json:"answeredRequired"`
	AnsweredOptional  int `json:"answeredOptional"`
}

// Baseline is the summary of a form with no declared fields and no answers:
// only the implicit signature is asked.
func Baseline() Summary {
	return Summary{RequiredQuestions: 1}
}

// Complete reports whether every required question has been answered.
func (s Summary) Complete() bool {
	return s.AnsweredRequired >= s.RequiredQuestions
}

// RemainingRequired returns how many required questions are still open. It
// never goes below zero, even when hidden fields were answered earlier.
func (s Summary) RemainingRequired() int {
	if s.AnsweredRequired >= s.RequiredQuestions {
		return 0
	}
	return s.RequiredQuestions - s.AnsweredRequired
}

// Add sums two summaries, used to aggregate a claim made of several forms.
func (s Summary) Add(other Summary) Summary {
	return Summary{
		RequiredQuestions: s.RequiredQuestions + other.RequiredQuestions,
		OptionalQuestions: s.OptionalQuestions + other.OptionalQuestions,
		AnsweredRequired:  s.AnsweredRequired + other.AnsweredRequired,
		AnsweredOptional:  s.AnsweredOptional + other.AnsweredOptional,
	}
}

func (s Summary) String() string {
	return fmt.Sprintf("%d of %d required, %d of %d optional",
		s.AnsweredRequired, s.RequiredQuestions, s.AnsweredOptional, s.OptionalQuestions)
}

// Evaluator computes progress summaries. It holds no mutable state and can be
// shared across goroutines.
type Evaluator struct {
	logger     *slog.Logger
	visibility visibility.Evaluator
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger routes the diagnostic record emitted per computation.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithVisibility evaluates hide expressions with engine instead of the
// programs compiled when templates load.
func WithVisibility(engine visibility.Evaluator) Option {
	return func(e *Evaluator) {
		e.visibility = engine
	}
}

// Visibility returns the hide expression engine, nil when compiled programs
// are used.
func (e *Evaluator) Visibility() visibility.Evaluator {
	if e == nil {
		return nil
	}
	return e.visibility
}

// New constructs an Evaluator.
func New(options ...Option) *Evaluator {
	e := &Evaluator{}
	for _, opt := range options {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *Evaluator) log() *slog.Logger {
	if e == nil || e.logger == nil {
		return slog.Default()
	}
	return e.logger
}

// Compute evaluates form against responses. A nil form yields Baseline()
// whatever the responses hold.
//
// Each field is checked twice against the same snapshot of responses:
// answerability (its hide expression is falsy or absent) decides whether it
// counts as a question, and answered-ness (see template.Field.Answered)
// decides whether it counts as answered. The two checks are independent, so
// a field answered before a later change hid it keeps its answered credit
// without being counted as a question. Errors from hide expressions are
// returned as-is.
func (e *Evaluator) Compute(form *template.Form, responses answers.Set) (Summary, error) {
	if form == nil {
		return Baseline(), nil
	}

	var out Summary
	ctx := visibility.ForModel(responses)

	for _, field := range form.AllFields() {
		hidden, err := field.HiddenWith(e.Visibility(), ctx)
		if err != nil {
			return Summary{}, fmt.Errorf("progress: %w", err)
		}
		if !hidden {
			if field.Optional {
				out.OptionalQuestions++
			} else {
				out.RequiredQuestions++
			}
		}

		if field.Answered(responses) {
			if field.Optional {
				out.AnsweredOptional++
			} else {
				out.AnsweredRequired++
			}
		}
	}

	e.log().Info("calculated progress",
		"form", form.Key,
		"optionalQuestions", out.OptionalQuestions,
		"requiredQuestions", out.RequiredQuestions,
		"answeredOptional", out.AnsweredOptional,
		"answeredRequired", out.AnsweredRequired,
	)

	return out, nil
}

// ComputeAll evaluates each key against its responses. Keys without a
// registered template produce Baseline(), matching forms created for
// templates that are not installed.
func (e *Evaluator) ComputeAll(reg *template.Registry, responses map[string]answers.Set, keys ...string) (map[string]Summary, error) {
	if len(keys) == 0 {
		keys = make([]string, 0, len(responses))
		for key := range responses {
			keys = append(keys, key)
		}
		sort.Strings(keys)
	}

	out := make(map[string]Summary, len(keys))
	for _, key := range keys {
		form, _ := reg.Form(key)
		summary, err := e.Compute(form, responses[key])
		if err != nil {
			return nil, fmt.Errorf("progress: form %q: %w", key, err)
		}
		out[key] = summary
	}
	return out, nil
}

var defaultEvaluator = New()

// Compute evaluates form against responses using an Evaluator that logs to
// slog.Default().
func Compute(form *template.Form, responses answers.Set) (Summary, error) {
	return defaultEvaluator.Compute(form, responses)
}
