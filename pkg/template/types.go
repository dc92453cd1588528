package template

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-claimform/pkg/answers"
	"github.com/goliatone/go-claimform/pkg/visibility"
	"github.com/goliatone/go-claimform/pkg/visibility/expr"
)

// SignatureKey is the response key holding the claimant's signature. Every
// form carries an implicit required field under this key.
const SignatureKey = "signature"

// Form is an immutable claim form template.
type Form struct {
	Key         string  `json:"key"`
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	Source      string  `json:"-"`
	Fields      []Field `json:"fields"`
}

// Field describes a single question on a form.
type Field struct {
	Key            string   `json:"key"`
	Type           string   `json:"type,omitempty"`
	Label          string   `json:"label,omitempty"`
	Help           string   `json:"help,omitempty"`
	Optional       bool     `json:"optional"`
	HideExpression string   `json:"hideExpression,omitempty"`
	Options        []Option `json:"options,omitempty"`

	hide     *expr.Program
	implicit bool
}

// Option is a selectable value for radio/select fields.
type Option struct {
	Name  string `json:"name" yaml:"name"`
	Value any    `json:"value" yaml:"value"`
}

var signatureField = Field{
	Key:      SignatureKey,
	Type:     "signature",
	Label:    "Signature",
	implicit: true,
}

// Signature returns the implicit signature field: required, never hidden, and
// answered whenever the response is truthy.
func Signature() Field { return signatureField }

// NewField builds a field, compiling hideExpression when present.
func NewField(key string, optional bool, hideExpression string) (Field, error) {
	f := Field{
		Key:            strings.TrimSpace(key),
		Optional:       optional,
		HideExpression: strings.TrimSpace(hideExpression),
	}
	if err := f.compile(); err != nil {
		return Field{}, err
	}
	return f, nil
}

// MustField is like NewField but panics on error.
func MustField(key string, optional bool, hideExpression string) Field {
	f, err := NewField(key, optional, hideExpression)
	if err != nil {
		panic(err)
	}
	return f
}

func (f *Field) compile() error {
	if f.HideExpression == "" {
		f.hide = nil
		return nil
	}
	prog, err := expr.Compile(f.HideExpression)
	if err != nil {
		return err
	}
	f.hide = prog
	return nil
}

// Conditional reports whether the field has a hide expression.
func (f Field) Conditional() bool { return f.HideExpression != "" }

// Implicit reports whether the field is managed by the service rather than
// declared in a template file.
func (f Field) Implicit() bool { return f.implicit }

// Hidden evaluates the hide expression against ctx. Fields without an
// expression are never hidden. Fields assembled by hand without going through
// NewField compile their expression on demand through a shared cache, which
// is where a malformed expression surfaces.
func (f Field) Hidden(ctx visibility.Context) (bool, error) {
	return f.HiddenWith(nil, ctx)
}

// HiddenWith is Hidden with the rule handed to engine instead of the
// compiled program. A nil engine uses the compiled program.
func (f Field) HiddenWith(engine visibility.Evaluator, ctx visibility.Context) (bool, error) {
	if f.HideExpression == "" {
		return false, nil
	}
	if engine == nil {
		if f.hide != nil {
			return f.hide.Eval(ctx), nil
		}
		engine = onDemand
	}
	hidden, err := engine.Eval(f.Key, f.HideExpression, ctx)
	if err != nil {
		return false, fmt.Errorf("template: %w", err)
	}
	return hidden, nil
}

var onDemand = expr.New()

// Answered reports whether responses hold an answer for f. Declared fields
// require a present, non-empty-string value; the implicit signature only
// needs a truthy one.
func (f Field) Answered(responses answers.Set) bool {
	value := responses.Get(f.Key)
	if f.implicit {
		return value.Truthy()
	}
	return value.Answered()
}

// NewForm assembles a form from fields, validating keys and compiling hide
// expressions.
func NewForm(key string, fields ...Field) (*Form, error) {
	form := &Form{Key: strings.TrimSpace(key), Fields: append([]Field(nil), fields...)}
	if err := form.validate(); err != nil {
		return nil, err
	}
	return form, nil
}

// MustForm is like NewForm but panics on error.
func MustForm(key string, fields ...Field) *Form {
	form, err := NewForm(key, fields...)
	if err != nil {
		panic(err)
	}
	return form
}

func (f *Form) validate() error {
	if f.Key == "" {
		return &ConfigError{Source: f.Source, Err: fmt.Errorf("form key is required")}
	}
	seen := make(map[string]struct{}, len(f.Fields))
	for idx := range f.Fields {
		field := &f.Fields[idx]
		field.Key = strings.TrimSpace(field.Key)
		if field.Key == "" {
			return &ConfigError{Source: f.Source, Form: f.Key, Err: fmt.Errorf("field at index %d has no key", idx)}
		}
		if field.Key == SignatureKey || field.implicit {
			return &ConfigError{Source: f.Source, Form: f.Key, Field: field.Key, Err: ErrReservedKey}
		}
		if _, dup := seen[field.Key]; dup {
			return &ConfigError{Source: f.Source, Form: f.Key, Field: field.Key, Err: fmt.Errorf("duplicate field key")}
		}
		seen[field.Key] = struct{}{}
		field.HideExpression = strings.TrimSpace(field.HideExpression)
		if err := field.compile(); err != nil {
			return &ConfigError{Source: f.Source, Form: f.Key, Field: field.Key, Err: err}
		}
	}
	return nil
}

// AllFields returns the implicit signature field followed by the declared
// fields in template order. A nil form yields only the signature.
func (f *Form) AllFields() []Field {
	if f == nil {
		return []Field{signatureField}
	}
	out := make([]Field, 0, len(f.Fields)+1)
	out = append(out, signatureField)
	out = append(out, f.Fields...)
	return out
}

// Field returns the declared field with key.
func (f *Form) Field(key string) (Field, bool) {
	if f == nil {
		return Field{}, false
	}
	for _, field := range f.Fields {
		if field.Key == key {
			return field, true
		}
	}
	return Field{}, false
}
