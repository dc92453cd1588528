package expr

import (
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-claimform/pkg/answers"
	"github.com/goliatone/go-claimform/pkg/visibility"
)

// Evaluator is a small, dependency-free hide-expression evaluator.
//
// Supported syntax:
//   - references: `model.a`, `model.address.city`, `extras.flag`
//   - literals: `"text"`, `'text'`, `3`, `-1.5`, `true`, `false`, `null`, `undefined`
//   - comparisons: `==`, `!=`, `===`, `!==`, `<`, `<=`, `>`, `>=`
//   - boolean composition: `!`, `&&`, `||`, parentheses
//
// Anything else (calls, indexing, arithmetic, assignment) is rejected when the
// rule is compiled. Compiled programs are cached per rule string, so a single
// Evaluator can be shared by concurrent callers.
type Evaluator struct {
	cache sync.Map // rule -> *Program
}

// New constructs an Evaluator with an empty program cache.
func New() *Evaluator { return &Evaluator{} }

var _ visibility.Evaluator = (*Evaluator)(nil)

// Eval compiles (or reuses) rule and reports whether it evaluates truthy. A
// blank rule never matches.
func (e *Evaluator) Eval(fieldPath, rule string, ctx visibility.Context) (bool, error) {
	if strings.TrimSpace(rule) == "" {
		return false, nil
	}
	prog, err := e.Compile(rule)
	if err != nil {
		if fieldPath != "" {
			return false, fmt.Errorf("visibility/expr: field %q: %w", fieldPath, err)
		}
		return false, err
	}
	return prog.Eval(ctx), nil
}

// Compile returns the cached program for rule, parsing it on first use.
func (e *Evaluator) Compile(rule string) (*Program, error) {
	if cached, ok := e.cache.Load(rule); ok {
		return cached.(*Program), nil
	}
	prog, err := Compile(rule)
	if err != nil {
		return nil, err
	}
	actual, _ := e.cache.LoadOrStore(rule, prog)
	return actual.(*Program), nil
}

// Program is a parsed, immutable expression.
type Program struct {
	source string
	root   node
	refs   []string
}

// Compile parses rule into a Program. Syntax outside the supported grammar
// yields an *Error.
func Compile(rule string) (*Program, error) {
	tokens, err := tokenize(rule)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, newError(rule, 0, "empty expression")
	}

	p := &parser{source: rule, tokens: tokens}
	root, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if tok, ok := p.peek(); ok {
		return nil, newError(rule, tok.pos, fmt.Sprintf("unexpected %q", tok.raw))
	}
	return &Program{source: rule, root: root, refs: p.refs}, nil
}

// MustCompile is like Compile but panics on error. Intended for tests and
// package-level fixtures.
func MustCompile(rule string) *Program {
	prog, err := Compile(rule)
	if err != nil {
		panic(err)
	}
	return prog
}

// Eval reports whether the program evaluates truthy against ctx.
func (p *Program) Eval(ctx visibility.Context) bool {
	return p.Value(ctx).Truthy()
}

// Value evaluates the program and returns the raw result. `a || b` yields the
// first truthy operand (or the last one) rather than a coerced bool.
func (p *Program) Value(ctx visibility.Context) answers.Value {
	if p == nil || p.root == nil {
		return answers.Absent()
	}
	return p.root.eval(ctx)
}

// String returns the source the program was compiled from.
func (p *Program) String() string {
	if p == nil {
		return ""
	}
	return p.source
}

// References lists the dotted paths the program reads, in source order,
// without duplicates.
func (p *Program) References() []string {
	if p == nil || len(p.refs) == 0 {
		return nil
	}
	out := make([]string, len(p.refs))
	copy(out, p.refs)
	return out
}
