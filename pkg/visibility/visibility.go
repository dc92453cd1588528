package visibility

// Evaluator reports whether a hide rule holds for a field given the current
// context. A true result means the rule matched (the field is hidden).
type Evaluator interface {
	Eval(fieldPath, rule string, ctx Context) (bool, error)
}

// Context provides the namespaces a rule can reference. Values holds the
// top-level names (for claim forms, "model" is bound to the answer set) while
// Extras lets callers inject additional context such as feature flags,
// reachable through the `extras.` prefix.
type Context struct {
	Values map[string]any
	Extras map[string]any
}

// ModelNamespace is the name hide expressions use to reference responses.
const ModelNamespace = "model"

// ForModel builds a Context binding model to the provided responses.
func ForModel(model any) Context {
	return Context{Values: map[string]any{ModelNamespace: model}}
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(fieldPath, rule string, ctx Context) (bool, error)

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(fieldPath, rule string, ctx Context) (bool, error) {
	return fn(fieldPath, rule, ctx)
}
