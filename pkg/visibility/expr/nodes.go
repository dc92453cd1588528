package expr

import (
	"math"
	"strings"

	"github.com/goliatone/go-claimform/pkg/answers"
	"github.com/goliatone/go-claimform/pkg/visibility"
)

type node interface {
	eval(ctx visibility.Context) answers.Value
}

type orNode struct {
	left  node
	right node
}

func (n orNode) eval(ctx visibility.Context) answers.Value {
	left := n.left.eval(ctx)
	if left.Truthy() {
		return left
	}
	return n.right.eval(ctx)
}

type andNode struct {
	left  node
	right node
}

func (n andNode) eval(ctx visibility.Context) answers.Value {
	left := n.left.eval(ctx)
	if !left.Truthy() {
		return left
	}
	return n.right.eval(ctx)
}

type notNode struct {
	inner node
}

func (n notNode) eval(ctx visibility.Context) answers.Value {
	return answers.Bool(!n.inner.eval(ctx).Truthy())
}

type literalNode struct {
	value answers.Value
}

func (n literalNode) eval(visibility.Context) answers.Value {
	return n.value
}

type refNode struct {
	path string
}

func (n refNode) eval(ctx visibility.Context) answers.Value {
	return lookup(ctx, n.path)
}

type compareNode struct {
	op    tokenKind
	left  node
	right node
}

func (n compareNode) eval(ctx visibility.Context) answers.Value {
	left := n.left.eval(ctx)
	right := n.right.eval(ctx)

	switch n.op {
	case tokenEq:
		return answers.Bool(looseEqual(left, right))
	case tokenNeq:
		return answers.Bool(!looseEqual(left, right))
	case tokenStrictEq:
		return answers.Bool(strictEqual(left, right))
	case tokenStrictNeq:
		return answers.Bool(!strictEqual(left, right))
	default:
		return answers.Bool(relational(n.op, left, right))
	}
}

func nullish(v answers.Value) bool {
	return v.Kind() == answers.KindAbsent || v.Kind() == answers.KindNull
}

// looseEqual mirrors `==`: null and undefined only equal each other, booleans
// compare as numbers, and strings compare numerically against numbers.
func looseEqual(a, b answers.Value) bool {
	if nullish(a) || nullish(b) {
		return nullish(a) && nullish(b)
	}
	if a.Kind() == b.Kind() {
		return strictEqual(a, b)
	}
	if a.Kind() == answers.KindBool {
		return looseEqual(answers.Number(a.ToNumber()), b)
	}
	if b.Kind() == answers.KindBool {
		return looseEqual(a, answers.Number(b.ToNumber()))
	}
	if isPrimitive(a) && isPrimitive(b) {
		x, y := a.ToNumber(), b.ToNumber()
		return !math.IsNaN(x) && x == y
	}
	return false
}

// strictEqual mirrors `===`. Opaque values (lists, objects) never compare
// equal because they have no identity once decoded.
func strictEqual(a, b answers.Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case answers.KindAbsent, answers.KindNull:
		return true
	case answers.KindString:
		x, _ := a.Str()
		y, _ := b.Str()
		return x == y
	case answers.KindBool:
		x, _ := a.BoolValue()
		y, _ := b.BoolValue()
		return x == y
	case answers.KindNumber:
		x, _ := a.Num()
		y, _ := b.Num()
		return x == y
	default:
		return false
	}
}

func isPrimitive(v answers.Value) bool {
	switch v.Kind() {
	case answers.KindString, answers.KindNumber, answers.KindBool:
		return true
	default:
		return false
	}
}

func relational(op tokenKind, a, b answers.Value) bool {
	if as, ok := a.Str(); ok {
		if bs, ok := b.Str(); ok {
			c := strings.Compare(as, bs)
			switch op {
			case tokenLt:
				return c < 0
			case tokenLte:
				return c <= 0
			case tokenGt:
				return c > 0
			default:
				return c >= 0
			}
		}
	}

	x, y := a.ToNumber(), b.ToNumber()
	if math.IsNaN(x) || math.IsNaN(y) {
		return false
	}
	switch op {
	case tokenLt:
		return x < y
	case tokenLte:
		return x <= y
	case tokenGt:
		return x > y
	default:
		return x >= y
	}
}

func lookup(ctx visibility.Context, path string) answers.Value {
	if rest, ok := strings.CutPrefix(path, "extras."); ok {
		return lookupIn(ctx.Extras, rest)
	}
	return lookupIn(ctx.Values, path)
}

func lookupIn(values map[string]any, path string) answers.Value {
	if len(values) == 0 || path == "" {
		return answers.Absent()
	}
	// Prefer exact match for dotted keys.
	if v, ok := values[path]; ok {
		return answers.Of(v)
	}

	var current any = values
	for _, part := range strings.Split(path, ".") {
		if wrapped, ok := current.(answers.Value); ok {
			current = wrapped.Interface()
		}
		switch typed := current.(type) {
		case map[string]any:
			next, ok := typed[part]
			if !ok {
				return answers.Absent()
			}
			current = next
		case map[string]string:
			next, ok := typed[part]
			if !ok {
				return answers.Absent()
			}
			current = next
		case answers.Set:
			next := typed.Get(part)
			if !next.Present() {
				return answers.Absent()
			}
			current = next
		default:
			return answers.Absent()
		}
	}
	return answers.Of(current)
}
