package expr

import "fmt"

// Error reports a rule that cannot be compiled. Pos is the byte offset in
// Expr where the problem was detected.
type Error struct {
	Expr string
	Pos  int
	Msg  string
}

func newError(source string, pos int, msg string) *Error {
	return &Error{Expr: source, Pos: pos, Msg: msg}
}

func (e *Error) Error() string {
	return fmt.Sprintf("visibility/expr: %s at offset %d in %q", e.Msg, e.Pos, e.Expr)
}
