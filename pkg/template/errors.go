package template

import (
	"errors"
	"fmt"
	"strings"
)

// ErrReservedKey is returned when a template declares a field using a key the
// service manages implicitly.
var ErrReservedKey = errors.New("template: reserved field key")

// ConfigError describes a defective template definition. It wraps the
// underlying cause (for example an *expr.Error for a malformed hide
// expression) so callers can use errors.As.
type ConfigError struct {
	Source string
	Form   string
	Field  string
	Err    error
}

func (e *ConfigError) Error() string {
	var parts []string
	if e.Source != "" {
		parts = append(parts, "file "+e.Source)
	}
	if e.Form != "" {
		parts = append(parts, fmt.Sprintf("form %q", e.Form))
	}
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field %q", e.Field))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("template: %v", e.Err)
	}
	return fmt.Sprintf("template: %s: %v", strings.Join(parts, " "), e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }
