// Package template loads claim form templates. A template is an ordered list
// of fields in the formly shape used by the web client: each field has a key,
// templateOptions (label, description, optional) and an optional
// hideExpression. Hide expressions are compiled when the template is loaded,
// so a Registry never holds a template whose visibility rules cannot run.
// Registries are immutable after construction and safe for concurrent use.
package template
