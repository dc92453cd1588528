// Package answers models the responses a user submits for a claim form. Each
// response is a tagged Value (string, bool, number, null, opaque, or absent)
// so callers ask explicit questions such as Answered or Truthy instead of
// relying on ad hoc zero-value checks. A field is answered when its key is
// present and the value is not the empty string; false and 0 are answers.
package answers
