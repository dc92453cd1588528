package answers_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-claimform/pkg/answers"
)

func TestValueAnswered(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		value answers.Value
		want  bool
	}{
		{name: "absent", value: answers.Absent(), want: false},
		{name: "empty string", value: answers.String(""), want: false},
		{name: "whitespace", value: answers.String(" "), want: true},
		{name: "text", value: answers.String("x"), want: true},
		{name: "false", value: answers.Bool(false), want: true},
		{name: "zero", value: answers.Number(0), want: true},
		{name: "null", value: answers.Null(), want: true},
		{name: "list", value: answers.Of([]any{}), want: true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.value.Answered(); got != tc.want {
				t.Fatalf("Answered() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestValueTruthy(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		value answers.Value
		want  bool
	}{
		{name: "absent", value: answers.Absent(), want: false},
		{name: "null", value: answers.Null(), want: false},
		{name: "empty string", value: answers.String(""), want: false},
		{name: "string", value: answers.String("data:image/png;base64,AAA"), want: true},
		{name: "true", value: answers.Bool(true), want: true},
		{name: "false", value: answers.Bool(false), want: false},
		{name: "zero", value: answers.Number(0), want: false},
		{name: "nan", value: answers.Number(math.NaN()), want: false},
		{name: "number", value: answers.Number(2), want: true},
		{name: "object", value: answers.Of(map[string]any{}), want: true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.value.Truthy(); got != tc.want {
				t.Fatalf("Truthy() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestOfNormalisesNumbers(t *testing.T) {
	t.Parallel()

	for _, raw := range []any{3, int64(3), float32(3), uint8(3), json.Number("3")} {
		got := answers.Of(raw)
		if n, ok := got.Num(); !ok || n != 3 {
			t.Fatalf("Of(%T) = %#v, want number 3", raw, got)
		}
	}
}

func TestSetGetAndLookup(t *testing.T) {
	t.Parallel()

	set := answers.FromMap(map[string]any{
		"name":         "Ada",
		"address":      map[string]any{"city": "Boston"},
		"contact.mail": "ada@example.com",
	})

	if got := set.Get("missing"); got.Present() {
		t.Fatalf("expected missing key to be absent, got %v", got.Kind())
	}
	if got, _ := set.Lookup("address.city").Str(); got != "Boston" {
		t.Fatalf("nested lookup = %q", got)
	}
	if got, _ := set.Lookup("contact.mail").Str(); got != "ada@example.com" {
		t.Fatalf("flattened lookup = %q", got)
	}
	if got := set.Lookup("address.zip"); got.Present() {
		t.Fatalf("expected absent for missing nested key")
	}

	var nilSet answers.Set
	if nilSet.Get("x").Present() || nilSet.Lookup("x.y").Present() {
		t.Fatalf("nil set should behave as empty")
	}
}

func TestSetJSONRoundTrip(t *testing.T) {
	t.Parallel()

	var set answers.Set
	payload := []byte(`{"a":"x","b":false,"c":0,"d":null,"e":["one"]}`)
	if err := json.Unmarshal(payload, &set); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if set.Get("d").Kind() != answers.KindNull {
		t.Fatalf("expected null kind, got %v", set.Get("d").Kind())
	}
	if set.Get("e").Kind() != answers.KindOther {
		t.Fatalf("expected other kind, got %v", set.Get("e").Kind())
	}

	encoded, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back map[string]any
	if err := json.Unmarshal(encoded, &back); err != nil {
		t.Fatalf("unmarshal encoded: %v", err)
	}
	want := map[string]any{"a": "x", "b": false, "c": float64(0), "d": nil, "e": []any{"one"}}
	if diff := cmp.Diff(want, back); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestToNumber(t *testing.T) {
	t.Parallel()

	if got := answers.String(" 42 ").ToNumber(); got != 42 {
		t.Fatalf("string to number = %v", got)
	}
	if got := answers.String("").ToNumber(); got != 0 {
		t.Fatalf("empty string to number = %v", got)
	}
	if got := answers.String("abc").ToNumber(); !math.IsNaN(got) {
		t.Fatalf("expected NaN, got %v", got)
	}
	if got := answers.Bool(true).ToNumber(); got != 1 {
		t.Fatalf("true to number = %v", got)
	}
	if got := answers.Absent().ToNumber(); !math.IsNaN(got) {
		t.Fatalf("absent should be NaN, got %v", got)
	}
}
