package document

import (
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	claimform "github.com/goliatone/go-claimform"
	"github.com/goliatone/go-claimform/internal/logging"
	"github.com/goliatone/go-claimform/internal/storage"
	"github.com/goliatone/go-claimform/pkg/answers"
	"github.com/goliatone/go-claimform/pkg/progress"
	"github.com/goliatone/go-claimform/pkg/template"
	"github.com/goliatone/go-claimform/pkg/testsupport"
	"github.com/goliatone/go-claimform/pkg/visibility"
)

func testRegistry(t *testing.T) *template.Registry {
	t.Helper()
	married := template.MustField("married", false, "")
	married.Label = "Are you <b>married</b>?"
	married.Options = []template.Option{{Name: "Yes &amp; happily", Value: "yes"}, {Name: "No", Value: "no"}}
	spouse := template.MustField("spouse", false, "model.married != 'yes'")
	spouse.Label = "Spouse name"

	form := template.MustForm("marital", married, spouse)
	form.Title = "Marital <i>status</i>"
	reg, err := template.NewRegistry(form)
	require.NoError(t, err)
	return reg
}

func fixedClock() time.Time {
	return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
}

func TestSectionsListsVisibleAnswers(t *testing.T) {
	r, err := New(testRegistry(t))
	require.NoError(t, err)

	sections, err := r.Sections([]storage.Form{
		{Key: "marital", Responses: answers.Set{
			"married":   answers.String("no"),
			"spouse":    answers.String("left over"),
			"signature": answers.String("data:image/png;base64,AA"),
		}},
		{Key: "unknown", Responses: answers.Set{"b": answers.Bool(true), "a": answers.String(""), "c": answers.Number(3)}},
	})
	require.NoError(t, err)
	require.Len(t, sections, 2)

	marital := sections[0]
	assert.Equal(t, "Marital status", marital.Title)
	assert.Equal(t, []Entry{
		{Key: "signature", Label: "Signature", Value: "[signed]"},
		{Key: "married", Label: "Are you married?", Value: "No"},
	}, marital.Entries)

	unknown := sections[1]
	assert.Equal(t, "unknown", unknown.Title)
	assert.Equal(t, []Entry{
		{Key: "b", Label: "b", Value: "yes"},
		{Key: "c", Label: "c", Value: "3"},
	}, unknown.Entries)
}

func TestCompile(t *testing.T) {
	r, err := New(testRegistry(t), WithClock(fixedClock))
	require.NoError(t, err)

	doc, err := r.Compile(
		storage.User{Email: "vet@example.com"},
		storage.Address{Name: "Ada Lovelace", Street1: "1 Main St", City: "Springfield", Province: "IL", Postal: "62701", Country: "US"},
		storage.Address{Name: "Evidence Intake Center", Street1: "PO Box 4444", Street2: "Attn: Claims", City: "Janesville", Province: "WI", Postal: "53547", Country: "US"},
		[]storage.Form{{
			Key:       "marital",
			Responses: answers.Set{"married": answers.String("yes"), "spouse": answers.String("Grace <3")},
			Summary:   progress.Summary{RequiredQuestions: 3, AnsweredRequired: 2},
		}},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"marital.txt"}, doc.Names)

	body := string(doc.Body)
	for _, want := range []string{
		"Prepared for vet@example.com on May 6, 2024",
		"Evidence Intake Center",
		"Attn: Claims",
		"Springfield, IL 62701",
		"- Marital status (marital): 2 of 3 required answered",
		"==== MARITAL STATUS ====",
		"Are you married?: Yes & happily",
		"Spouse name: Grace <3",
	} {
		assert.True(t, strings.Contains(body, want), "missing %q in:\n%s", want, body)
	}
}

func TestCompileEmptyForm(t *testing.T) {
	r, err := New(nil, WithClock(fixedClock))
	require.NoError(t, err)

	doc, err := r.Compile(storage.User{Email: "vet@example.com"}, storage.Address{}, storage.Address{},
		[]storage.Form{{Key: "blank", Responses: answers.Set{}}})
	require.NoError(t, err)
	assert.Contains(t, string(doc.Body), "(no answers)")
}

func TestWithTemplates(t *testing.T) {
	files := fstest.MapFS{"letter.tpl": {Data: []byte("{{ packet.Sender }}:{{ packet.Sections|length }}")}}
	r, err := New(nil, WithTemplates(files))
	require.NoError(t, err)

	doc, err := r.Compile(storage.User{Email: "a@b.c"}, storage.Address{}, storage.Address{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "a@b.c:0", string(doc.Body))
}

func TestSectionsGolden(t *testing.T) {
	reg, err := claimform.DefaultTemplates()
	require.NoError(t, err)
	r, err := New(reg)
	require.NoError(t, err)

	const key = "VBA-21-0966-ARE"
	form, ok := reg.Form(key)
	require.True(t, ok)

	responses := testsupport.MustLoadAnswers(t, "testdata/intent_to_file.answers.json")
	summary, err := progress.New(progress.WithLogger(logging.Discard())).Compute(form, responses)
	require.NoError(t, err)

	got, err := r.Sections([]storage.Form{{Key: key, Responses: responses, Summary: summary}})
	require.NoError(t, err)

	golden := "testdata/intent_to_file.sections.json"
	testsupport.WriteGolden(t, golden, got)

	var want []Section
	testsupport.MustLoadGolden(t, golden, &want)
	if diff := testsupport.CompareGolden(want, got); diff != "" {
		t.Fatalf("sections mismatch (-want +got):\n%s", diff)
	}
}

func TestSectionsWithVisibilityEngine(t *testing.T) {
	hideAll := visibility.EvaluatorFunc(func(string, string, visibility.Context) (bool, error) {
		return true, nil
	})
	r, err := New(testRegistry(t), WithVisibility(hideAll))
	require.NoError(t, err)

	sections, err := r.Sections([]storage.Form{{Key: "marital", Responses: answers.Set{
		"married": answers.String("yes"),
		"spouse":  answers.String("Grace"),
	}}})
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Equal(t, []Entry{{Key: "married", Label: "Are you married?", Value: "Yes & happily"}}, sections[0].Entries)
}
