// Package document compiles a claim's forms into the text packet mailed with
// a letter.
package document

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-claimform/internal/storage"
	"github.com/goliatone/go-claimform/pkg/answers"
	"github.com/goliatone/go-claimform/pkg/progress"
	"github.com/goliatone/go-claimform/pkg/template"
	"github.com/goliatone/go-claimform/pkg/visibility"
)

//go:embed templates/*.tpl
var embedded embed.FS

const letterTemplate = "letter.tpl"

// Entry is one answered question.
type Entry struct {
	Key   string
	Label string
	Value string
}

// Section lists the answers of one form.
type Section struct {
	Key     string
	Title   string
	Summary progress.Summary
	Entries []Entry
}

// Packet is the data handed to the letter template.
type Packet struct {
	Sender      string
	From        storage.Address
	To          storage.Address
	Sections    []Section
	GeneratedAt time.Time
}

// Document is a compiled packet.
type Document struct {
	Body []byte
	// Names identifies the enclosed forms, one per section.
	Names []string
}

// Renderer compiles packets with a pongo2 template set.
type Renderer struct {
	registry *template.Registry
	engine   visibility.Evaluator
	set      *pongo2.TemplateSet
	now      func() time.Time

	mu    sync.Mutex
	cache map[string]*pongo2.Template
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithTemplates replaces the embedded letter templates. files must contain
// letter.tpl at its root.
func WithTemplates(files fs.FS) Option {
	return func(r *Renderer) {
		if files != nil {
			r.set = pongo2.NewSet("claimform-letters", pongo2.NewFSLoader(files))
		}
	}
}

// WithClock overrides the generation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) {
		if now != nil {
			r.now = now
		}
	}
}

// WithVisibility evaluates hide expressions with engine instead of the
// programs compiled when templates load.
func WithVisibility(engine visibility.Evaluator) Option {
	return func(r *Renderer) {
		r.engine = engine
	}
}

// New builds a Renderer resolving form titles and labels through registry.
func New(registry *template.Registry, opts ...Option) (*Renderer, error) {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		return nil, fmt.Errorf("document: templates: %w", err)
	}
	r := &Renderer{
		registry: registry,
		set:      pongo2.NewSet("claimform-letters", pongo2.NewFSLoader(sub)),
		now:      time.Now,
		cache:    make(map[string]*pongo2.Template),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

// Compile renders the packet for forms sent by user.
func (r *Renderer) Compile(user storage.User, from, to storage.Address, forms []storage.Form) (Document, error) {
	if r == nil {
		return Document{}, errors.New("document: renderer is nil")
	}
	sections, err := r.Sections(forms)
	if err != nil {
		return Document{}, err
	}

	body, err := r.Render(Packet{
		Sender:      user.Email,
		From:        from,
		To:          to,
		Sections:    sections,
		GeneratedAt: r.now().UTC(),
	})
	if err != nil {
		return Document{}, err
	}

	names := make([]string, 0, len(sections))
	for _, section := range sections {
		names = append(names, section.Key+".txt")
	}
	return Document{Body: body, Names: names}, nil
}

// Sections lists, per form, the answers to fields that are currently asked.
// Answers left behind by fields that are now hidden are omitted. Forms
// without an installed template list their raw answers in key order.
func (r *Renderer) Sections(forms []storage.Form) ([]Section, error) {
	out := make([]Section, 0, len(forms))
	for _, form := range forms {
		tpl, _ := r.registry.Form(form.Key)
		section := Section{Key: form.Key, Title: form.Key, Summary: form.Summary}
		if tpl == nil {
			for _, key := range form.Responses.Keys() {
				if value := form.Responses.Get(key); value.Answered() {
					section.Entries = append(section.Entries, Entry{Key: key, Label: key, Value: value.Display()})
				}
			}
			out = append(out, section)
			continue
		}

		if tpl.Title != "" {
			section.Title = template.PlainText(tpl.Title)
		}
		ctx := visibility.ForModel(form.Responses)
		for _, field := range tpl.AllFields() {
			hidden, err := field.HiddenWith(r.engine, ctx)
			if err != nil {
				return nil, fmt.Errorf("document: form %q: %w", form.Key, err)
			}
			if hidden || !field.Answered(form.Responses) {
				continue
			}
			section.Entries = append(section.Entries, entryFor(field, form.Responses.Get(field.Key)))
		}
		out = append(out, section)
	}
	return out, nil
}

func entryFor(field template.Field, value answers.Value) Entry {
	if field.Implicit() {
		return Entry{Key: field.Key, Label: "Signature", Value: "[signed]"}
	}
	label := template.PlainText(field.Label)
	if label == "" {
		label = field.Key
	}
	display := value.Display()
	for _, opt := range field.Options {
		if answers.Of(opt.Value).Display() == display && opt.Name != "" {
			display = template.PlainText(opt.Name)
			break
		}
	}
	return Entry{Key: field.Key, Label: label, Value: display}
}

// Render executes the letter template for packet.
func (r *Renderer) Render(packet Packet) ([]byte, error) {
	tpl, err := r.load(letterTemplate)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := tpl.ExecuteWriter(pongo2.Context{"packet": packet}, &buf); err != nil {
		return nil, fmt.Errorf("document: execute %s: %w", letterTemplate, err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) load(name string) (*pongo2.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tpl, ok := r.cache[name]; ok {
		return tpl, nil
	}
	tpl, err := r.set.FromFile(name)
	if err != nil {
		return nil, fmt.Errorf("document: load %s: %w", name, err)
	}
	r.cache[name] = tpl
	return tpl, nil
}
