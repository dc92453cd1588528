package template

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Registry keeps parsed form templates keyed by template key. It is safe for
// concurrent readers when treated as immutable after construction.
type Registry struct {
	forms map[string]*Form
}

// NewRegistry builds a registry from already-assembled forms.
func NewRegistry(forms ...*Form) (*Registry, error) {
	reg := &Registry{forms: make(map[string]*Form, len(forms))}
	for _, form := range forms {
		if form == nil {
			continue
		}
		if err := reg.add(form); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// LoadFS walks the provided filesystem and parses JSON/YAML form templates.
// A file's template key is its `key` property, or the file name without
// extension when the property is absent. When fsys is nil the returned
// registry is empty.
func LoadFS(fsys fs.FS) (*Registry, error) {
	reg := &Registry{forms: make(map[string]*Form)}
	if fsys == nil {
		return reg, nil
	}

	err := fs.WalkDir(fsys, ".", func(p string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isTemplateFile(p) {
			return nil
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("template: read %s: %w", p, err)
		}

		form, err := ParseForm(data, p)
		if err != nil {
			return err
		}
		return reg.add(form)
	})
	if err != nil {
		return nil, err
	}

	return reg, nil
}

func (r *Registry) add(form *Form) error {
	if _, exists := r.forms[form.Key]; exists {
		return &ConfigError{Source: form.Source, Form: form.Key, Err: fmt.Errorf("duplicate template key")}
	}
	r.forms[form.Key] = form
	return nil
}

// Form returns the template registered under key.
func (r *Registry) Form(key string) (*Form, bool) {
	if r == nil {
		return nil, false
	}
	form, ok := r.forms[key]
	return form, ok
}

// Keys returns the registered template keys in sorted order.
func (r *Registry) Keys() []string {
	if r == nil {
		return nil
	}
	keys := make([]string, 0, len(r.forms))
	for key := range r.forms {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Len reports how many templates the registry holds.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.forms)
}

type formFile struct {
	Key         string      `json:"key" yaml:"key"`
	Title       string      `json:"title" yaml:"title"`
	Description string      `json:"description" yaml:"description"`
	Fields      []fieldFile `json:"fields" yaml:"fields"`
}

type fieldFile struct {
	Key             string          `json:"key" yaml:"key"`
	Type            string          `json:"type" yaml:"type"`
	HideExpression  string          `json:"hideExpression" yaml:"hideExpression"`
	TemplateOptions templateOptions `json:"templateOptions" yaml:"templateOptions"`
}

type templateOptions struct {
	Label       string   `json:"label" yaml:"label"`
	Description string   `json:"description" yaml:"description"`
	Optional    bool     `json:"optional" yaml:"optional"`
	Options     []Option `json:"options" yaml:"options"`
}

// ParseForm decodes a single JSON or YAML template. source is used for error
// reporting and as the fallback template key.
func ParseForm(data []byte, source string) (*Form, error) {
	doc, err := parseDocument(data, source)
	if err != nil {
		return nil, err
	}

	key := strings.TrimSpace(doc.Key)
	if key == "" {
		key = strings.TrimSuffix(path.Base(source), path.Ext(source))
	}

	form := &Form{
		Key:         key,
		Title:       sanitizeText(doc.Title),
		Description: sanitizeText(doc.Description),
		Source:      source,
		Fields:      make([]Field, 0, len(doc.Fields)),
	}
	for _, raw := range doc.Fields {
		form.Fields = append(form.Fields, Field{
			Key:            raw.Key,
			Type:           strings.TrimSpace(raw.Type),
			Label:          sanitizeText(raw.TemplateOptions.Label),
			Help:           sanitizeText(raw.TemplateOptions.Description),
			Optional:       raw.TemplateOptions.Optional,
			HideExpression: raw.HideExpression,
			Options:        append([]Option(nil), raw.TemplateOptions.Options...),
		})
	}

	if err := form.validate(); err != nil {
		return nil, err
	}
	return form, nil
}

func parseDocument(data []byte, source string) (formFile, error) {
	var doc formFile
	if len(strings.TrimSpace(string(data))) == 0 {
		return formFile{}, &ConfigError{Source: source, Err: fmt.Errorf("file is empty")}
	}

	if err := json.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}

	doc = formFile{}
	if err := yaml.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}

	return formFile{}, &ConfigError{Source: source, Err: fmt.Errorf("invalid JSON or YAML")}
}

func isTemplateFile(p string) bool {
	switch strings.ToLower(path.Ext(p)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// LintFS parses every template in fsys and reports each defect instead of
// stopping at the first one. Duplicate template keys are reported against
// the later file. A nil result means LoadFS would succeed.
func LintFS(fsys fs.FS) []error {
	if fsys == nil {
		return nil
	}

	var problems []error
	seen := make(map[string]string)
	err := fs.WalkDir(fsys, ".", func(p string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			problems = append(problems, &ConfigError{Source: p, Err: walkErr})
			return nil
		}
		if entry.IsDir() || !isTemplateFile(p) {
			return nil
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			problems = append(problems, &ConfigError{Source: p, Err: err})
			return nil
		}
		form, err := ParseForm(data, p)
		if err != nil {
			problems = append(problems, err)
			return nil
		}
		if first, dup := seen[form.Key]; dup {
			problems = append(problems, &ConfigError{
				Source: p,
				Form:   form.Key,
				Err:    fmt.Errorf("duplicate template key, first declared in %s", first),
			})
			return nil
		}
		seen[form.Key] = p
		return nil
	})
	if err != nil {
		problems = append(problems, err)
	}
	return problems
}
