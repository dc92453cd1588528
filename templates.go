// Package claimform bundles the default claim form templates.
package claimform

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/goliatone/go-claimform/pkg/template"
)

//go:embed forms/*.yaml
var embeddedForms embed.FS

// FormsFS exposes the built-in form templates so callers can list or copy
// them without loading a registry.
func FormsFS() fs.FS {
	sub, err := fs.Sub(embeddedForms, "forms")
	if err != nil {
		return embeddedForms
	}
	return sub
}

// DefaultTemplates parses the built-in form templates.
func DefaultTemplates() (*template.Registry, error) {
	reg, err := template.LoadFS(FormsFS())
	if err != nil {
		return nil, fmt.Errorf("claimform: default templates: %w", err)
	}
	return reg, nil
}

// LoadTemplates parses templates from dir, or the built-in set when dir is
// blank.
func LoadTemplates(dir string) (*template.Registry, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return DefaultTemplates()
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("claimform: templates dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("claimform: templates dir %s is not a directory", dir)
	}
	return template.LoadFS(os.DirFS(dir))
}
