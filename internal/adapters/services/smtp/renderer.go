package smtp

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/flosch/pongo2/v6"

	"gitlab.com/eatsapp/accounts-backend/internal/domain/valueobject/mails"
)

// Renderer turns a mail payload into an HTML body using templates compiled
// once at construction. A payload's Template names a file without ".html".
type Renderer struct {
	templates map[string]*pongo2.Template
}

// NewRenderer compiles every *.html file found directly under dir in fsys.
func NewRenderer(fsys fs.FS, dir string) (*Renderer, error) {
	files, err := fs.Glob(fsys, path.Join(dir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("failed to list mail templates: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no mail templates found in %q", dir)
	}

	r := &Renderer{templates: make(map[string]*pongo2.Template, len(files))}
	for _, file := range files {
		raw, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("failed to read mail template %s: %w", file, err)
		}
		tpl, err := pongo2.FromBytes(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to compile mail template %s: %w", file, err)
		}
		r.templates[strings.TrimSuffix(path.Base(file), ".html")] = tpl
	}

	return r, nil
}

func (r *Renderer) Render(p mails.Payload) (string, error) {
	tpl, ok := r.templates[p.Template]
	if !ok {
		return "", fmt.Errorf("unknown mail template %q", p.Template)
	}

	body, err := tpl.Execute(pongo2.Context(p.Context()))
	if err != nil {
		return "", fmt.Errorf("failed to render mail template %q: %w", p.Template, err)
	}
	return body, nil
}

func (r *Renderer) Has(name string) bool {
	_, ok := r.templates[name]
	return ok
}
