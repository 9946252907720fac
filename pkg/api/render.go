package api

import (
	"embed"
	"html/template"
	"io"

	"github.com/labstack/echo"
	"github.com/pkg/errors"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{
	"index",
	"search",
	"results",
	"delete",
	"add",
	"update",
	"display",
	"uploadcsv",
	"uploadresult",
}

// Renderer executes the page templates for echo
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer parses every page together with the shared layout
func NewRenderer() (*Renderer, error) {
	r := &Renderer{templates: make(map[string]*template.Template, len(pages))}

	for _, name := range pages {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse template %s", name)
		}
		r.templates[name] = t
	}

	return r, nil
}

// Render implements echo.Renderer
func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	t, ok := r.templates[name]
	if !ok {
		return errors.Errorf("template %s not found", name)
	}

	return t.ExecuteTemplate(w, "layout", data)
}
