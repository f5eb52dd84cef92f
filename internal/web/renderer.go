package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{"dashboard.html", "records.html"}

var funcs = template.FuncMap{
	"date": func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format("2006-01-02 15:04")
	},
	"price": func(p *float64, currency string) string {
		if p == nil {
			return ""
		}
		return strings.TrimSpace(fmt.Sprintf("%.2f %s", *p, currency))
	},
}

// TemplateRenderer renders the embedded dashboard pages for echo.
type TemplateRenderer struct {
	Templates map[string]*template.Template
}

// NewRenderer parses every page together with the shared layout.
func NewRenderer() (*TemplateRenderer, error) {
	r := &TemplateRenderer{Templates: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		tmpl, err := template.New(page).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		r.Templates[page] = tmpl
	}
	return r, nil
}

func (t *TemplateRenderer) Render(w io.Writer, name string, data any, c echo.Context) error {
	tmpl, ok := t.Templates[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}
	return tmpl.ExecuteTemplate(w, "layout.html", data)
}
