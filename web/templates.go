package web

import (
	"embed"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/jualearn/jualearn-web/core/session"
)

//go:embed templates/*.html
var templatesFS embed.FS

// pageData is the envelope every template receives.
type pageData struct {
	Title   string
	Session session.Session
	Theme   string
	Error   string
	Fields  map[string]string
	Data    interface{}
}

type renderer struct {
	pages map[string]*template.Template
}

var pageNames = []string{
	"login", "register", "dashboard", "subjects", "lessons", "assignments",
	"quizzes", "enrollments", "notifications", "users", "search", "profile",
	"error",
}

func newRenderer() (*renderer, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.ParseFS(templatesFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, errors.Wrapf(err, "parsing template %q", name)
		}
		pages[name] = tmpl
	}
	return &renderer{pages: pages}, nil
}

func (r *renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return errors.Errorf("unknown template %q", name)
	}
	return tmpl.ExecuteTemplate(w, "base", data)
}
