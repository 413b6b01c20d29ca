package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var files embed.FS

// MustParse loads every page template; called once at startup.
func MustParse() *template.Template {
	return template.Must(template.ParseFS(files, "templates/*.html"))
}
