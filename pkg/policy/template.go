package policy

import (
	"fmt"
	"net/http"
	"strings"
	"text/template"
)

// KeyEvaluator computes the custom fragment appended to a cache key.
type KeyEvaluator interface {
	Evaluate(r *http.Request) (string, error)
}

// KeyEvaluatorFunc adapts a function to KeyEvaluator.
type KeyEvaluatorFunc func(r *http.Request) (string, error)

// Evaluate implements KeyEvaluator.
func (f KeyEvaluatorFunc) Evaluate(r *http.Request) (string, error) {
	return f(r)
}

// TemplateEvaluator evaluates a text/template against the request.
//
// The template data exposes Method, Path, API and Application, and the
// lookups Header "name", Query "name" and Attr "name", for example:
//
//	{{.Query "page"}}-{{.Header "Accept-Language" | lower}}
type TemplateEvaluator struct {
	tmpl *template.Template
}

var templateFuncs = template.FuncMap{
	"lower": strings.ToLower,
	"upper": strings.ToUpper,
	"trim":  strings.TrimSpace,
}

// NewTemplateEvaluator compiles expr. Missing map keys are rendered empty.
func NewTemplateEvaluator(expr string) (*TemplateEvaluator, error) {
	tmpl, err := template.New("cache-key").
		Funcs(templateFuncs).
		Option("missingkey=zero").
		Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("parse key expression: %w", err)
	}
	return &TemplateEvaluator{tmpl: tmpl}, nil
}

// Evaluate implements KeyEvaluator.
func (e *TemplateEvaluator) Evaluate(r *http.Request) (string, error) {
	var sb strings.Builder
	if err := e.tmpl.Execute(&sb, keyData{r: r}); err != nil {
		return "", fmt.Errorf("evaluate key expression: %w", err)
	}
	return sb.String(), nil
}

// keyData is the template view of a request.
type keyData struct {
	r *http.Request
}

func (d keyData) Method() string { return d.r.Method }

func (d keyData) Path() string { return d.r.URL.Path }

func (d keyData) API() string { return APIFromContext(d.r.Context()) }

func (d keyData) Application() string { return ApplicationFromContext(d.r.Context()) }

func (d keyData) Header(name string) string { return d.r.Header.Get(name) }

func (d keyData) Query(name string) string { return d.r.URL.Query().Get(name) }

// Attr looks up a request attribute by name.
func (d keyData) Attr(name string) string {
	switch strings.ToLower(name) {
	case "api":
		return d.API()
	case "application":
		return d.Application()
	case "method":
		return d.Method()
	case "path":
		return d.Path()
	}
	return ""
}
