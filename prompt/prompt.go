package prompt

import (
	"fmt"
	"strings"
	"text/template"
)

// Template represents a prompt template with named input variables
type Template struct {
	Name           string
	Content        string
	InputVariables []string
	template       *template.Template
}

// NewTemplate creates a new prompt template. Rendering fails when any of the
// declared input variables is not supplied.
func NewTemplate(name, content string, inputVariables ...string) (*Template, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	return &Template{
		Name:           name,
		Content:        content,
		InputVariables: inputVariables,
		template:       tmpl,
	}, nil
}

// Render renders the template with given variables
func (t *Template) Render(vars map[string]any) (string, error) {
	for _, name := range t.InputVariables {
		if _, ok := vars[name]; !ok {
			return "", fmt.Errorf("template %s: missing variable %q", t.Name, name)
		}
	}
	var buf strings.Builder
	if err := t.template.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return buf.String(), nil
}
