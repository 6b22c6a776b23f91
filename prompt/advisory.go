package prompt

import (
	_ "embed"
)

//go:embed templates/advisory.tmpl
var advisoryText string

// Advisory is the fixed instruction sent to the agent for every farmer
// question. It is immutable and safe for concurrent use.
type Advisory struct {
	tmpl *Template
}

// NewAdvisory parses the embedded advisory template.
func NewAdvisory() (*Advisory, error) {
	tmpl, err := NewTemplate("advisory", advisoryText, "context", "question", "pincode")
	if err != nil {
		return nil, err
	}
	return &Advisory{tmpl: tmpl}, nil
}

// Assemble substitutes the three inputs verbatim. Values are never parsed as
// template syntax, so any string, including an empty one, is accepted.
func (a *Advisory) Assemble(context, question, pincode string) string {
	out, err := a.tmpl.Render(map[string]any{
		"context":  context,
		"question": question,
		"pincode":  pincode,
	})
	if err != nil {
		// All variables are always supplied and string values cannot fail to print.
		panic(err)
	}
	return out
}

// Text returns the raw template.
func (a *Advisory) Text() string {
	return a.tmpl.Content
}
