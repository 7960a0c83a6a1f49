// Package lesson renders vocabulary lesson pages, stores them and records
// them in the student's link list.
package lesson

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
)

//go:embed lesson.html.tmpl
var pageTemplate string

// Page is the data a lesson page is rendered from.
type Page struct {
	StudentID   int64
	StudentName string
	StartRank   int
	EndRank     int
	Words       []string

	// ProgressURL is where the page posts {studentId, learnedWords}.
	ProgressURL string
}

// Renderer turns a Page into a self-contained HTML document.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded page template.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("lesson").Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing lesson template: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render executes the template. Names and words are escaped for their
// context, including inside the embedded script.
func (r *Renderer) Render(p Page) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, p); err != nil {
		return nil, fmt.Errorf("rendering lesson: %w", err)
	}
	return buf.Bytes(), nil
}
