package lesson

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

// parsedPage holds the parts of a rendered lesson the tests look at.
type parsedPage struct {
	title  string
	h1     string
	words  []string
	script string
}

func parsePage(t *testing.T, doc []byte) parsedPage {
	t.Helper()
	root, err := html.Parse(bytes.NewReader(doc))
	require.NoError(t, err)

	var p parsedPage
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				p.title = text(n)
			case "h1":
				p.h1 = text(n)
			case "script":
				p.script = text(n)
			case "input":
				if attr(n, "type") == "checkbox" {
					p.words = append(p.words, attr(n, "value"))
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return p
}

func text(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return strings.TrimSpace(sb.String())
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func TestRender(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	doc, err := r.Render(Page{
		StudentID:   42,
		StudentName: "Ana",
		StartRank:   11,
		EndRank:     13,
		Words:       []string{"at", "be", "this"},
		ProgressURL: "/api/progress",
	})
	require.NoError(t, err)

	p := parsePage(t, doc)
	assert.Contains(t, p.title, "Ana")
	assert.Contains(t, p.h1, "11")
	assert.Contains(t, p.h1, "13")
	assert.Equal(t, []string{"at", "be", "this"}, p.words)
	assert.Contains(t, p.script, "42")
	assert.Contains(t, p.script, "progress")
	assert.Contains(t, p.script, "learnedWords")
	assert.Contains(t, p.script, "studentId")
}

func TestRender_EscapesName(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	name := `<script>alert("x")</script>`
	doc, err := r.Render(Page{StudentID: 1, StudentName: name, StartRank: 1, EndRank: 1, Words: []string{"the"}})
	require.NoError(t, err)

	assert.NotContains(t, string(doc), name)
	assert.Equal(t, "Vocabulary lesson for "+name, parsePage(t, doc).title)
}
