package sanitize

import (
	"bytes"
	"html"
	"html/template"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	blockTags  = regexp.MustCompile(`<br\s*/?>|</?p>|</?div>|</?pre>|</?h[1-6]>|</?li>`)
	blankLines = regexp.MustCompile(`\n\s*\n+`)
)

// Policy renders user-written Markdown into HTML that is safe to embed in a page.
type Policy struct {
	html     *bluemonday.Policy
	strict   *bluemonday.Policy
	markdown goldmark.Markdown
}

func NewPolicy() *Policy {
	ugc := bluemonday.UGCPolicy()
	ugc.RequireNoFollowOnLinks(true)
	ugc.AddTargetBlankToFullyQualifiedLinks(true)
	return &Policy{
		html:     ugc,
		strict:   bluemonday.StrictPolicy(),
		markdown: goldmark.New(goldmark.WithExtensions(extension.Linkify, extension.Strikethrough)),
	}
}

// RenderMarkdown converts a listing description to sanitised HTML.
func (p *Policy) RenderMarkdown(text string) template.HTML {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := p.markdown.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(p.html.SanitizeBytes(buf.Bytes()))
}

// PlainText strips Markdown and HTML, for card excerpts and meta tags.
func (p *Policy) PlainText(text string, maxRunes int) string {
	if text == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := p.markdown.Convert([]byte(text), &buf); err != nil {
		return text
	}
	out := blockTags.ReplaceAllString(buf.String(), "\n")
	out = p.strict.Sanitize(out)
	out = blankLines.ReplaceAllString(out, "\n\n")
	out = strings.TrimSpace(html.UnescapeString(out))

	if maxRunes > 0 {
		if r := []rune(out); len(r) > maxRunes {
			out = strings.TrimSpace(string(r[:maxRunes])) + "…"
		}
	}
	return out
}
