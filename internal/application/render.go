package application

import (
	"bytes"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/threadboard/threadboard/internal/domain/model"
)

var (
	mdRenderer    goldmark.Markdown
	htmlSanitizer *bluemonday.Policy
)

func init() {
	mdRenderer = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(goldmarkhtml.WithUnsafe()),
	)

	htmlSanitizer = bluemonday.UGCPolicy()
	htmlSanitizer.AllowAttrs("class", "data-mention-type", "data-mention-label").OnElements("span")
}

// RenderCommentHTML converts comment content to sanitized HTML, replacing
// resolved mention tokens with annotated spans the front end can wire click
// handlers to. Unresolved tokens pass through as plain text.
// Returns empty string for empty input.
func RenderCommentHTML(content string, idx *MentionIndex) string {
	if content == "" {
		return ""
	}

	source := content
	if idx != nil {
		source = mentionMarkup(content, idx)
	}

	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(source), &buf); err != nil {
		return htmlSanitizer.Sanitize(source)
	}

	return htmlSanitizer.Sanitize(buf.String())
}

// mentionMarkup rewrites mention tokens into raw HTML spans ahead of the
// markdown pass.
func mentionMarkup(content string, idx *MentionIndex) string {
	var buf strings.Builder

	for _, seg := range idx.Tokenize(content) {
		if seg.Mention == nil {
			buf.WriteString(seg.Text)
			continue
		}

		buf.WriteString(`<span class="mention" data-mention-type="`)
		buf.WriteString(string(seg.Mention.Type))
		buf.WriteString(`" data-mention-label="`)
		buf.WriteString(html.EscapeString(seg.Mention.Label))
		buf.WriteString(`">`)
		buf.WriteString(html.EscapeString(seg.Text))
		buf.WriteString(`</span>`)
	}

	return buf.String()
}

// RenderMentionMeta is a convenience for pickers: the catalog entry's label
// plus meta line, e.g. "Draft homepage wireframe - Apr 1, 2026".
func RenderMentionMeta(item model.MentionItem) string {
	if item.Meta == "" {
		return item.Label
	}
	return item.Label + " - " + item.Meta
}
