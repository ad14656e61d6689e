package note

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/hitoshi/foodjournal/internal/security"
)

// Renderer はMarkdownの本文を表示用の安全なHTMLに変換する。
type Renderer struct {
	md        goldmark.Markdown
	sanitizer security.ContentSanitizerService
}

// NewRenderer はRendererを生成する。
func NewRenderer(sanitizer security.ContentSanitizerService) *Renderer {
	return &Renderer{
		md:        goldmark.New(goldmark.WithExtensions(extension.Strikethrough, extension.Linkify)),
		sanitizer: sanitizer,
	}
}

// Render はMarkdownをHTMLに変換し、サニタイズして返す。
func (r *Renderer) Render(body string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return r.sanitizer.Sanitize(buf.String()), nil
}
