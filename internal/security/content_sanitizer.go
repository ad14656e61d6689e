// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService はノート本文（Markdownから変換したHTML）を
// 許可リストベースでサニタイズする。ユーザーが本文に直接書いたHTMLも
// このポリシーを通過したものだけが表示される。
package security

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService はHTMLサニタイズのインターフェース。
type ContentSanitizerService interface {
	// Sanitize は許可タグのみを残したHTMLを返す。
	// 同一入力に対して常に同一出力を返す。
	Sanitize(rawHTML string) string
}

// contentSanitizer はbluemondayのポリシーを保持する。Sanitizeはスレッドセーフ。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はノート本文用のポリシーを構築する。
//   - 許可タグ: h1〜h4, p, br, hr, ul, ol, li, blockquote, pre, code, strong, em, del, a, img
//   - aタグ: httpsとhttpの絶対URLのみ。target="_blank"とrel="noopener noreferrer"を付与
//   - imgのsrc: httpsのみ
func NewContentSanitizer() *contentSanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"h1", "h2", "h3", "h4",
		"p", "br", "hr",
		"ul", "ol", "li",
		"blockquote", "pre", "code",
		"strong", "em", "del",
	)

	p.AllowAttrs("href").OnElements("a")
	p.AllowRelativeURLs(false)
	p.AllowURLSchemes("https", "http")
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	p.AllowAttrs("alt").OnElements("img")
	p.AllowAttrs("src").Matching(httpsOnly).OnElements("img")

	return &contentSanitizer{policy: p}
}

// Sanitize はHTMLコンテンツをサニタイズして安全なHTMLを返す。
func (s *contentSanitizer) Sanitize(rawHTML string) string {
	return s.policy.Sanitize(rawHTML)
}

var httpsOnly = regexp.MustCompile(`^https://`)
