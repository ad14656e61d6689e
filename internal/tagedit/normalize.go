package tagedit

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// MaxTags はノート1件あたりのタグ数上限。
	MaxTags = 20
	// MaxTagLength はタグ1件あたりの文字数上限。
	MaxTagLength = 50
)

// Normalize はエディタと同じ規則（前後空白の除去、空文字の除外、重複除去、挿入順維持）で
// タグ列を正規化し、上限を検証する。サーバー側のバリデーションで使う。
func Normalize(tags []string) ([]string, error) {
	out := make([]string, 0, len(tags))
	for _, raw := range tags {
		tag := strings.TrimSpace(raw)
		if tag == "" || contains(out, tag) {
			continue
		}
		if utf8.RuneCountInString(tag) > MaxTagLength {
			return nil, fmt.Errorf("tag %q exceeds %d characters", tag, MaxTagLength)
		}
		out = append(out, tag)
	}
	if len(out) > MaxTags {
		return nil, fmt.Errorf("too many tags: %d (max %d)", len(out), MaxTags)
	}
	return out, nil
}
