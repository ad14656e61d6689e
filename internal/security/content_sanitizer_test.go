package security

import (
	"strings"
	"testing"
)

func TestSanitize_AllowedTags(t *testing.T) {
	sanitizer := NewContentSanitizer()

	tests := []struct {
		name         string
		input        string
		wantContains []string
	}{
		{"見出しが許可される", "<h2>おすすめメニュー</h2>", []string{"<h2>おすすめメニュー</h2>"}},
		{"段落が許可される", "<p>スープが濃厚</p>", []string{"<p>スープが濃厚</p>"}},
		{"リストが許可される", "<ul><li>醤油</li><li>味噌</li></ul>", []string{"<ul>", "<li>醤油</li>", "</ul>"}},
		{"順序付きリストが許可される", "<ol><li>茹でる</li></ol>", []string{"<ol>", "<li>茹でる</li>"}},
		{"引用が許可される", "<blockquote>店主の一言</blockquote>", []string{"<blockquote>店主の一言</blockquote>"}},
		{"コードが許可される", "<pre><code>200g</code></pre>", []string{"<pre><code>200g</code></pre>"}},
		{"強調が許可される", "<strong>必食</strong><em>辛め</em><del>売切</del>", []string{"<strong>必食</strong>", "<em>辛め</em>", "<del>売切</del>"}},
		{"水平線が許可される", "<hr>", []string{"<hr>"}},
		{"https画像が許可される", `<img src="https://example.com/ramen.jpg" alt="ラーメン">`, []string{`src="https://example.com/ramen.jpg"`, `alt="ラーメン"`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.Sanitize(tt.input)
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("Sanitize(%q) = %q, expected to contain %q", tt.input, got, want)
				}
			}
		})
	}
}

func TestSanitize_ForbiddenContent(t *testing.T) {
	sanitizer := NewContentSanitizer()

	tests := []struct {
		name       string
		input      string
		wantAbsent []string
	}{
		{"scriptタグ", `<p>ok</p><script>alert('xss')</script>`, []string{"<script", "alert"}},
		{"iframeタグ", `<iframe src="https://evil.example"></iframe>`, []string{"<iframe", "evil.example"}},
		{"styleタグ", `<style>body{display:none}</style>`, []string{"<style", "display:none"}},
		{"divタグ", `<div><p>ok</p></div>`, []string{"<div"}},
		{"onイベント属性", `<p onclick="steal()">ok</p>`, []string{"onclick", "steal()"}},
		{"javascript URI", `<a href="javascript:alert(1)">x</a>`, []string{"javascript:"}},
		{"相対URL", `<a href="/app/notes/1">x</a>`, []string{"href"}},
		{"http画像", `<img src="http://example.com/a.png">`, []string{"http://example.com/a.png"}},
		{"data画像", `<img src="data:image/png;base64,AAAA">`, []string{"data:image"}},
		{"style属性", `<p style="color:red">ok</p>`, []string{"style="}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := strings.ToLower(sanitizer.Sanitize(tt.input))
			for _, absent := range tt.wantAbsent {
				if strings.Contains(got, strings.ToLower(absent)) {
					t.Errorf("Sanitize(%q) = %q, should NOT contain %q", tt.input, got, absent)
				}
			}
		})
	}
}

func TestSanitize_AnchorGetsTargetBlankAndNoReferrer(t *testing.T) {
	sanitizer := NewContentSanitizer()

	got := sanitizer.Sanitize(`<a href="https://tabelog.example/123" target="_self">お店のページ</a>`)

	for _, want := range []string{`href="https://tabelog.example/123"`, `target="_blank"`, "noopener", "noreferrer"} {
		if !strings.Contains(got, want) {
			t.Errorf("Sanitize() = %q, expected to contain %q", got, want)
		}
	}
	if strings.Contains(got, `target="_self"`) {
		t.Errorf("Sanitize() = %q, should not keep target=_self", got)
	}
}

func TestSanitize_EmptyAndPlainText(t *testing.T) {
	sanitizer := NewContentSanitizer()

	if got := sanitizer.Sanitize(""); got != "" {
		t.Errorf("Sanitize(\"\") = %q, want empty", got)
	}

	plain := "麺は硬めがおすすめ。"
	if got := sanitizer.Sanitize(plain); got != plain {
		t.Errorf("Sanitize(%q) = %q, want unchanged", plain, got)
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	sanitizer := NewContentSanitizer()

	input := `<h2>感想</h2><p><strong>最高</strong></p><a href="https://example.com">リンク</a>`
	once := sanitizer.Sanitize(input)
	twice := sanitizer.Sanitize(once)

	if once != twice {
		t.Errorf("二重サニタイズで結果が変わった: 1回目=%q, 2回目=%q", once, twice)
	}
}

func TestContentSanitizerInterface(t *testing.T) {
	var _ ContentSanitizerService = NewContentSanitizer()
}
