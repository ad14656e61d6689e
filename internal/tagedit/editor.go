// Package tagedit はノートのタグ入力を扱う。
// 重複のない挿入順のタグ列と、未確定の入力テキストを管理する。
package tagedit

import "strings"

// Key はエディタが解釈する特殊キー。
type Key int

const (
	// KeyDelimiter はEnterまたはカンマ。入力中のテキストをタグとして確定する。
	KeyDelimiter Key = iota
	// KeyBackspace は入力が空のとき直前のタグを削除する。
	KeyBackspace
)

// Editor はタグ入力エディタ。
// タグ列そのものは所有者が保持し、変更はOnChangeで列全体として通知する。
// Editorが保持するのは未確定の入力テキストだけである。
type Editor struct {
	tags     []string
	text     string
	onChange func([]string)
}

// New は現在のタグ列とコールバックを受け取りEditorを生成する。
func New(tags []string, onChange func([]string)) *Editor {
	return &Editor{
		tags:     clone(tags),
		onChange: onChange,
	}
}

// SetTags は所有者側の最新のタグ列を反映する。コールバックは呼ばない。
func (e *Editor) SetTags(tags []string) {
	e.tags = clone(tags)
}

// Tags は現在のタグ列のコピーを返す。
func (e *Editor) Tags() []string {
	return clone(e.tags)
}

// Text は未確定の入力テキストを返す。
func (e *Editor) Text() string {
	return e.text
}

// Input は入力テキストを置き換える。
// カンマを含む場合はカンマごとに区切ってタグを確定し、最後の断片を入力中として残す。
func (e *Editor) Input(text string) {
	parts := strings.Split(text, ",")
	for _, p := range parts[:len(parts)-1] {
		e.text = p
		e.Press(KeyDelimiter)
	}
	e.text = parts[len(parts)-1]
}

// Press は特殊キーを処理する。
func (e *Editor) Press(k Key) {
	switch k {
	case KeyDelimiter:
		if e.text == "" {
			return
		}
		e.commit()
	case KeyBackspace:
		if e.text != "" || len(e.tags) == 0 {
			return
		}
		e.emit(clone(e.tags[:len(e.tags)-1]))
	}
}

// Blur はフォーカス喪失時に入力中のテキストを確定する。
func (e *Editor) Blur() {
	e.commit()
}

// Remove は完全一致するタグを取り除く。
func (e *Editor) Remove(tag string) {
	next := make([]string, 0, len(e.tags))
	for _, t := range e.tags {
		if t != tag {
			next = append(next, t)
		}
	}
	if len(next) == len(e.tags) {
		return
	}
	e.emit(next)
}

func (e *Editor) commit() {
	tag := strings.TrimSpace(e.text)
	e.text = ""
	if tag == "" || contains(e.tags, tag) {
		return
	}
	next := append(clone(e.tags), tag)
	e.emit(next)
}

func (e *Editor) emit(tags []string) {
	e.tags = tags
	if e.onChange != nil {
		e.onChange(clone(tags))
	}
}

func contains(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func clone(tags []string) []string {
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}
