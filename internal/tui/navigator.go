package tui

import (
	"fmt"
	"net/url"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// notePathPrefix はノート詳細画面のパス。
const notePathPrefix = "/app/notes/"

// Navigator は画面遷移の境界。pathは"/app/notes/{id}"の形式。
type Navigator interface {
	Navigate(path string) tea.Cmd
}

// NotePath はノート詳細画面へのパスを返す。
func NotePath(noteID string) string {
	return notePathPrefix + url.PathEscape(noteID)
}

// ParseNotePath はノート詳細画面のパスからノートIDを取り出す。
func ParseNotePath(path string) (string, bool) {
	rest, ok := strings.CutPrefix(path, notePathPrefix)
	if !ok || rest == "" || strings.Contains(rest, "/") {
		return "", false
	}
	id, err := url.PathUnescape(rest)
	if err != nil || id == "" {
		return "", false
	}
	return id, true
}

// openNoteMsg はノート詳細画面を開く。
type openNoteMsg struct {
	noteID string
}

// navigationErrorMsg は解釈できないパスへの遷移。
type navigationErrorMsg struct {
	path string
}

// AppNavigator は端末クライアント内部の画面遷移を行うNavigator。
type AppNavigator struct{}

// Navigate はノート詳細のパスであれば詳細画面を開くメッセージを返す。
func (AppNavigator) Navigate(path string) tea.Cmd {
	return func() tea.Msg {
		id, ok := ParseNotePath(path)
		if !ok {
			return navigationErrorMsg{path: path}
		}
		return openNoteMsg{noteID: id}
	}
}

func (m navigationErrorMsg) Error() string {
	return fmt.Sprintf("unknown path: %s", m.path)
}
