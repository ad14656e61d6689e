package tui

import (
	"context"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hitoshi/foodjournal/internal/tagedit"
)

// openTagEditor は表示中のノートのタグ編集画面を開く。
func (m *Model) openTagEditor() tea.Cmd {
	m.tagEditor = tagedit.New(m.note.Tags, m.onTagsChange)
	m.tagCursor = 0
	m.clearPending()
	m.tagInput.SetValue("")
	m.screen = screenTags
	return m.tagInput.Focus()
}

// clearPending は未送信の変更を破棄する。送信待ちの列はノートIDに紐付いているため残す。
func (m *Model) clearPending() {
	m.pending = nil
	m.hasPending = false
}

// saving は表示中のノートのタグを保存中かどうかを返す。
func (m *Model) saving() bool {
	return m.note != nil && m.inflight[m.note.ID]
}

// hasQueued は表示中のノートに送信待ちの列があるかどうかを返す。
func (m *Model) hasQueued() bool {
	if m.note == nil {
		return false
	}
	_, ok := m.queued[m.note.ID]
	return ok
}

// onTagsChange はエディタからの変更通知。保存はキー処理の後にまとめて行う。
func (m *Model) onTagsChange(tags []string) {
	m.pending = tags
	m.hasPending = true
}

func (m *Model) updateTags(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd

	switch msg.Type {
	case tea.KeyEsc:
		m.tagEditor.Input(m.tagInput.Value())
		m.tagEditor.Blur()
		m.tagInput.SetValue("")
		m.tagInput.Blur()
		m.screen = screenNote
	case tea.KeyEnter:
		m.tagEditor.Input(m.tagInput.Value())
		m.tagEditor.Press(tagedit.KeyDelimiter)
		m.tagInput.SetValue("")
	case tea.KeyBackspace:
		if m.tagInput.Value() == "" {
			m.tagEditor.Press(tagedit.KeyBackspace)
		} else {
			m.tagInput, cmd = m.tagInput.Update(msg)
			m.tagEditor.Input(m.tagInput.Value())
		}
	case tea.KeyTab:
		if n := len(m.tagEditor.Tags()); n > 0 {
			m.tagCursor = (m.tagCursor + 1) % n
		}
	case tea.KeyCtrlX:
		tags := m.tagEditor.Tags()
		if m.tagCursor >= 0 && m.tagCursor < len(tags) {
			m.tagEditor.Remove(tags[m.tagCursor])
		}
	default:
		m.tagInput, cmd = m.tagInput.Update(msg)
		// カンマを含む入力はエディタが確定し、残りの断片だけが入力欄に残る
		m.tagEditor.Input(m.tagInput.Value())
		if m.tagEditor.Text() != m.tagInput.Value() {
			m.tagInput.SetValue(m.tagEditor.Text())
			m.tagInput.CursorEnd()
		}
	}

	if n := len(m.tagEditor.Tags()); m.tagCursor >= n {
		m.tagCursor = max(n-1, 0)
	}
	return tea.Batch(cmd, m.flushTags())
}

// flushTags は未保存の変更があれば保存を開始する。
// 同じノートの保存中は最新の列だけを待機させ、前の保存が終わってから送信する。
func (m *Model) flushTags() tea.Cmd {
	if !m.hasPending || m.note == nil {
		return nil
	}
	noteID, tags := m.note.ID, m.pending
	m.clearPending()

	if m.inflight[noteID] {
		m.queued[noteID] = tags
		return nil
	}
	return m.saveTags(noteID, tags)
}

func (m *Model) saveTags(noteID string, tags []string) tea.Cmd {
	m.inflight[noteID] = true
	client, timeout := m.api, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		n, err := client.ReplaceTags(ctx, noteID, tags)
		return tagsSavedMsg{noteID: noteID, note: n, err: err}
	}
}

// handleTagsSaved は保存結果を反映する。
// 成功した場合、同じノートの待機中の列があれば続けて送信する。画面を離れた後でも送信先はそのノートに限る。
// 失敗した場合は待機中の列を破棄し、エディタをサーバー側の最新のタグ列に戻す。
func (m *Model) handleTagsSaved(msg tagsSavedMsg) tea.Cmd {
	delete(m.inflight, msg.noteID)
	queued, hasQueued := m.queued[msg.noteID]
	delete(m.queued, msg.noteID)

	current := m.note != nil && m.note.ID == msg.noteID

	if msg.err != nil {
		m.logger.Error("failed to save tags",
			slog.String("note_id", msg.noteID),
			slog.String("error", msg.err.Error()),
		)
		if current {
			m.errText = errorText(msg.err)
			if m.tagEditor != nil {
				m.tagEditor.SetTags(m.note.Tags)
			}
		}
		return nil
	}

	m.dashboardStale = true
	if current {
		m.errText = ""
		m.note.Tags = msg.note.Tags
		m.note.UpdatedAt = msg.note.UpdatedAt
	}

	if hasQueued {
		return m.saveTags(msg.noteID, queued)
	}
	if current && m.tagEditor != nil {
		m.tagEditor.SetTags(m.note.Tags)
	}
	return nil
}
