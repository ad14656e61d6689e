package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/hitoshi/foodjournal/internal/model"
)

const dateLayout = "2006-01-02"

func activityColumns() []table.Column {
	return []table.Column{
		{Title: "種別", Width: 6},
		{Title: "タイトル", Width: 30},
		{Title: "カテゴリ", Width: 12},
		{Title: "評価", Width: 6},
		{Title: "日付", Width: 12},
	}
}

// activityRows はアクティビティをテーブル行に変換する。行の順序はアクティビティの順序と一致する。
func activityRows(items []model.ActivityItem) []table.Row {
	rows := make([]table.Row, 0, len(items))
	for _, a := range items {
		rows = append(rows, table.Row{
			activityLabel(a.Type),
			a.Title,
			categoryLabel(a.Category),
			fmt.Sprintf("%.1f", a.Rating),
			a.Date.Local().Format(dateLayout),
		})
	}
	return rows
}

func activityLabel(t model.ActivityType) string {
	if t == model.ActivityUpdated {
		return "更新"
	}
	return "追加"
}

func categoryLabel(c model.NoteCategory) string {
	switch c {
	case model.CategoryRestaurant:
		return "レストラン"
	case model.CategoryRecipe:
		return "レシピ"
	default:
		return string(c)
	}
}

// resize はウィンドウサイズに合わせてテーブルの高さを調整する。
func (m *Model) resize() {
	h := m.height - 14
	if h < 3 {
		h = 3
	}
	m.table.SetHeight(h)
	if m.width > 0 {
		m.tagInput.Width = m.width - 8
	}
}

// View は現在の画面を描画する。
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.header())
	b.WriteString("\n")
	if m.errText != "" {
		b.WriteString(errorBannerStyle.Render("! " + m.errText))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch m.screen {
	case screenNote:
		b.WriteString(m.noteView())
	case screenTags:
		b.WriteString(m.tagsView())
	default:
		b.WriteString(m.dashboardView())
	}
	return b.String()
}

func (m *Model) header() string {
	title := titleStyle.Render("foodjournal")
	switch {
	case m.authLoading:
		return title + "  " + mutedStyle.Render("認証状態を確認中...")
	case m.user == nil:
		return title + "  " + mutedStyle.Render("未ログイン")
	default:
		return title + "  " + accentStyle.Render(m.user.DisplayName())
	}
}

func (m *Model) dashboardView() string {
	if m.authLoading {
		return ""
	}
	if m.user == nil {
		return panelStyle.Render(strings.Join([]string{
			"ログインしていません。",
			"ブラウザで /auth/google/login からログインし、",
			"session_id Cookieの値を FOODJOURNAL_SESSION に設定して再起動してください。",
		}, "\n")) + "\n" + helpStyle.Render("q: 終了")
	}
	if m.dashboard == nil {
		if m.loading {
			return mutedStyle.Render("読み込み中...")
		}
		return helpStyle.Render("r: 再読み込み  q: 終了")
	}

	var b strings.Builder
	b.WriteString(statCards(m.dashboard.Stats))
	b.WriteString("\n\n")
	b.WriteString(titleStyle.Render("最近のアクティビティ"))
	b.WriteString("\n")
	if len(m.dashboard.RecentActivity) == 0 {
		b.WriteString(mutedStyle.Render("まだノートがありません。"))
	} else {
		b.WriteString(m.table.View())
	}
	b.WriteString("\n")
	if m.loading {
		b.WriteString(mutedStyle.Render("更新中... "))
	}
	b.WriteString(helpStyle.Render("↑/↓: 選択  enter: 開く  r: 再読み込み  q: 終了"))
	return b.String()
}

// statCards は集計値をカードとして横に並べる。
func statCards(s model.DashboardStats) string {
	last := "-"
	if s.LastNoteDate != nil {
		last = s.LastNoteDate.Local().Format(dateLayout)
	}
	cards := []string{
		card("ノート総数", fmt.Sprintf("%d", s.TotalNotes)),
		card("今月", fmt.Sprintf("%d", s.NotesThisMonth)),
		card("レストラン", fmt.Sprintf("%d%%", s.RestaurantPercentage)),
		card("平均評価", fmt.Sprintf("%.1f", s.AverageRating)),
		card("最終記録", last),
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func card(label, value string) string {
	return cardStyle.Render(mutedStyle.Render(label) + "\n" + cardValueStyle.Render(value))
}

func (m *Model) noteView() string {
	if m.noteLoading {
		return mutedStyle.Render("読み込み中...")
	}
	if m.note == nil {
		return helpStyle.Render("esc: 戻る")
	}

	n := m.note
	lines := []string{
		titleStyle.Render(n.Title),
		fmt.Sprintf("%s  %s  %s",
			accentStyle.Render(categoryLabel(model.NoteCategory(n.Category))),
			ratingStyle.Render(fmt.Sprintf("★ %.1f", n.Rating)),
			mutedStyle.Render("更新 "+n.UpdatedAt.Local().Format(dateLayout)),
		),
		renderTags(n.Tags, -1),
	}
	if body := strings.TrimSpace(n.Body); body != "" {
		lines = append(lines, "", body)
	}

	return panelStyle.Render(strings.Join(lines, "\n")) + "\n" +
		helpStyle.Render("t: タグ編集  esc: 戻る  q: 終了")
}

func (m *Model) tagsView() string {
	if m.note == nil || m.tagEditor == nil {
		return ""
	}
	status := ""
	if m.saving() {
		status = mutedStyle.Render(" 保存中...")
	} else if !m.hasPending && !m.hasQueued() {
		status = successStyle.Render(" 保存済み")
	}

	lines := []string{
		titleStyle.Render("タグ編集: "+m.note.Title) + status,
		renderTags(m.tagEditor.Tags(), m.tagCursor),
		m.tagInput.View(),
	}
	return panelStyle.Render(strings.Join(lines, "\n")) + "\n" +
		helpStyle.Render("enter/,: 確定  backspace: 直前のタグを削除  tab: 選択  ctrl+x: 選択中を削除  esc: 完了")
}

// renderTags はタグをチップとして描画する。selectedが範囲内の場合はそのタグを強調する。
func renderTags(tags []string, selected int) string {
	if len(tags) == 0 {
		return mutedStyle.Render("タグなし")
	}
	chips := make([]string, 0, len(tags))
	for i, t := range tags {
		style := tagStyle
		if i == selected {
			style = selectedTagStyle
		}
		chips = append(chips, style.Render(t))
	}
	return strings.Join(chips, " ")
}
