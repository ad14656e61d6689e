package dashboard

import "github.com/hitoshi/foodjournal/internal/model"

// DefaultRecentLimit はダッシュボードに表示するアクティビティの既定件数。
const DefaultRecentLimit = 3

// ProjectActivity は新しい順に並べたノートの先頭n件をアクティビティに変換する。
// 作成後に編集されたノートはupdated（日時はUpdatedAt）、それ以外はadded（日時はCreatedAt）。
// n<=0の場合は空スライスを返す。
func ProjectActivity(notes []*model.Note, n int) []model.ActivityItem {
	if n <= 0 {
		return []model.ActivityItem{}
	}

	sorted := SortNewestFirst(notes)
	if len(sorted) > n {
		sorted = sorted[:n]
	}

	items := make([]model.ActivityItem, len(sorted))
	for i, note := range sorted {
		items[i] = toActivityItem(note)
	}
	return items
}

func toActivityItem(n *model.Note) model.ActivityItem {
	item := model.ActivityItem{
		Type:     model.ActivityAdded,
		NoteID:   n.ID,
		Title:    n.Title,
		Rating:   n.Rating,
		Date:     n.CreatedAt,
		Category: n.Category,
	}
	if n.Edited() {
		item.Type = model.ActivityUpdated
		item.Date = n.UpdatedAt
	}
	return item
}
