package model

import "time"

// DashboardStats はノート一覧から導出される集計値。
// フェッチのたびに再計算され、永続化されない。
type DashboardStats struct {
	TotalNotes           int
	NotesThisMonth       int
	RestaurantNotes      int
	RecipeNotes          int
	RestaurantPercentage int
	AverageRating        float64
	// LastNoteDate はノートが1件もない場合nil。
	LastNoteDate *time.Time
}

// ActivityType はアクティビティの変更種別を表す。
type ActivityType string

const (
	// ActivityAdded はノートの新規作成。
	ActivityAdded ActivityType = "added"
	// ActivityUpdated は作成後のノート編集。
	ActivityUpdated ActivityType = "updated"
)

// ActivityItem は表示用に非正規化したノートの変更スナップショット。
type ActivityItem struct {
	Type     ActivityType
	NoteID   string
	Title    string
	Rating   float64
	Date     time.Time
	Category NoteCategory
}

// Dashboard はダッシュボード画面1回分の表示データ。
type Dashboard struct {
	Stats          DashboardStats
	RecentActivity []ActivityItem
}
