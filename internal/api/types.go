// Package api はHTTP APIのJSON表現と、ドメインモデルとの相互変換を提供する。
// サーバーのハンドラーと端末クライアントの双方が使用する。
package api

import (
	"time"

	"github.com/hitoshi/foodjournal/internal/model"
)

// User は /auth/me のレスポンス。
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// NoteInput はノート作成・更新リクエストのボディ。
type NoteInput struct {
	Title    string   `json:"title"`
	Rating   float64  `json:"rating"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
	Body     string   `json:"body"`
}

// TagsInput はタグ置き換えリクエストのボディ。
type TagsInput struct {
	Tags []string `json:"tags"`
}

// Note はノートのレスポンス。
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Rating    float64   `json:"rating"`
	Category  string    `json:"category"`
	Tags      []string  `json:"tags"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoteDetail はノート詳細のレスポンス。本文のサニタイズ済みHTMLを含む。
type NoteDetail struct {
	Note
	BodyHTML string `json:"body_html"`
}

// Stats はダッシュボードの集計値。
type Stats struct {
	TotalNotes           int        `json:"total_notes"`
	NotesThisMonth       int        `json:"notes_this_month"`
	RestaurantNotes      int        `json:"restaurant_notes"`
	RecipeNotes          int        `json:"recipe_notes"`
	RestaurantPercentage int        `json:"restaurant_percentage"`
	AverageRating        float64    `json:"average_rating"`
	LastNoteDate         *time.Time `json:"last_note_date"`
}

// Activity は最近のアクティビティ1件。
type Activity struct {
	Type     string    `json:"type"`
	NoteID   string    `json:"note_id"`
	Title    string    `json:"title"`
	Rating   float64   `json:"rating"`
	Date     time.Time `json:"date"`
	Category string    `json:"category"`
}

// Dashboard は GET /api/dashboard のレスポンス。
type Dashboard struct {
	Stats          Stats      `json:"stats"`
	RecentActivity []Activity `json:"recent_activity"`
}

// FromUser はmodel.UserをAPI表現に変換する。
func FromUser(u *model.User) User {
	return User{ID: u.ID, Email: u.Email, Name: u.Name}
}

// ToModel はAPI表現をmodel.Userに戻す。
func (u User) ToModel() *model.User {
	return &model.User{ID: u.ID, Email: u.Email, Name: u.Name}
}

// FromNote はmodel.NoteをAPI表現に変換する。tagsは常に配列で返す。
func FromNote(n *model.Note) Note {
	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}
	return Note{
		ID:        n.ID,
		Title:     n.Title,
		Rating:    n.Rating,
		Category:  string(n.Category),
		Tags:      tags,
		Body:      n.Body,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

// FromNotes は一覧をAPI表現に変換する。空の場合も空配列を返す。
func FromNotes(notes []*model.Note) []Note {
	out := make([]Note, 0, len(notes))
	for _, n := range notes {
		out = append(out, FromNote(n))
	}
	return out
}

// ToModel はAPI表現をmodel.Noteに戻す。
func (n Note) ToModel() *model.Note {
	return &model.Note{
		ID:        n.ID,
		Title:     n.Title,
		Rating:    n.Rating,
		Category:  model.NoteCategory(n.Category),
		Tags:      n.Tags,
		Body:      n.Body,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

// FromDashboard はmodel.DashboardをAPI表現に変換する。
func FromDashboard(d *model.Dashboard) Dashboard {
	activity := make([]Activity, 0, len(d.RecentActivity))
	for _, a := range d.RecentActivity {
		activity = append(activity, Activity{
			Type:     string(a.Type),
			NoteID:   a.NoteID,
			Title:    a.Title,
			Rating:   a.Rating,
			Date:     a.Date,
			Category: string(a.Category),
		})
	}
	s := d.Stats
	return Dashboard{
		Stats: Stats{
			TotalNotes:           s.TotalNotes,
			NotesThisMonth:       s.NotesThisMonth,
			RestaurantNotes:      s.RestaurantNotes,
			RecipeNotes:          s.RecipeNotes,
			RestaurantPercentage: s.RestaurantPercentage,
			AverageRating:        s.AverageRating,
			LastNoteDate:         s.LastNoteDate,
		},
		RecentActivity: activity,
	}
}

// ToModel はAPI表現をmodel.Dashboardに戻す。
func (d Dashboard) ToModel() *model.Dashboard {
	items := make([]model.ActivityItem, 0, len(d.RecentActivity))
	for _, a := range d.RecentActivity {
		items = append(items, model.ActivityItem{
			Type:     model.ActivityType(a.Type),
			NoteID:   a.NoteID,
			Title:    a.Title,
			Rating:   a.Rating,
			Date:     a.Date,
			Category: model.NoteCategory(a.Category),
		})
	}
	s := d.Stats
	return &model.Dashboard{
		Stats: model.DashboardStats{
			TotalNotes:           s.TotalNotes,
			NotesThisMonth:       s.NotesThisMonth,
			RestaurantNotes:      s.RestaurantNotes,
			RecipeNotes:          s.RecipeNotes,
			RestaurantPercentage: s.RestaurantPercentage,
			AverageRating:        s.AverageRating,
			LastNoteDate:         s.LastNoteDate,
		},
		RecentActivity: items,
	}
}
