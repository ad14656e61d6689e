// Package model はドメインモデルを定義する。
package model

import "time"

// NoteCategory はノートの種別を表す。
type NoteCategory string

const (
	// CategoryRestaurant は飲食店についてのノート。
	CategoryRestaurant NoteCategory = "restaurant"
	// CategoryRecipe はレシピについてのノート。
	CategoryRecipe NoteCategory = "recipe"
)

// Valid はカテゴリが定義済みの値かどうかを返す。
func (c NoteCategory) Valid() bool {
	return c == CategoryRestaurant || c == CategoryRecipe
}

const (
	// MinRating は評価の下限。
	MinRating = 0.0
	// MaxRating は評価の上限。
	MaxRating = 5.0
)

// Note はユーザーが記録した飲食店またはレシピのノートを表す。
// 1人のユーザーに所有され、ダッシュボードに取り込まれた後は変更されない。
type Note struct {
	ID        string
	UserID    string
	Title     string
	Rating    float64
	Category  NoteCategory
	Tags      []string
	Body      string // Markdown
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Edited はノートが作成後に編集されたかどうかを返す。
func (n *Note) Edited() bool {
	return n.UpdatedAt.After(n.CreatedAt)
}

// NoteFilter はノート一覧の絞り込み条件。
// ゼロ値は全件を表す。
type NoteFilter struct {
	Category NoteCategory
	Tag      string
}
