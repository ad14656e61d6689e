// Package dashboard はノート一覧からダッシュボード表示用の集計値と
// 最近のアクティビティを導出する。
package dashboard

import (
	"math"
	"sort"
	"time"

	"github.com/hitoshi/foodjournal/internal/model"
)

// SortNewestFirst は作成日時の降順にノートを並べた新しいスライスを返す。
// 同一日時のノートは入力順を保つ。入力スライスは変更しない。
func SortNewestFirst(notes []*model.Note) []*model.Note {
	sorted := make([]*model.Note, 0, len(notes))
	for _, n := range notes {
		if n != nil {
			sorted = append(sorted, n)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	return sorted
}

// FirstDayOfMonth はtと同じロケーションにおける当月1日0時を返す。
func FirstDayOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// DeriveStats はノート一覧とnowから集計値を算出する。
// 月初の判定はnowのロケーションで行う。
// ノートが0件の場合、RestaurantPercentageとAverageRatingは0、LastNoteDateはnil。
func DeriveStats(notes []*model.Note, now time.Time) model.DashboardStats {
	sorted := SortNewestFirst(notes)

	stats := model.DashboardStats{
		TotalNotes: len(sorted),
	}
	if stats.TotalNotes == 0 {
		return stats
	}

	firstDay := FirstDayOfMonth(now)
	var ratingSum float64
	for _, n := range sorted {
		if !n.CreatedAt.Before(firstDay) {
			stats.NotesThisMonth++
		}
		switch n.Category {
		case model.CategoryRestaurant:
			stats.RestaurantNotes++
		case model.CategoryRecipe:
			stats.RecipeNotes++
		}
		ratingSum += n.Rating
	}

	stats.RestaurantPercentage = int(math.Round(float64(stats.RestaurantNotes) / float64(stats.TotalNotes) * 100))
	stats.AverageRating = math.Round(ratingSum/float64(stats.TotalNotes)*10) / 10

	last := sorted[0].CreatedAt
	stats.LastNoteDate = &last

	return stats
}
