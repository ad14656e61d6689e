package dashboard

import (
	"testing"
	"time"

	"github.com/hitoshi/foodjournal/internal/model"
)

func date(month time.Month, day int) time.Time {
	return time.Date(2024, month, day, 12, 0, 0, 0, time.UTC)
}

func newNote(id string, createdAt time.Time, category model.NoteCategory, rating float64) *model.Note {
	return &model.Note{
		ID:        id,
		Title:     "note " + id,
		Rating:    rating,
		Category:  category,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestDeriveStats_EndToEndExample(t *testing.T) {
	notes := []*model.Note{
		newNote("n1", date(time.March, 10), model.CategoryRestaurant, 4),
		newNote("n2", date(time.March, 1), model.CategoryRecipe, 5),
	}

	stats := DeriveStats(notes, date(time.March, 15))

	if stats.TotalNotes != 2 {
		t.Errorf("TotalNotes = %d, want 2", stats.TotalNotes)
	}
	if stats.NotesThisMonth != 2 {
		t.Errorf("NotesThisMonth = %d, want 2", stats.NotesThisMonth)
	}
	if stats.RestaurantNotes != 1 {
		t.Errorf("RestaurantNotes = %d, want 1", stats.RestaurantNotes)
	}
	if stats.RecipeNotes != 1 {
		t.Errorf("RecipeNotes = %d, want 1", stats.RecipeNotes)
	}
	if stats.RestaurantPercentage != 50 {
		t.Errorf("RestaurantPercentage = %d, want 50", stats.RestaurantPercentage)
	}
	if stats.AverageRating != 4.5 {
		t.Errorf("AverageRating = %v, want 4.5", stats.AverageRating)
	}
	if stats.LastNoteDate == nil || !stats.LastNoteDate.Equal(date(time.March, 10)) {
		t.Errorf("LastNoteDate = %v, want %v", stats.LastNoteDate, date(time.March, 10))
	}
}

func TestDeriveStats_EmptyCollection_ExplicitZeroValues(t *testing.T) {
	stats := DeriveStats(nil, date(time.March, 15))

	if stats.TotalNotes != 0 {
		t.Errorf("TotalNotes = %d, want 0", stats.TotalNotes)
	}
	if stats.RestaurantPercentage != 0 {
		t.Errorf("RestaurantPercentage = %d, want 0", stats.RestaurantPercentage)
	}
	if stats.AverageRating != 0 {
		t.Errorf("AverageRating = %v, want 0", stats.AverageRating)
	}
	if stats.LastNoteDate != nil {
		t.Errorf("LastNoteDate = %v, want nil", stats.LastNoteDate)
	}
}

func TestDeriveStats_NoRestaurants_ZeroPercentage(t *testing.T) {
	notes := []*model.Note{
		newNote("n1", date(time.March, 2), model.CategoryRecipe, 3),
		newNote("n2", date(time.March, 1), model.CategoryRecipe, 2),
	}

	stats := DeriveStats(notes, date(time.March, 15))
	if stats.RestaurantPercentage != 0 {
		t.Errorf("RestaurantPercentage = %d, want 0", stats.RestaurantPercentage)
	}
}

func TestDeriveStats_NotesThisMonth_BoundaryIsFirstDayMidnight(t *testing.T) {
	jst := time.FixedZone("JST", 9*60*60)
	firstDay := time.Date(2024, time.April, 1, 0, 0, 0, 0, jst)

	notes := []*model.Note{
		newNote("on-boundary", firstDay, model.CategoryRestaurant, 3),
		newNote("just-before", firstDay.Add(-time.Nanosecond), model.CategoryRestaurant, 3),
		newNote("mid-month", firstDay.AddDate(0, 0, 9), model.CategoryRecipe, 3),
	}

	now := time.Date(2024, time.April, 20, 8, 0, 0, 0, jst)
	stats := DeriveStats(notes, now)

	if stats.NotesThisMonth != 2 {
		t.Errorf("NotesThisMonth = %d, want 2", stats.NotesThisMonth)
	}
}

func TestDeriveStats_TimezoneOfNowDecidesMonth(t *testing.T) {
	// UTCでは3月31日、JSTでは4月1日のノート
	created := time.Date(2024, time.March, 31, 16, 0, 0, 0, time.UTC)
	notes := []*model.Note{newNote("n1", created, model.CategoryRecipe, 3)}

	jst := time.FixedZone("JST", 9*60*60)
	inJST := DeriveStats(notes, time.Date(2024, time.April, 2, 0, 0, 0, 0, jst))
	if inJST.NotesThisMonth != 1 {
		t.Errorf("JST NotesThisMonth = %d, want 1", inJST.NotesThisMonth)
	}

	inUTC := DeriveStats(notes, time.Date(2024, time.April, 2, 0, 0, 0, 0, time.UTC))
	if inUTC.NotesThisMonth != 0 {
		t.Errorf("UTC NotesThisMonth = %d, want 0", inUTC.NotesThisMonth)
	}
}

func TestDeriveStats_UnsortedInput_UsesNewestForLastNoteDate(t *testing.T) {
	notes := []*model.Note{
		newNote("old", date(time.January, 5), model.CategoryRecipe, 1),
		newNote("newest", date(time.March, 12), model.CategoryRestaurant, 5),
		newNote("mid", date(time.February, 7), model.CategoryRestaurant, 3),
	}

	stats := DeriveStats(notes, date(time.March, 15))

	if stats.LastNoteDate == nil || !stats.LastNoteDate.Equal(date(time.March, 12)) {
		t.Errorf("LastNoteDate = %v, want %v", stats.LastNoteDate, date(time.March, 12))
	}
	if stats.TotalNotes != 3 {
		t.Errorf("TotalNotes = %d, want 3", stats.TotalNotes)
	}
	if stats.NotesThisMonth != 1 {
		t.Errorf("NotesThisMonth = %d, want 1", stats.NotesThisMonth)
	}
}

func TestDeriveStats_PercentageRounding(t *testing.T) {
	tests := []struct {
		name        string
		restaurants int
		total       int
		want        int
	}{
		{"1/3は33", 1, 3, 33},
		{"2/3は67", 2, 3, 67},
		{"1/8は13", 1, 8, 13},
		{"全件", 4, 4, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var notes []*model.Note
			for i := 0; i < tt.total; i++ {
				category := model.CategoryRecipe
				if i < tt.restaurants {
					category = model.CategoryRestaurant
				}
				notes = append(notes, newNote("n", date(time.March, 1), category, 3))
			}

			stats := DeriveStats(notes, date(time.March, 15))
			if stats.RestaurantPercentage != tt.want {
				t.Errorf("RestaurantPercentage = %d, want %d", stats.RestaurantPercentage, tt.want)
			}
		})
	}
}

func TestDeriveStats_AverageRatingRoundedToOneDecimal(t *testing.T) {
	notes := []*model.Note{
		newNote("n1", date(time.March, 3), model.CategoryRecipe, 4),
		newNote("n2", date(time.March, 2), model.CategoryRecipe, 4),
		newNote("n3", date(time.March, 1), model.CategoryRecipe, 5),
	}

	stats := DeriveStats(notes, date(time.March, 15))
	if stats.AverageRating != 4.3 {
		t.Errorf("AverageRating = %v, want 4.3", stats.AverageRating)
	}
}

func TestDeriveStats_DoesNotMutateInput(t *testing.T) {
	notes := []*model.Note{
		newNote("old", date(time.January, 5), model.CategoryRecipe, 1),
		newNote("new", date(time.March, 12), model.CategoryRestaurant, 5),
	}

	DeriveStats(notes, date(time.March, 15))

	if notes[0].ID != "old" || notes[1].ID != "new" {
		t.Errorf("input order changed: %s, %s", notes[0].ID, notes[1].ID)
	}
}

func TestSortNewestFirst_StableForEqualTimestamps(t *testing.T) {
	same := date(time.March, 1)
	notes := []*model.Note{
		newNote("a", same, model.CategoryRecipe, 1),
		newNote("b", same, model.CategoryRecipe, 1),
		nil,
		newNote("c", date(time.March, 2), model.CategoryRecipe, 1),
	}

	got := SortNewestFirst(notes)

	want := []string{"c", "a", "b"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("got[%d] = %q, want %q", i, got[i].ID, id)
		}
	}
}

func TestFirstDayOfMonth(t *testing.T) {
	jst := time.FixedZone("JST", 9*60*60)
	got := FirstDayOfMonth(time.Date(2024, time.December, 31, 23, 59, 0, 0, jst))

	want := time.Date(2024, time.December, 1, 0, 0, 0, 0, jst)
	if !got.Equal(want) {
		t.Errorf("FirstDayOfMonth = %v, want %v", got, want)
	}
	if got.Location() != jst {
		t.Errorf("location = %v, want %v", got.Location(), jst)
	}
}
