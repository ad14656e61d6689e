package dashboard

import (
	"testing"
	"time"

	"github.com/hitoshi/foodjournal/internal/model"
)

func TestProjectActivity_TakesFirstNInOrder(t *testing.T) {
	notes := []*model.Note{
		newNote("n5", date(time.March, 5), model.CategoryRestaurant, 5),
		newNote("n4", date(time.March, 4), model.CategoryRecipe, 4),
		newNote("n3", date(time.March, 3), model.CategoryRestaurant, 3),
		newNote("n2", date(time.March, 2), model.CategoryRecipe, 2),
		newNote("n1", date(time.March, 1), model.CategoryRestaurant, 1),
	}

	items := ProjectActivity(notes, 3)

	if len(items) != 3 {
		t.Fatalf("len(items) = %d, want 3", len(items))
	}
	wantIDs := []string{"n5", "n4", "n3"}
	for i, item := range items {
		if item.NoteID != wantIDs[i] {
			t.Errorf("items[%d].NoteID = %q, want %q", i, item.NoteID, wantIDs[i])
		}
		if item.Type != model.ActivityAdded {
			t.Errorf("items[%d].Type = %q, want %q", i, item.Type, model.ActivityAdded)
		}
	}
}

func TestProjectActivity_CopiesNoteSnapshot(t *testing.T) {
	n := newNote("n1", date(time.March, 10), model.CategoryRestaurant, 4.5)
	n.Title = "すし処"

	items := ProjectActivity([]*model.Note{n}, 3)

	if len(items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(items))
	}
	got := items[0]
	if got.Title != "すし処" || got.Rating != 4.5 || got.Category != model.CategoryRestaurant {
		t.Errorf("unexpected snapshot: %+v", got)
	}
	if !got.Date.Equal(date(time.March, 10)) {
		t.Errorf("Date = %v, want %v", got.Date, date(time.March, 10))
	}
}

func TestProjectActivity_EditedNote_IsUpdated(t *testing.T) {
	n := newNote("n1", date(time.March, 1), model.CategoryRecipe, 3)
	n.UpdatedAt = date(time.March, 8)

	items := ProjectActivity([]*model.Note{n}, 3)

	if items[0].Type != model.ActivityUpdated {
		t.Errorf("Type = %q, want %q", items[0].Type, model.ActivityUpdated)
	}
	if !items[0].Date.Equal(date(time.March, 8)) {
		t.Errorf("Date = %v, want UpdatedAt %v", items[0].Date, date(time.March, 8))
	}
}

func TestProjectActivity_FewerNotesThanLimit(t *testing.T) {
	notes := []*model.Note{
		newNote("n1", date(time.March, 1), model.CategoryRecipe, 3),
	}

	items := ProjectActivity(notes, 3)
	if len(items) != 1 {
		t.Errorf("len(items) = %d, want 1", len(items))
	}
}

func TestProjectActivity_NonPositiveLimit_ReturnsEmpty(t *testing.T) {
	notes := []*model.Note{
		newNote("n1", date(time.March, 1), model.CategoryRecipe, 3),
	}

	for _, n := range []int{0, -1} {
		items := ProjectActivity(notes, n)
		if items == nil || len(items) != 0 {
			t.Errorf("ProjectActivity(n=%d) = %v, want empty non-nil slice", n, items)
		}
	}
}

func TestProjectActivity_UnsortedInput_SortsNewestFirst(t *testing.T) {
	notes := []*model.Note{
		newNote("old", date(time.January, 1), model.CategoryRecipe, 3),
		newNote("new", date(time.March, 1), model.CategoryRecipe, 3),
	}

	items := ProjectActivity(notes, 1)
	if items[0].NoteID != "new" {
		t.Errorf("NoteID = %q, want %q", items[0].NoteID, "new")
	}
}
