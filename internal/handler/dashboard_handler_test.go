package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/foodjournal/internal/api"
	"github.com/hitoshi/foodjournal/internal/model"
)

type mockDashboardService struct {
	getDashboardFn func(ctx context.Context, userID string) (*model.Dashboard, error)
}

func (m *mockDashboardService) GetDashboard(ctx context.Context, userID string) (*model.Dashboard, error) {
	if m.getDashboardFn != nil {
		return m.getDashboardFn(ctx, userID)
	}
	return &model.Dashboard{}, nil
}

var _ DashboardServiceInterface = (*mockDashboardService)(nil)

func TestDashboardHandler_GetDashboard(t *testing.T) {
	last := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	h := NewDashboardHandler(&mockDashboardService{
		getDashboardFn: func(ctx context.Context, userID string) (*model.Dashboard, error) {
			return &model.Dashboard{
				Stats: model.DashboardStats{TotalNotes: 2, NotesThisMonth: 2, RestaurantNotes: 1, RecipeNotes: 1,
					RestaurantPercentage: 50, AverageRating: 4.5, LastNoteDate: &last},
				RecentActivity: []model.ActivityItem{
					{Type: model.ActivityAdded, NoteID: "n1", Title: "寿司", Rating: 4, Date: last, Category: model.CategoryRestaurant},
				},
			}, nil
		},
	})

	w := httptest.NewRecorder()
	h.GetDashboard(w, withUserID(httptest.NewRequest(http.MethodGet, "/api/dashboard", nil), "user-1"))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var got api.Dashboard
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Stats.RestaurantPercentage != 50 || got.Stats.AverageRating != 4.5 || !got.Stats.LastNoteDate.Equal(last) {
		t.Errorf("stats = %+v", got.Stats)
	}
	if len(got.RecentActivity) != 1 || got.RecentActivity[0].Type != "added" || got.RecentActivity[0].NoteID != "n1" {
		t.Errorf("activity = %+v", got.RecentActivity)
	}
}

func TestDashboardHandler_FetchFailure_Returns502Generic(t *testing.T) {
	h := NewDashboardHandler(&mockDashboardService{
		getDashboardFn: func(ctx context.Context, userID string) (*model.Dashboard, error) {
			return nil, fmt.Errorf("%w: %v", model.NewNotesFetchFailedError(), errors.New("dial tcp: refused"))
		},
	})

	w := httptest.NewRecorder()
	h.GetDashboard(w, withUserID(httptest.NewRequest(http.MethodGet, "/api/dashboard", nil), "user-1"))

	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
	body := parseAPIErrorResponse(t, w)
	if body["code"] != model.ErrCodeNotesFetchFailed || body["message"] != model.NewNotesFetchFailedError().Message {
		t.Errorf("body = %v", body)
	}
}
