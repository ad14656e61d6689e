package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/hitoshi/foodjournal/internal/api"
	"github.com/hitoshi/foodjournal/internal/middleware"
	"github.com/hitoshi/foodjournal/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func requireSession(t *testing.T, r *http.Request) bool {
	t.Helper()
	c, err := r.Cookie(middleware.SessionCookieName)
	return err == nil && c.Value == "signed-session"
}

func TestClient_Me_ReturnsUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/me" {
			t.Errorf("path = %q, want /auth/me", r.URL.Path)
		}
		if !requireSession(t, r) {
			t.Error("session cookie was not sent")
		}
		writeJSON(w, http.StatusOK, api.User{ID: "user-1", Email: "a@example.com", Name: "Alice"})
	}))
	defer srv.Close()

	c := New(srv.Client(), srv.URL, "signed-session", nil)
	u, err := c.Me(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u == nil || u.ID != "user-1" || u.Name != "Alice" {
		t.Errorf("user = %+v", u)
	}
}

func TestClient_Me_Unauthorized_ReturnsNilUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
	}))
	defer srv.Close()

	c := New(srv.Client(), srv.URL, "expired", nil)
	u, err := c.Me(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u != nil {
		t.Errorf("user = %+v, want nil", u)
	}
}

func TestClient_Me_NoSession_SkipsRequest(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := New(srv.Client(), srv.URL, "", nil)
	u, err := c.Me(context.Background())
	if err != nil || u != nil {
		t.Errorf("Me() = %v, %v, want nil, nil", u, err)
	}
	if called {
		t.Error("expected no request without a session")
	}
}

func TestClient_Dashboard_DecodesStatsAndActivity(t *testing.T) {
	last := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/dashboard" {
			t.Errorf("path = %q", r.URL.Path)
		}
		writeJSON(w, http.StatusOK, api.Dashboard{
			Stats: api.Stats{TotalNotes: 2, RestaurantPercentage: 50, AverageRating: 4.5, LastNoteDate: &last},
			RecentActivity: []api.Activity{
				{Type: "added", NoteID: "n1", Title: "すし", Rating: 4, Date: last, Category: "restaurant"},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.Client(), srv.URL, "signed-session", nil)
	d, err := c.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Stats.TotalNotes != 2 || d.Stats.RestaurantPercentage != 50 {
		t.Errorf("stats = %+v", d.Stats)
	}
	if len(d.RecentActivity) != 1 || d.RecentActivity[0].NoteID != "n1" {
		t.Fatalf("activity = %+v", d.RecentActivity)
	}
	if d.RecentActivity[0].Category != model.CategoryRestaurant {
		t.Errorf("Category = %q", d.RecentActivity[0].Category)
	}
}

func TestClient_Dashboard_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteErrorResponse(w, http.StatusBadGateway, model.NewNotesFetchFailedError())
	}))
	defer srv.Close()

	c := New(srv.Client(), srv.URL, "signed-session", nil)
	_, err := c.Dashboard(context.Background())

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %T (%v)", err, err)
	}
	if apiErr.Code != model.ErrCodeNotesFetchFailed {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeNotesFetchFailed)
	}
}

func TestClient_NonJSONError_FallsBackToStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.Client(), srv.URL, "signed-session", nil)
	_, err := c.Dashboard(context.Background())

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %T", err)
	}
	if apiErr.Code != model.ErrCodeInternal {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeInternal)
	}
}

func TestClient_GetNote_EscapesID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.EscapedPath() != "/api/notes/a%2Fb" {
			t.Errorf("escaped path = %q", r.URL.EscapedPath())
		}
		writeJSON(w, http.StatusOK, api.NoteDetail{
			Note:     api.Note{ID: "a/b", Title: "カレー", Category: "recipe", Tags: []string{"spicy"}},
			BodyHTML: "<p>hot</p>",
		})
	}))
	defer srv.Close()

	c := New(srv.Client(), srv.URL, "signed-session", nil)
	n, err := c.GetNote(context.Background(), "a/b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Title != "カレー" || n.BodyHTML != "<p>hot</p>" {
		t.Errorf("note = %+v", n)
	}
}

func TestClient_ReplaceTags_SendsCSRFTokenAndBody(t *testing.T) {
	var gotTags []string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/csrf-token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"token": "tok-1"})
	})
	mux.HandleFunc("/api/notes/n1/tags", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		if r.Header.Get(middleware.CSRFHeaderName) != "tok-1" {
			t.Errorf("csrf header = %q", r.Header.Get(middleware.CSRFHeaderName))
		}
		if c, err := r.Cookie(middleware.CSRFCookieName); err != nil || c.Value != "tok-1" {
			t.Errorf("csrf cookie missing or wrong: %v", c)
		}
		var in api.TagsInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		gotTags = in.Tags
		writeJSON(w, http.StatusOK, api.Note{ID: "n1", Tags: in.Tags})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.Client(), srv.URL, "signed-session", nil)
	n, err := c.ReplaceTags(context.Background(), "n1", []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gotTags) != 2 || gotTags[0] != "a" || gotTags[1] != "b" {
		t.Errorf("sent tags = %v", gotTags)
	}
	if len(n.Tags) != 2 {
		t.Errorf("returned tags = %v", n.Tags)
	}
}

func TestClient_ReplaceTags_NilTagsSentAsEmptyArray(t *testing.T) {
	var raw map[string]json.RawMessage
	mux := http.NewServeMux()
	mux.HandleFunc("/api/csrf-token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"token": "tok"})
	})
	mux.HandleFunc("/api/notes/n1/tags", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&raw)
		writeJSON(w, http.StatusOK, api.Note{ID: "n1", Tags: []string{}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.Client(), srv.URL, "signed-session", nil)
	if _, err := c.ReplaceTags(context.Background(), "n1", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(raw["tags"]) != "[]" {
		t.Errorf("tags = %s, want []", raw["tags"])
	}
}

func TestClient_ReplaceTags_RetriesOnceWithFreshCSRFToken(t *testing.T) {
	var mu sync.Mutex
	tokenCalls, putCalls := 0, 0

	mux := http.NewServeMux()
	mux.HandleFunc("/api/csrf-token", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		tokenCalls++
		n := tokenCalls
		mu.Unlock()
		token := "stale"
		if n > 1 {
			token = "fresh"
		}
		writeJSON(w, http.StatusOK, map[string]string{"token": token})
	})
	mux.HandleFunc("/api/notes/n1/tags", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		putCalls++
		mu.Unlock()
		if r.Header.Get(middleware.CSRFHeaderName) != "fresh" {
			middleware.WriteErrorResponse(w, http.StatusForbidden, model.NewCSRFInvalidError())
			return
		}
		writeJSON(w, http.StatusOK, api.Note{ID: "n1", Tags: []string{"x"}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.Client(), srv.URL, "signed-session", nil)
	if _, err := c.ReplaceTags(context.Background(), "n1", []string{"x"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tokenCalls != 2 || putCalls != 2 {
		t.Errorf("tokenCalls=%d putCalls=%d, want 2/2", tokenCalls, putCalls)
	}
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(&http.Client{Timeout: time.Second}, url, "signed-session", nil)
	if _, err := c.Dashboard(context.Background()); err == nil {
		t.Fatal("expected error for closed server")
	}
}
