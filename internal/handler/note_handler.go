package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/foodjournal/internal/api"
	"github.com/hitoshi/foodjournal/internal/model"
)

// NoteServiceInterface はノートハンドラーが必要とするサービスインターフェース。
// すべての操作はユーザーIDでスコープされ、他ユーザーのノートはNOTE_NOT_FOUNDになる。
type NoteServiceInterface interface {
	ListNotes(ctx context.Context, userID string, filter model.NoteFilter) ([]api.Note, error)
	GetNote(ctx context.Context, userID, noteID string) (*api.NoteDetail, error)
	CreateNote(ctx context.Context, userID string, in api.NoteInput) (*api.Note, error)
	UpdateNote(ctx context.Context, userID, noteID string, in api.NoteInput) (*api.Note, error)
	// ReplaceTags はタグの集合全体を置き換える。タグ編集のコールバックから呼ばれる。
	ReplaceTags(ctx context.Context, userID, noteID string, tags []string) (*api.Note, error)
	DeleteNote(ctx context.Context, userID, noteID string) error
}

// NoteHandler はノート管理のHTTPハンドラー。
type NoteHandler struct {
	service NoteServiceInterface
}

// NewNoteHandler はNoteHandlerを生成する。
func NewNoteHandler(service NoteServiceInterface) *NoteHandler {
	return &NoteHandler{service: service}
}

// ListNotes はノート一覧を新しい順に返す。
// GET /api/notes?category=restaurant&tag=ramen
func (h *NoteHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := model.NoteFilter{
		Category: model.NoteCategory(q.Get("category")),
		Tag:      q.Get("tag"),
	}

	notes, err := h.service.ListNotes(r.Context(), userID, filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

// CreateNote はノートを作成する。
// POST /api/notes
func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req api.NoteInput
	if !decodeJSON(w, r, &req) {
		return
	}

	n, err := h.service.CreateNote(r.Context(), userID, req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

// GetNote はノート詳細を本文のHTMLとともに返す。
// GET /api/notes/{id}
func (h *NoteHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	detail, err := h.service.GetNote(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// UpdateNote はノートを更新する。
// PUT /api/notes/{id}
func (h *NoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req api.NoteInput
	if !decodeJSON(w, r, &req) {
		return
	}

	n, err := h.service.UpdateNote(r.Context(), userID, chi.URLParam(r, "id"), req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// ReplaceTags はノートのタグを置き換える。
// PUT /api/notes/{id}/tags
func (h *NoteHandler) ReplaceTags(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req api.TagsInput
	if !decodeJSON(w, r, &req) {
		return
	}

	n, err := h.service.ReplaceTags(r.Context(), userID, chi.URLParam(r, "id"), req.Tags)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// DeleteNote はノートを削除する。
// DELETE /api/notes/{id}
func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteNote(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
