package handler

import (
	"context"

	"github.com/hitoshi/foodjournal/internal/api"
	"github.com/hitoshi/foodjournal/internal/model"
	"github.com/hitoshi/foodjournal/internal/note"
	"github.com/hitoshi/foodjournal/internal/user"
)

// NoteServiceAdapter は note.Service を NoteServiceInterface に適合させるアダプタ。
type NoteServiceAdapter struct {
	svc *note.Service
}

// NewNoteServiceAdapter はNoteServiceAdapterを生成する。
func NewNoteServiceAdapter(svc *note.Service) *NoteServiceAdapter {
	return &NoteServiceAdapter{svc: svc}
}

// ListNotes はノート一覧をAPI表現で返す。
func (a *NoteServiceAdapter) ListNotes(ctx context.Context, userID string, filter model.NoteFilter) ([]api.Note, error) {
	notes, err := a.svc.List(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	return api.FromNotes(notes), nil
}

// GetNote はノート詳細をAPI表現で返す。
func (a *NoteServiceAdapter) GetNote(ctx context.Context, userID, noteID string) (*api.NoteDetail, error) {
	detail, err := a.svc.Get(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}
	return &api.NoteDetail{Note: api.FromNote(detail.Note), BodyHTML: detail.BodyHTML}, nil
}

// CreateNote はノートを作成しAPI表現で返す。
func (a *NoteServiceAdapter) CreateNote(ctx context.Context, userID string, in api.NoteInput) (*api.Note, error) {
	return wrapNote(a.svc.Create(ctx, userID, toNoteInput(in)))
}

// UpdateNote はノートを更新しAPI表現で返す。
func (a *NoteServiceAdapter) UpdateNote(ctx context.Context, userID, noteID string, in api.NoteInput) (*api.Note, error) {
	return wrapNote(a.svc.Update(ctx, userID, noteID, toNoteInput(in)))
}

// ReplaceTags はタグを置き換えAPI表現で返す。
func (a *NoteServiceAdapter) ReplaceTags(ctx context.Context, userID, noteID string, tags []string) (*api.Note, error) {
	return wrapNote(a.svc.ReplaceTags(ctx, userID, noteID, tags))
}

// DeleteNote はノートを削除する。
func (a *NoteServiceAdapter) DeleteNote(ctx context.Context, userID, noteID string) error {
	return a.svc.Delete(ctx, userID, noteID)
}

func toNoteInput(in api.NoteInput) note.Input {
	return note.Input{
		Title:    in.Title,
		Rating:   in.Rating,
		Category: model.NoteCategory(in.Category),
		Tags:     in.Tags,
		Body:     in.Body,
	}
}

func wrapNote(n *model.Note, err error) (*api.Note, error) {
	if err != nil {
		return nil, err
	}
	resp := api.FromNote(n)
	return &resp, nil
}

// UserServiceAdapter は user.Service を UserServiceInterface に適合させるアダプタ。
type UserServiceAdapter struct {
	svc *user.Service
}

// NewUserServiceAdapter はUserServiceAdapterを生成する。
func NewUserServiceAdapter(svc *user.Service) *UserServiceAdapter {
	return &UserServiceAdapter{svc: svc}
}

// Withdraw はユーザーの退会処理を実行する。
func (a *UserServiceAdapter) Withdraw(ctx context.Context, userID string) error {
	return a.svc.Withdraw(ctx, userID)
}

// --- compile-time interface checks ---

var _ NoteServiceInterface = (*NoteServiceAdapter)(nil)
var _ UserServiceInterface = (*UserServiceAdapter)(nil)
