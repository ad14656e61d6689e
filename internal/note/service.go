// Package note はノートの作成・更新・削除とバリデーションを提供する。
package note

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hitoshi/foodjournal/internal/model"
	"github.com/hitoshi/foodjournal/internal/repository"
	"github.com/hitoshi/foodjournal/internal/tagedit"
)

// MaxTitleLength はタイトルの最大文字数。
const MaxTitleLength = 200

// CreatedRecorder はノート作成のメトリクス記録インターフェース。
type CreatedRecorder interface {
	RecordNoteCreated()
}

// Input はノートの作成・更新で受け付ける値。
type Input struct {
	Title    string
	Rating   float64
	Category model.NoteCategory
	Tags     []string
	Body     string
}

// Detail はノートと表示用HTMLの組。
type Detail struct {
	Note     *model.Note
	BodyHTML string
}

// Service はノート操作のサービス層。
type Service struct {
	repo     repository.NoteRepository
	renderer *Renderer
	metrics  CreatedRecorder
	now      func() time.Time
}

// NewService はServiceを生成する。metricsはnilでもよい。
func NewService(repo repository.NoteRepository, renderer *Renderer, metrics CreatedRecorder) *Service {
	return &Service{
		repo:     repo,
		renderer: renderer,
		metrics:  metrics,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock は現在時刻の取得関数を差し替える。テスト用。
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// List はユーザーのノートを新しい順に返す。
func (s *Service) List(ctx context.Context, userID string, filter model.NoteFilter) ([]*model.Note, error) {
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, model.NewInvalidCategoryError(string(filter.Category))
	}

	notes, err := s.repo.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	return notes, nil
}

// Get はノートを取得し、本文をHTMLに変換して返す。
func (s *Service) Get(ctx context.Context, userID, noteID string) (*Detail, error) {
	n, err := s.find(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}

	html, err := s.renderer.Render(n.Body)
	if err != nil {
		return nil, err
	}
	return &Detail{Note: n, BodyHTML: html}, nil
}

// Create はノートを検証して作成する。
func (s *Service) Create(ctx context.Context, userID string, in Input) (*model.Note, error) {
	tags, err := validate(&in)
	if err != nil {
		return nil, err
	}

	now := s.now()
	n := &model.Note{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     in.Title,
		Rating:    in.Rating,
		Category:  in.Category,
		Tags:      tags,
		Body:      in.Body,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RecordNoteCreated()
	}

	slog.Info("note created",
		slog.String("user_id", userID),
		slog.String("note_id", n.ID),
		slog.String("category", string(n.Category)),
	)
	return n, nil
}

// Update はノートの内容を置き換える。UpdatedAtは現在時刻になる。
func (s *Service) Update(ctx context.Context, userID, noteID string, in Input) (*model.Note, error) {
	tags, err := validate(&in)
	if err != nil {
		return nil, err
	}

	n, err := s.find(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}

	n.Title = in.Title
	n.Rating = in.Rating
	n.Category = in.Category
	n.Tags = tags
	n.Body = in.Body
	n.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, n); err != nil {
		return nil, s.mapRepoError(err, noteID, "failed to update note")
	}
	return n, nil
}

// ReplaceTags はタグ列全体を置き換える。タグエディタのOnChangeから呼ばれる。
func (s *Service) ReplaceTags(ctx context.Context, userID, noteID string, tags []string) (*model.Note, error) {
	normalized, err := tagedit.Normalize(tags)
	if err != nil {
		return nil, model.NewInvalidTagsError(err.Error())
	}

	n, err := s.find(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}

	updatedAt := s.now()
	if err := s.repo.ReplaceTags(ctx, userID, noteID, normalized, updatedAt); err != nil {
		return nil, s.mapRepoError(err, noteID, "failed to replace tags")
	}

	n.Tags = normalized
	n.UpdatedAt = updatedAt
	return n, nil
}

// Delete はノートを削除する。
func (s *Service) Delete(ctx context.Context, userID, noteID string) error {
	if _, err := uuid.Parse(noteID); err != nil {
		return model.NewNoteNotFoundError(noteID)
	}
	if err := s.repo.Delete(ctx, userID, noteID); err != nil {
		return s.mapRepoError(err, noteID, "failed to delete note")
	}
	return nil
}

// find は所有者のノートを取得する。ID形式が不正な場合も未検出として扱う。
func (s *Service) find(ctx context.Context, userID, noteID string) (*model.Note, error) {
	if _, err := uuid.Parse(noteID); err != nil {
		return nil, model.NewNoteNotFoundError(noteID)
	}

	n, err := s.repo.FindByID(ctx, userID, noteID)
	if err != nil {
		return nil, fmt.Errorf("failed to find note: %w", err)
	}
	if n == nil {
		return nil, model.NewNoteNotFoundError(noteID)
	}
	return n, nil
}

func (s *Service) mapRepoError(err error, noteID, msg string) error {
	if errors.Is(err, repository.ErrNoteNotFound) {
		return model.NewNoteNotFoundError(noteID)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// validate は入力を検証し、タイトルを整形して正規化済みのタグを返す。
func validate(in *Input) ([]string, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, model.NewInvalidTitleError("タイトルは必須です")
	}
	if utf8.RuneCountInString(in.Title) > MaxTitleLength {
		return nil, model.NewInvalidTitleError(fmt.Sprintf("%d文字を超えています", MaxTitleLength))
	}
	if math.IsNaN(in.Rating) || in.Rating < model.MinRating || in.Rating > model.MaxRating {
		return nil, model.NewInvalidRatingError(in.Rating)
	}
	if !in.Category.Valid() {
		return nil, model.NewInvalidCategoryError(string(in.Category))
	}

	tags, err := tagedit.Normalize(in.Tags)
	if err != nil {
		return nil, model.NewInvalidTagsError(err.Error())
	}
	return tags, nil
}
