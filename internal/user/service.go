// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/foodjournal/internal/model"
	"github.com/hitoshi/foodjournal/internal/repository"
)

// NoteDeleter はユーザーのノートを一括削除するインターフェース。
// ノートのバックエンドはPostgresとMongoDBで切り替わるため、usersテーブルのCASCADEに頼らない。
type NoteDeleter interface {
	DeleteByUserID(ctx context.Context, userID string) error
}

// Service はユーザー管理のサービス層。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	notes       NoteDeleter
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository, sessionRepo repository.SessionRepository, notes NoteDeleter) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		notes:       notes,
	}
}

// Withdraw はユーザーの退会処理を実行する。
// 削除順序: notes → sessions → user（identitiesはCASCADE削除）
func (s *Service) Withdraw(ctx context.Context, userID string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	slog.Info("退会処理を開始します", slog.String("user_id", userID))

	steps := []struct {
		name string
		run  func(ctx context.Context, userID string) error
	}{
		{"ノート", s.notes.DeleteByUserID},
		{"セッション", s.sessionRepo.DeleteByUserID},
		{"ユーザー", s.userRepo.DeleteByID},
	}
	for _, step := range steps {
		if err := step.run(ctx, userID); err != nil {
			return fmt.Errorf("%sの削除に失敗しました: %w", step.name, err)
		}
	}

	slog.Info("退会処理が完了しました", slog.String("user_id", userID))
	return nil
}
