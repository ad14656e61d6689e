// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hitoshi/foodjournal/internal/model"
)

// ErrNoteNotFound は更新・削除対象のノートが存在しない（または他ユーザーの所有である）ことを表す。
var ErrNoteNotFound = errors.New("note not found")

// UserRepository はユーザーと外部IdP紐付け情報の永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByIdentity はproviderとprovider_user_idに紐付くユーザーを取得する。
	// 見つからない場合はnilを返す。
	FindByIdentity(ctx context.Context, provider, providerUserID string) (*model.User, error)

	// CreateWithIdentity はユーザーとidentityを同一トランザクションで作成する。
	CreateWithIdentity(ctx context.Context, user *model.User, identity *model.Identity) error

	// UpdateProfile はEmail、Name、UpdatedAtを更新する。
	UpdateProfile(ctx context.Context, user *model.User) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するidentities、sessionsはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// NoteRepository はノートデータの永続化インターフェース。
// すべての操作はユーザーIDでスコープされ、他ユーザーのノートには触れない。
type NoteRepository interface {
	// ListByUser はユーザーのノートをcreated_at降順（同時刻はID降順）で返す。
	// filterのゼロ値は全件を表す。
	ListByUser(ctx context.Context, userID string, filter model.NoteFilter) ([]*model.Note, error)

	// FindByID は指定IDのノートを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, userID, id string) (*model.Note, error)

	// Create はノートを作成する。IDとタイムスタンプは呼び出し側で設定する。
	Create(ctx context.Context, note *model.Note) error

	// Update はタイトル、評価、カテゴリ、タグ、本文、updated_atを更新する。
	// 対象がない場合はErrNoteNotFoundを返す。
	Update(ctx context.Context, note *model.Note) error

	// ReplaceTags はタグ列全体を置き換える。対象がない場合はErrNoteNotFoundを返す。
	ReplaceTags(ctx context.Context, userID, id string, tags []string, updatedAt time.Time) error

	// Delete は指定IDのノートを削除する。対象がない場合はErrNoteNotFoundを返す。
	Delete(ctx context.Context, userID, id string) error

	// DeleteByUserID はユーザーの全ノートを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}
