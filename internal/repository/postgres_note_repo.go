package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/foodjournal/internal/model"
)

// PostgresNoteRepo はPostgreSQLを使用したノートリポジトリ。
// タグはTEXT[]カラムに格納する。
type PostgresNoteRepo struct {
	db *sql.DB
}

// NewPostgresNoteRepo はPostgresNoteRepoを生成する。
func NewPostgresNoteRepo(db *sql.DB) *PostgresNoteRepo {
	return &PostgresNoteRepo{db: db}
}

const noteColumns = `id, user_id, title, rating, category, tags, body, created_at, updated_at`

// ListByUser はユーザーのノートをcreated_at降順で返す。
func (r *PostgresNoteRepo) ListByUser(ctx context.Context, userID string, filter model.NoteFilter) ([]*model.Note, error) {
	conds := []string{"user_id = $1"}
	args := []interface{}{userID}

	if filter.Category != "" {
		args = append(args, string(filter.Category))
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Tag != "" {
		args = append(args, filter.Tag)
		conds = append(conds, fmt.Sprintf("$%d = ANY(tags)", len(args)))
	}

	query := `SELECT ` + noteColumns + ` FROM notes WHERE ` + strings.Join(conds, " AND ") +
		` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	notes := []*model.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notes: %w", err)
	}

	return notes, nil
}

// FindByID は指定IDのノートを取得する。見つからない場合はnilを返す。
func (r *PostgresNoteRepo) FindByID(ctx context.Context, userID, id string) (*model.Note, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = $1 AND user_id = $2`,
		id, userID,
	)

	n, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find note: %w", err)
	}
	return n, nil
}

// Create はノートを作成する。
func (r *PostgresNoteRepo) Create(ctx context.Context, note *model.Note) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notes (`+noteColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		note.ID, note.UserID, note.Title, note.Rating, string(note.Category),
		pq.Array(tagsOrEmpty(note.Tags)), note.Body, note.CreatedAt, note.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}
	return nil
}

// Update はノートの内容を更新する。
func (r *PostgresNoteRepo) Update(ctx context.Context, note *model.Note) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notes
		 SET title = $1, rating = $2, category = $3, tags = $4, body = $5, updated_at = $6
		 WHERE id = $7 AND user_id = $8`,
		note.Title, note.Rating, string(note.Category), pq.Array(tagsOrEmpty(note.Tags)),
		note.Body, note.UpdatedAt, note.ID, note.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}
	return requireAffected(result)
}

// ReplaceTags はタグ列全体を置き換える。
func (r *PostgresNoteRepo) ReplaceTags(ctx context.Context, userID, id string, tags []string, updatedAt time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notes SET tags = $1, updated_at = $2 WHERE id = $3 AND user_id = $4`,
		pq.Array(tagsOrEmpty(tags)), updatedAt, id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to replace note tags: %w", err)
	}
	return requireAffected(result)
}

// Delete は指定IDのノートを削除する。
func (r *PostgresNoteRepo) Delete(ctx context.Context, userID, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM notes WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	return requireAffected(result)
}

// DeleteByUserID はユーザーの全ノートを削除する。
func (r *PostgresNoteRepo) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM notes WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user notes: %w", err)
	}
	return nil
}

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanNote(s rowScanner) (*model.Note, error) {
	n := &model.Note{}
	var category string
	var tags pq.StringArray
	if err := s.Scan(&n.ID, &n.UserID, &n.Title, &n.Rating, &category, &tags,
		&n.Body, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	n.Category = model.NoteCategory(category)
	n.Tags = tagsOrEmpty(tags)
	return n, nil
}

func requireAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNoteNotFound
	}
	return nil
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

// compile-time interface check
var _ NoteRepository = (*PostgresNoteRepo)(nil)
