package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hitoshi/foodjournal/internal/model"
)

// noteDocument はnotesコレクションのドキュメント表現。
// _idにはPostgreSQL実装と同じUUID文字列を使う。
type noteDocument struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	Title     string    `bson:"title"`
	Rating    float64   `bson:"rating"`
	Category  string    `bson:"category"`
	Tags      []string  `bson:"tags"`
	Body      string    `bson:"body"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func newNoteDocument(n *model.Note) noteDocument {
	return noteDocument{
		ID:        n.ID,
		UserID:    n.UserID,
		Title:     n.Title,
		Rating:    n.Rating,
		Category:  string(n.Category),
		Tags:      tagsOrEmpty(n.Tags),
		Body:      n.Body,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

func (d noteDocument) toModel() *model.Note {
	return &model.Note{
		ID:        d.ID,
		UserID:    d.UserID,
		Title:     d.Title,
		Rating:    d.Rating,
		Category:  model.NoteCategory(d.Category),
		Tags:      tagsOrEmpty(d.Tags),
		Body:      d.Body,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// MongoNoteRepo はMongoDBを使用したノートリポジトリ。
// NOTES_BACKEND=mongo のときPostgresNoteRepoの代わりに使う。
type MongoNoteRepo struct {
	coll *mongo.Collection
}

// NewMongoNoteRepo はMongoNoteRepoを生成する。
func NewMongoNoteRepo(db *mongo.Database) *MongoNoteRepo {
	return &MongoNoteRepo{coll: db.Collection("notes")}
}

// EnsureIndexes は一覧取得とタグ絞り込み用のインデックスを作成する。
func (r *MongoNoteRepo) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "created_at", Value: -1},
				{Key: "_id", Value: -1},
			},
		},
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "tags", Value: 1},
			},
		},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create note indexes: %w", err)
	}
	return nil
}

// ListByUser はユーザーのノートをcreated_at降順で返す。
func (r *MongoNoteRepo) ListByUser(ctx context.Context, userID string, filter model.NoteFilter) ([]*model.Note, error) {
	q := bson.M{"user_id": userID}
	if filter.Category != "" {
		q["category"] = string(filter.Category)
	}
	if filter.Tag != "" {
		q["tags"] = filter.Tag
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := r.coll.Find(ctx, q, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []noteDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode notes: %w", err)
	}

	notes := make([]*model.Note, len(docs))
	for i, d := range docs {
		notes[i] = d.toModel()
	}
	return notes, nil
}

// FindByID は指定IDのノートを取得する。見つからない場合はnilを返す。
func (r *MongoNoteRepo) FindByID(ctx context.Context, userID, id string) (*model.Note, error) {
	var doc noteDocument
	err := r.coll.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find note %s: %w", id, err)
	}
	return doc.toModel(), nil
}

// Create はノートを作成する。
func (r *MongoNoteRepo) Create(ctx context.Context, note *model.Note) error {
	if _, err := r.coll.InsertOne(ctx, newNoteDocument(note)); err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}
	return nil
}

// Update はノートの内容を更新する。
func (r *MongoNoteRepo) Update(ctx context.Context, note *model.Note) error {
	result, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": note.ID, "user_id": note.UserID},
		bson.M{"$set": bson.M{
			"title":      note.Title,
			"rating":     note.Rating,
			"category":   string(note.Category),
			"tags":       tagsOrEmpty(note.Tags),
			"body":       note.Body,
			"updated_at": note.UpdatedAt,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNoteNotFound
	}
	return nil
}

// ReplaceTags はタグ列全体を置き換える。
func (r *MongoNoteRepo) ReplaceTags(ctx context.Context, userID, id string, tags []string, updatedAt time.Time) error {
	result, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{"$set": bson.M{"tags": tagsOrEmpty(tags), "updated_at": updatedAt}},
	)
	if err != nil {
		return fmt.Errorf("failed to replace note tags: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNoteNotFound
	}
	return nil
}

// Delete は指定IDのノートを削除する。
func (r *MongoNoteRepo) Delete(ctx context.Context, userID, id string) error {
	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNoteNotFound
	}
	return nil
}

// DeleteByUserID はユーザーの全ノートを削除する。
func (r *MongoNoteRepo) DeleteByUserID(ctx context.Context, userID string) error {
	if _, err := r.coll.DeleteMany(ctx, bson.M{"user_id": userID}); err != nil {
		return fmt.Errorf("failed to delete user notes: %w", err)
	}
	return nil
}

// compile-time interface check
var _ NoteRepository = (*MongoNoteRepo)(nil)
