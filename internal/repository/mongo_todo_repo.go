package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hitoshi/taskflow/internal/model"
)

// MongoTodoRepo はMongoDBを使用したTodoリポジトリ。
type MongoTodoRepo struct {
	todos  *mongo.Collection
	boards *mongo.Collection
}

// NewMongoTodoRepo はMongoTodoRepoを生成する。
func NewMongoTodoRepo(db *mongo.Database) *MongoTodoRepo {
	return &MongoTodoRepo{
		todos:  db.Collection(MongoTodosCollection),
		boards: db.Collection(MongoBoardsCollection),
	}
}

// ListByBoard はボード配下のTodoを作成日時の昇順で返す。
func (r *MongoTodoRepo) ListByBoard(ctx context.Context, boardID string) ([]*model.Todo, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.todos.Find(ctx, bson.M{"boardId": boardID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}

	var docs []todoDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode todos: %w", err)
	}

	todos := make([]*model.Todo, 0, len(docs))
	for _, d := range docs {
		todos = append(todos, d.toModel())
	}
	return todos, nil
}

// Create はTodoを作成する。
func (r *MongoTodoRepo) Create(ctx context.Context, todo *model.Todo) error {
	if _, err := r.todos.InsertOne(ctx, newTodoDocument(todo)); err != nil {
		return fmt.Errorf("failed to insert todo: %w", err)
	}
	return nil
}

// FindByID は指定IDのTodoを取得する。見つからない場合はnilを返す。
func (r *MongoTodoRepo) FindByID(ctx context.Context, id string) (*model.Todo, error) {
	var doc todoDocument
	err := r.todos.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find todo: %w", err)
	}
	return doc.toModel(), nil
}

// Update は指定されたフィールドのみを$setし、更新後のドキュメントを返す。
func (r *MongoTodoRepo) Update(ctx context.Context, id string, patch model.TodoPatch, updatedAt time.Time) (*model.Todo, error) {
	set := bson.M{"updatedAt": updatedAt}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Status != nil {
		set["status"] = string(*patch.Status)
	}
	if patch.Priority != nil {
		set["priority"] = string(*patch.Priority)
	}
	if patch.DueDateSet {
		set["dueDate"] = patch.DueDate
	}

	var doc todoDocument
	err := r.todos.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update todo: %w", err)
	}
	return doc.toModel(), nil
}

// Delete は指定IDのTodoを削除する。
func (r *MongoTodoRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.todos.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("failed to delete todo: %w", err)
	}
	return result.DeletedCount > 0, nil
}

// DeleteOrphans はTodoが参照するboardIdのうちboardsに存在しないものを集め、まとめて削除する。
func (r *MongoTodoRepo) DeleteOrphans(ctx context.Context) (int64, error) {
	referenced, err := r.todos.Distinct(ctx, "boardId", bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to collect referenced board ids: %w", err)
	}
	if len(referenced) == 0 {
		return 0, nil
	}

	existing, err := r.boards.Distinct(ctx, "_id", bson.M{"_id": bson.M{"$in": referenced}})
	if err != nil {
		return 0, fmt.Errorf("failed to collect existing board ids: %w", err)
	}

	missing := orphanBoardIDs(referenced, existing)
	if len(missing) == 0 {
		return 0, nil
	}

	result, err := r.todos.DeleteMany(ctx, bson.M{"boardId": bson.M{"$in": missing}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete orphan todos: %w", err)
	}
	return result.DeletedCount, nil
}

// orphanBoardIDs はreferencedのうちexistingに含まれない値を返す。
func orphanBoardIDs(referenced, existing []interface{}) []interface{} {
	present := make(map[interface{}]struct{}, len(existing))
	for _, id := range existing {
		present[id] = struct{}{}
	}

	missing := make([]interface{}, 0)
	for _, id := range referenced {
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

// compile-time interface check
var _ TodoRepository = (*MongoTodoRepo)(nil)
