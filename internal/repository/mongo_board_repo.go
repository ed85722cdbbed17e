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

// MongoBoardRepo はMongoDBを使用したボードリポジトリ。
type MongoBoardRepo struct {
	boards *mongo.Collection
	todos  *mongo.Collection
}

// NewMongoBoardRepo はMongoBoardRepoを生成する。
func NewMongoBoardRepo(db *mongo.Database) *MongoBoardRepo {
	return &MongoBoardRepo{
		boards: db.Collection(MongoBoardsCollection),
		todos:  db.Collection(MongoTodosCollection),
	}
}

// ListByOwner は所有者のボードを作成日時の降順で返す。
func (r *MongoBoardRepo) ListByOwner(ctx context.Context, ownerID string) ([]*model.Board, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.boards.Find(ctx, bson.M{"ownerId": ownerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}

	var docs []boardDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode boards: %w", err)
	}

	boards := make([]*model.Board, 0, len(docs))
	for _, d := range docs {
		boards = append(boards, d.toModel())
	}
	return boards, nil
}

// Create はボードを作成する。
func (r *MongoBoardRepo) Create(ctx context.Context, board *model.Board) error {
	if _, err := r.boards.InsertOne(ctx, newBoardDocument(board)); err != nil {
		return fmt.Errorf("failed to insert board: %w", err)
	}
	return nil
}

// FindByIDAndOwner はIDと所有者が一致するボードを返す。
func (r *MongoBoardRepo) FindByIDAndOwner(ctx context.Context, id, ownerID string) (*model.Board, error) {
	var doc boardDocument
	err := r.boards.FindOne(ctx, bson.M{"_id": id, "ownerId": ownerID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find board: %w", err)
	}
	return doc.toModel(), nil
}

// UpdateByIDAndOwner はFindOneAndUpdateで所有者確認と更新を1回の書き込みで行う。
func (r *MongoBoardRepo) UpdateByIDAndOwner(ctx context.Context, id, ownerID string, patch model.BoardPatch, updatedAt time.Time) (*model.Board, error) {
	set := bson.M{"updatedAt": updatedAt}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}

	var doc boardDocument
	err := r.boards.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "ownerId": ownerID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update board: %w", err)
	}
	return doc.toModel(), nil
}

// DeleteWithTodos はボードを削除したあと配下のTodoを削除する2段階削除。
// 2段階目が失敗した場合はtrueとErrCascadeIncompleteを返し、残ったTodoは孤児スイープに任せる。
func (r *MongoBoardRepo) DeleteWithTodos(ctx context.Context, id, ownerID string) (bool, error) {
	result, err := r.boards.DeleteOne(ctx, bson.M{"_id": id, "ownerId": ownerID})
	if err != nil {
		return false, fmt.Errorf("failed to delete board: %w", err)
	}
	if result.DeletedCount == 0 {
		return false, nil
	}

	if _, err := r.todos.DeleteMany(ctx, bson.M{"boardId": id}); err != nil {
		return true, fmt.Errorf("%w: %v", ErrCascadeIncomplete, err)
	}
	return true, nil
}

// compile-time interface check
var _ BoardRepository = (*MongoBoardRepo)(nil)
