package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/hitoshi/taskflow/internal/model"
)

// MongoUserRepo はMongoDBを使用したユーザーリポジトリ。
// firebaseUidとemailの一意性はユニークインデックスで保証する。
type MongoUserRepo struct {
	coll *mongo.Collection
}

// NewMongoUserRepo はMongoUserRepoを生成する。
func NewMongoUserRepo(db *mongo.Database) *MongoUserRepo {
	return &MongoUserRepo{coll: db.Collection(MongoUsersCollection)}
}

// FindByFirebaseUID は外部IdPのUIDでユーザーを取得する。見つからない場合はnilを返す。
func (r *MongoUserRepo) FindByFirebaseUID(ctx context.Context, firebaseUID string) (*model.User, error) {
	var doc userDocument
	err := r.coll.FindOne(ctx, bson.M{"firebaseUid": firebaseUID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by firebase uid: %w", err)
	}
	return doc.toModel(), nil
}

// Create はユーザーを作成する。
func (r *MongoUserRepo) Create(ctx context.Context, user *model.User) error {
	if _, err := r.coll.InsertOne(ctx, newUserDocument(user)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("failed to insert user: %w", ErrDuplicate)
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// Update はユーザーの可変フィールドを上書きする。
func (r *MongoUserRepo) Update(ctx context.Context, user *model.User) error {
	result, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": user.ID},
		bson.M{"$set": bson.M{
			"email":         user.Email,
			"displayName":   user.DisplayName,
			"photoURL":      user.PhotoURL,
			"emailVerified": user.EmailVerified,
			"lastLoginAt":   user.LastLoginAt,
			"updatedAt":     user.UpdatedAt,
		}},
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("failed to update user: %w", ErrDuplicate)
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("user not found: %s", user.ID)
	}
	return nil
}

// compile-time interface check
var _ UserRepository = (*MongoUserRepo)(nil)
