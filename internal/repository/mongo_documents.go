package repository

import (
	"time"

	"github.com/hitoshi/taskflow/internal/model"
)

// MongoDBのコレクション名
const (
	MongoUsersCollection  = "users"
	MongoBoardsCollection = "boards"
	MongoTodosCollection  = "todos"
)

// userDocument はusersコレクションのドキュメント。
type userDocument struct {
	ID            string    `bson:"_id"`
	FirebaseUID   string    `bson:"firebaseUid"`
	Email         string    `bson:"email"`
	DisplayName   string    `bson:"displayName"`
	PhotoURL      string    `bson:"photoURL"`
	EmailVerified bool      `bson:"emailVerified"`
	LastLoginAt   time.Time `bson:"lastLoginAt"`
	CreatedAt     time.Time `bson:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt"`
}

func newUserDocument(u *model.User) userDocument {
	return userDocument{
		ID:            u.ID,
		FirebaseUID:   u.FirebaseUID,
		Email:         u.Email,
		DisplayName:   u.DisplayName,
		PhotoURL:      u.PhotoURL,
		EmailVerified: u.EmailVerified,
		LastLoginAt:   u.LastLoginAt,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func (d userDocument) toModel() *model.User {
	return &model.User{
		ID:            d.ID,
		FirebaseUID:   d.FirebaseUID,
		Email:         d.Email,
		DisplayName:   d.DisplayName,
		PhotoURL:      d.PhotoURL,
		EmailVerified: d.EmailVerified,
		LastLoginAt:   d.LastLoginAt,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

// boardDocument はboardsコレクションのドキュメント。
type boardDocument struct {
	ID          string    `bson:"_id"`
	Title       string    `bson:"title"`
	Description string    `bson:"description"`
	OwnerID     string    `bson:"ownerId"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

func newBoardDocument(b *model.Board) boardDocument {
	return boardDocument{
		ID:          b.ID,
		Title:       b.Title,
		Description: b.Description,
		OwnerID:     b.OwnerID,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

func (d boardDocument) toModel() *model.Board {
	return &model.Board{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		OwnerID:     d.OwnerID,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// todoDocument はtodosコレクションのドキュメント。
// dueDateは未設定の場合nullで保存する。
type todoDocument struct {
	ID          string     `bson:"_id"`
	BoardID     string     `bson:"boardId"`
	Title       string     `bson:"title"`
	Description string     `bson:"description"`
	Status      string     `bson:"status"`
	Priority    string     `bson:"priority"`
	DueDate     *time.Time `bson:"dueDate"`
	CreatedAt   time.Time  `bson:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt"`
}

func newTodoDocument(t *model.Todo) todoDocument {
	return todoDocument{
		ID:          t.ID,
		BoardID:     t.BoardID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		DueDate:     t.DueDate,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (d todoDocument) toModel() *model.Todo {
	return &model.Todo{
		ID:          d.ID,
		BoardID:     d.BoardID,
		Title:       d.Title,
		Description: d.Description,
		Status:      model.TodoStatus(d.Status),
		Priority:    model.TodoPriority(d.Priority),
		DueDate:     d.DueDate,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}
