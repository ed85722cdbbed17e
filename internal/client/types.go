package client

import (
	"encoding/json"
	"time"
)

// Board はAPIが返すボード。
type Board struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	OwnerID     string    `json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Todo はAPIが返すTodo。
type Todo struct {
	ID          string     `json:"id"`
	BoardID     string     `json:"boardId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// User はAPIが返すユーザー。
type User struct {
	ID            string    `json:"id"`
	FirebaseUID   string    `json:"firebaseUid"`
	Email         string    `json:"email"`
	DisplayName   string    `json:"displayName"`
	PhotoURL      string    `json:"photoURL"`
	EmailVerified bool      `json:"emailVerified"`
	LastLoginAt   time.Time `json:"lastLoginAt"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// BoardInput はボード作成・更新のリクエスト。nilのフィールドは送信しない。
type BoardInput struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

// TodoInput はTodo作成・更新のリクエスト。nilのフィールドは送信しない。
type TodoInput struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Status      *string  `json:"status,omitempty"`
	Priority    *string  `json:"priority,omitempty"`
	DueDate     *DueDate `json:"dueDate,omitempty"`
}

// DueDate は期限の指定。Timeがnilの場合はnullを送り、期限を消去する。
type DueDate struct {
	Time *time.Time
}

// SetDueDate は期限をtに設定するDueDateを返す。
func SetDueDate(t time.Time) *DueDate {
	return &DueDate{Time: &t}
}

// ClearDueDate は期限を消去するDueDateを返す。
func ClearDueDate() *DueDate {
	return &DueDate{}
}

// MarshalJSON はnullまたはRFC 3339の文字列を出力する。
func (d DueDate) MarshalJSON() ([]byte, error) {
	if d.Time == nil {
		return []byte("null"), nil
	}
	return json.Marshal(d.Time.UTC().Format(time.RFC3339))
}

// SyncInput はユーザー同期のリクエスト。
type SyncInput struct {
	FirebaseUID   string `json:"firebaseUid,omitempty"`
	Email         string `json:"email"`
	DisplayName   string `json:"displayName,omitempty"`
	PhotoURL      string `json:"photoURL,omitempty"`
	EmailVerified bool   `json:"emailVerified"`
}

// String はリクエスト構築用に文字列のポインタを返す。
func String(s string) *string {
	return &s
}
