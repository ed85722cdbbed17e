package model

import (
	"time"
	"unicode/utf8"
)

// ボードのフィールド制約（文字数はUnicodeコードポイント単位）
const (
	BoardTitleMaxLength       = 100
	BoardDescriptionMaxLength = 500
)

// Board は1人の所有者が持つTodoのまとまりを表す。
type Board struct {
	ID          string
	Title       string
	Description string
	OwnerID     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BoardPatch はボードの部分更新内容を表す。
// nilのフィールドは変更しない。
type BoardPatch struct {
	Title       *string
	Description *string
}

// Apply はパッチの内容をボードに反映する。
func (p BoardPatch) Apply(b *Board) {
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Description != nil {
		b.Description = *p.Description
	}
}

// ExceedsLength は文字列がmaxコードポイントを超えるかを判定する。
func ExceedsLength(s string, max int) bool {
	return utf8.RuneCountInString(s) > max
}
