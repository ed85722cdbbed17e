package model

import "time"

// Todoのフィールド制約（文字数はUnicodeコードポイント単位）
const (
	TodoTitleMaxLength       = 200
	TodoDescriptionMaxLength = 1000
)

// TodoStatus はTodoの進捗状態を表す。
type TodoStatus string

const (
	TodoStatusTodo       TodoStatus = "todo"
	TodoStatusInProgress TodoStatus = "in-progress"
	TodoStatusDone       TodoStatus = "done"
)

// IsValid はステータスが定義済みの値かを判定する。
func (s TodoStatus) IsValid() bool {
	switch s {
	case TodoStatusTodo, TodoStatusInProgress, TodoStatusDone:
		return true
	default:
		return false
	}
}

// TodoPriority はTodoの優先度を表す。
type TodoPriority string

const (
	TodoPriorityLow    TodoPriority = "low"
	TodoPriorityMedium TodoPriority = "medium"
	TodoPriorityHigh   TodoPriority = "high"
)

// IsValid は優先度が定義済みの値かを判定する。
func (p TodoPriority) IsValid() bool {
	switch p {
	case TodoPriorityLow, TodoPriorityMedium, TodoPriorityHigh:
		return true
	default:
		return false
	}
}

// Todo はボードに属する1件のタスクを表す。
type Todo struct {
	ID          string
	BoardID     string
	Title       string
	Description string
	Status      TodoStatus
	Priority    TodoPriority
	DueDate     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TodoPatch はTodoの部分更新内容を表す。
// nilのフィールドは変更しない。
// DueDateSetがtrueの場合のみ期限を更新し、DueDateがnilなら期限を解除する。
type TodoPatch struct {
	Title       *string
	Description *string
	Status      *TodoStatus
	Priority    *TodoPriority
	DueDateSet  bool
	DueDate     *time.Time
}

// Apply はパッチの内容をTodoに反映する。
func (p TodoPatch) Apply(t *Todo) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.DueDateSet {
		t.DueDate = p.DueDate
	}
}
