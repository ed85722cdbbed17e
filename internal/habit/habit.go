// Package habit は日々の習慣の達成記録を管理する。
// ボードやTodoとは独立しており、ローカルのストレージにのみ保存する。
package habit

import (
	"slices"
	"time"
)

// DayLayout は達成日の記録形式。
const DayLayout = "2006-01-02"

// Type は追加可能な習慣の種類。
type Type struct {
	Key   string
	Name  string
	Emoji string
	Color string
}

var catalogue = []Type{
	{Key: "gym", Name: "Gym Workout", Emoji: "💪", Color: "from-red-500 to-orange-500"},
	{Key: "running", Name: "Running", Emoji: "🏃", Color: "from-green-500 to-emerald-500"},
	{Key: "coding", Name: "Coding", Emoji: "💻", Color: "from-blue-500 to-cyan-500"},
	{Key: "reading", Name: "Reading", Emoji: "📚", Color: "from-purple-500 to-pink-500"},
	{Key: "meditation", Name: "Meditation", Emoji: "🧘", Color: "from-indigo-500 to-purple-500"},
	{Key: "meal", Name: "Healthy Meal", Emoji: "🥗", Color: "from-yellow-500 to-orange-500"},
}

// Types は習慣の種類の一覧を返す。
func Types() []Type {
	return slices.Clone(catalogue)
}

// LookupType はキーに対応する習慣の種類を返す。
func LookupType(key string) (Type, bool) {
	for _, t := range catalogue {
		if t.Key == key {
			return t, true
		}
	}
	return Type{}, false
}

// Habit は利用者が追跡している習慣。
// 表示用の名前と色は追加時点の種類からコピーする。
type Habit struct {
	ID             string    `json:"id"`
	Type           string    `json:"type"`
	Name           string    `json:"name"`
	Color          string    `json:"color"`
	Emoji          string    `json:"emoji"`
	CompletedDates []string  `json:"completedDates"`
	CreatedAt      time.Time `json:"createdAt"`
}

// CompletedOn はdayに達成済みかどうかを返す。
func (h Habit) CompletedOn(day time.Time) bool {
	return slices.Contains(h.CompletedDates, day.Format(DayLayout))
}
