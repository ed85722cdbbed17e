package habit

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrUnknownType は存在しない習慣の種類を指定した場合のエラー。
	ErrUnknownType = errors.New("習慣の種類が存在しません")
	// ErrHabitNotFound は存在しない習慣を指定した場合のエラー。
	ErrHabitNotFound = errors.New("習慣が見つかりません")
)

// Tracker は習慣の追加・削除と日ごとの達成記録を管理する。
// 変更はすべて即座にStorageへ保存し、保存に失敗した変更は反映しない。
type Tracker struct {
	storage Storage
	now     func() time.Time
	newID   func() string

	mu     sync.Mutex
	habits []Habit
}

// NewTracker はstorageから習慣一覧を読み込んだTrackerを生成する。
func NewTracker(storage Storage) (*Tracker, error) {
	habits, err := storage.Load()
	if err != nil {
		return nil, err
	}
	return &Tracker{
		storage: storage,
		now:     time.Now,
		newID:   uuid.NewString,
		habits:  habits,
	}, nil
}

// List は習慣を追加順に返す。
func (t *Tracker) List() []Habit {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.habits)
}

// Add は種類typeKeyの習慣を追加する。
func (t *Tracker) Add(typeKey string) (*Habit, error) {
	ht, ok := LookupType(typeKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, typeKey)
	}

	h := Habit{
		ID:             t.newID(),
		Type:           ht.Key,
		Name:           ht.Name,
		Color:          ht.Color,
		Emoji:          ht.Emoji,
		CompletedDates: []string{},
		CreatedAt:      t.now().UTC(),
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	next := append(slices.Clone(t.habits), h)
	if err := t.commit(next); err != nil {
		return nil, err
	}
	return &h, nil
}

// Delete は習慣を削除する。
func (t *Tracker) Delete(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.indexOf(id)
	if i < 0 {
		return ErrHabitNotFound
	}
	return t.commit(slices.Delete(slices.Clone(t.habits), i, i+1))
}

// Toggle はdayの達成記録を切り替え、切り替え後に達成済みかどうかを返す。
func (t *Tracker) Toggle(id string, day time.Time) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.indexOf(id)
	if i < 0 {
		return false, ErrHabitNotFound
	}

	key := day.Format(DayLayout)
	h := t.habits[i]
	dates := slices.Clone(h.CompletedDates)
	completed := !slices.Contains(dates, key)
	if completed {
		dates = append(dates, key)
	} else {
		dates = slices.DeleteFunc(dates, func(d string) bool { return d == key })
	}
	h.CompletedDates = dates

	next := slices.Clone(t.habits)
	next[i] = h
	if err := t.commit(next); err != nil {
		return false, err
	}
	return completed, nil
}

// ToggleToday は今日の達成記録を切り替える。
func (t *Tracker) ToggleToday(id string) (bool, error) {
	return t.Toggle(id, t.now())
}

// CompletedOn はdayに達成済みの習慣の数を返す。
func (t *Tracker) CompletedOn(day time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	count := 0
	for _, h := range t.habits {
		if h.CompletedOn(day) {
			count++
		}
	}
	return count
}

func (t *Tracker) indexOf(id string) int {
	return slices.IndexFunc(t.habits, func(h Habit) bool { return h.ID == id })
}

// commit は保存に成功した場合のみ一覧を置き換える。呼び出し元でロックを保持すること。
func (t *Tracker) commit(next []Habit) error {
	if err := t.storage.Save(next); err != nil {
		return fmt.Errorf("習慣の保存に失敗しました: %w", err)
	}
	t.habits = next
	return nil
}
