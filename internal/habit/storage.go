package habit

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Storage は習慣一覧の永続化を担う。
type Storage interface {
	Load() ([]Habit, error)
	Save(habits []Habit) error
}

// FileStorage は習慣一覧を1つのJSONファイルに保存する。
type FileStorage struct {
	path string
}

// コンパイル時にインターフェースの実装を検証する
var _ Storage = (*FileStorage)(nil)

// NewFileStorage はpathに保存するFileStorageを生成する。
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// Load は保存済みの習慣一覧を返す。ファイルがなければ空の一覧を返す。
func (s *FileStorage) Load() ([]Habit, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []Habit{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("習慣ファイルの読み込みに失敗しました: %w", err)
	}

	var habits []Habit
	if err := json.Unmarshal(raw, &habits); err != nil {
		return nil, fmt.Errorf("習慣ファイルのパースに失敗しました: %w", err)
	}
	if habits == nil {
		habits = []Habit{}
	}
	return habits, nil
}

// Save は習慣一覧を一時ファイルに書き出してから置き換える。
func (s *FileStorage) Save(habits []Habit) error {
	raw, err := json.MarshalIndent(habits, "", "  ")
	if err != nil {
		return fmt.Errorf("習慣一覧のエンコードに失敗しました: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("保存先ディレクトリの作成に失敗しました: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".habits-*.json")
	if err != nil {
		return fmt.Errorf("一時ファイルの作成に失敗しました: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("一時ファイルへの書き込みに失敗しました: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("一時ファイルのクローズに失敗しました: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("習慣ファイルの置き換えに失敗しました: %w", err)
	}
	return nil
}
