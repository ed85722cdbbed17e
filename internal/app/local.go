package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/hitoshi/taskflow/internal/boardstate"
	"github.com/hitoshi/taskflow/internal/client"
	"github.com/hitoshi/taskflow/internal/habit"
)

const (
	defaultHabitsFile = "habits.json"
	defaultAPIURL     = "http://localhost:8080"
	apiClientTimeout  = 10 * time.Second
)

// habitsFile は習慣の保存先を返す。HABITS_FILE未設定時はカレントディレクトリのhabits.json。
func habitsFile() string {
	if path := os.Getenv("HABITS_FILE"); path != "" {
		return path
	}
	return defaultHabitsFile
}

// runHabit はローカルの習慣トラッカーを操作し、結果をwに出力する。
// 使い方: taskflow habit [list|types|add <type>|toggle <id>|delete <id>]
func runHabit(w io.Writer, path string, today time.Time, args []string) error {
	tracker, err := habit.NewTracker(habit.NewFileStorage(path))
	if err != nil {
		return err
	}

	sub := "list"
	if len(args) > 0 {
		sub = args[0]
	}
	arg := func() (string, error) {
		if len(args) < 2 || args[1] == "" {
			return "", fmt.Errorf("usage: taskflow habit %s <value>", sub)
		}
		return args[1], nil
	}

	switch sub {
	case "list":
		return printHabits(w, tracker, today)
	case "types":
		for _, t := range habit.Types() {
			fmt.Fprintf(w, "%s\t%s %s\n", t.Key, t.Emoji, t.Name)
		}
		return nil
	case "add":
		key, err := arg()
		if err != nil {
			return err
		}
		h, err := tracker.Add(key)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s %s added! (%s)\n", h.Emoji, h.Name, h.ID)
		return err
	case "toggle":
		id, err := arg()
		if err != nil {
			return err
		}
		if _, err := tracker.Toggle(id, today); err != nil {
			return err
		}
		return printHabits(w, tracker, today)
	case "delete":
		id, err := arg()
		if err != nil {
			return err
		}
		if err := tracker.Delete(id); err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, "Habit removed!")
		return err
	default:
		return fmt.Errorf("unknown habit command: %s", sub)
	}
}

func printHabits(w io.Writer, tracker *habit.Tracker, today time.Time) error {
	habits := tracker.List()
	for _, h := range habits {
		mark := " "
		if h.CompletedOn(today) {
			mark = "x"
		}
		fmt.Fprintf(w, "[%s] %s %s\t%s\n", mark, h.Emoji, h.Name, h.ID)
	}
	_, err := fmt.Fprintf(w, "completed today: %d/%d\n", tracker.CompletedOn(today), len(habits))
	return err
}

// boardsEnv はboardsサブコマンドの接続先。
type boardsEnv struct {
	APIURL string
	Token  string
}

func boardsEnvFromOS() boardsEnv {
	env := boardsEnv{APIURL: os.Getenv("TASKFLOW_API_URL"), Token: os.Getenv("TASKFLOW_TOKEN")}
	if env.APIURL == "" {
		env.APIURL = defaultAPIURL
	}
	return env
}

// runBoards はボード一覧と選択中ボードのTodoをwに出力する。
// 使い方: taskflow boards [boardId] [search]
func runBoards(ctx context.Context, w io.Writer, env boardsEnv, args []string) error {
	if env.Token == "" {
		return errors.New("TASKFLOW_TOKEN is not set")
	}

	api := client.NewClient(env.APIURL, &http.Client{Timeout: apiClientTimeout}, client.StaticToken(env.Token), slog.Default())
	store := boardstate.NewStore(api, boardstate.LogNotifier{Logger: slog.Default()})

	if err := store.LoadBoards(ctx); err != nil {
		return err
	}
	if len(args) > 0 && args[0] != "" {
		if err := store.Select(ctx, args[0]); err != nil {
			return err
		}
	}

	st := store.State()
	query := ""
	if len(args) > 1 {
		query = args[1]
	}
	for _, b := range boardstate.FilterBoards(st.Boards, query) {
		mark := " "
		if st.Active != nil && st.Active.ID == b.ID {
			mark = "*"
		}
		fmt.Fprintf(w, "%s %s\t%s\n", mark, b.Title, b.ID)
	}

	if st.Active == nil {
		_, err := fmt.Fprintln(w, "no boards")
		return err
	}
	fmt.Fprintf(w, "\n%s (%d todos)\n", st.Active.Title, len(st.Todos))
	for _, t := range st.Todos {
		fmt.Fprintf(w, "  [%s] %s (%s)\n", t.Status, t.Title, t.Priority)
	}
	return nil
}
