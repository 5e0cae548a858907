package tasklist

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskflow/internal/keys"
	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/taskquery"
)

type fakeSource struct {
	tasks []model.Task
	err   error
}

func (f fakeSource) ListTasks(context.Context) ([]model.Task, error) { return f.tasks, f.err }

type fakeCache struct {
	tasks  []model.Task
	userID int64
}

func (f *fakeCache) GetTasks(_ context.Context, userID int64) ([]model.Task, error) {
	f.userID = userID
	return f.tasks, nil
}

func sampleTasks() []model.Task {
	return []model.Task{
		{ID: 1, Title: "Follow page", Reward: model.MustAmount("2"), Difficulty: model.DifficultyHard},
		{ID: 2, Title: "Write review", Reward: model.MustAmount("9"), Difficulty: model.DifficultyEasy},
		{ID: 3, Title: "Install app", Reward: model.MustAmount("5"), Difficulty: model.DifficultyMedium},
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func ids(tasks []model.Task) []int64 {
	out := make([]int64, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func newModel(src Source, cache Cache) Model {
	return New(src, cache, func() int64 { return 42 }, keys.DefaultKeyMap(), "$", 80, 24)
}

// ─── Loading ─────────────────────────────────────────────

func TestLoadTasksFallsBackToCache(t *testing.T) {
	cache := &fakeCache{tasks: sampleTasks()}
	m := newModel(fakeSource{err: errors.New("offline")}, cache)

	msg, ok := m.LoadTasks()().(TasksLoadedMsg)
	if !ok {
		t.Fatal("LoadTasks did not return TasksLoadedMsg")
	}
	if !msg.Cached || msg.Err == nil || len(msg.Tasks) != 3 {
		t.Fatalf("msg = %+v", msg)
	}
	if cache.userID != 42 {
		t.Errorf("cache read for user %d, want 42", cache.userID)
	}

	m, _ = m.Update(msg)
	if got := len(m.Visible()); got != 3 {
		t.Errorf("visible = %d, want 3", got)
	}
}

func TestLoadTasksErrorWithoutCache(t *testing.T) {
	m := newModel(fakeSource{err: errors.New("offline")}, nil)
	msg := m.LoadTasks()().(TasksLoadedMsg)
	if msg.Err == nil || msg.Cached {
		t.Fatalf("msg = %+v", msg)
	}
	m, cmd := m.Update(msg)
	if cmd == nil {
		t.Error("expected an error toast command")
	}
	if len(m.Visible()) != 0 {
		t.Error("failed load should keep the list empty")
	}
}

// ─── Sorting ─────────────────────────────────────────────

func TestSortKeys(t *testing.T) {
	tests := []struct {
		name  string
		keys  []string
		state taskquery.SortState
		want  []int64
	}{
		{
			name:  "default",
			state: taskquery.SortState{Field: taskquery.FieldReward, Order: taskquery.Desc},
			want:  []int64{2, 3, 1},
		},
		{
			name:  "same field flips",
			keys:  []string{"1"},
			state: taskquery.SortState{Field: taskquery.FieldReward, Order: taskquery.Asc},
			want:  []int64{1, 3, 2},
		},
		{
			name:  "new field resets to desc",
			keys:  []string{"1", "3"},
			state: taskquery.SortState{Field: taskquery.FieldDifficulty, Order: taskquery.Desc},
			want:  []int64{1, 3, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newModel(fakeSource{}, nil)
			m.SetTasks(sampleTasks())
			for _, k := range tt.keys {
				m, _ = m.Update(runes(k))
			}
			if m.Sort() != tt.state {
				t.Errorf("sort = %+v, want %+v", m.Sort(), tt.state)
			}
			if got := ids(m.Visible()); !equalIDs(got, tt.want) {
				t.Errorf("order = %v, want %v", got, tt.want)
			}
		})
	}
}

// ─── Search ──────────────────────────────────────────────

func TestSearchNarrowsWhileTyping(t *testing.T) {
	m := newModel(fakeSource{}, nil)
	m.SetTasks(sampleTasks())

	m, _ = m.Update(runes("/"))
	if !m.Capturing() {
		t.Fatal("search mode should capture keys")
	}
	for _, r := range "app" {
		m, _ = m.Update(runes(string(r)))
	}
	if got := ids(m.Visible()); !equalIDs(got, []int64{3}) {
		t.Errorf("visible = %v, want [3]", got)
	}

	// Digits typed into the search box are text, not sort keys.
	m, _ = m.Update(runes("1"))
	if m.Sort().Field != taskquery.FieldReward || m.Sort().Order != taskquery.Desc {
		t.Errorf("sort changed while searching: %+v", m.Sort())
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.Capturing() {
		t.Error("esc should leave search mode")
	}
	if got := len(m.Visible()); got != 3 {
		t.Errorf("visible after esc = %d, want 3", got)
	}
}

func TestSetQueryFromCommand(t *testing.T) {
	m := newModel(fakeSource{}, nil)
	m.SetTasks(sampleTasks())
	m.SetQuery("REVIEW")
	if got := ids(m.Visible()); !equalIDs(got, []int64{2}) {
		t.Errorf("visible = %v, want [2]", got)
	}
}

func TestSelectEmitsTask(t *testing.T) {
	m := newModel(fakeSource{}, nil)
	m.SetTasks(sampleTasks())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter returned no command")
	}
	msg, ok := cmd().(SelectedTaskMsg)
	if !ok || msg.Task.ID != 2 {
		t.Errorf("msg = %#v, want task 2", msg)
	}
}
