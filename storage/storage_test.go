package storage

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/richinex/liarsbar/llm"
)

// backends runs fn against every TranscriptStorage implementation.
func backends(t *testing.T, fn func(t *testing.T, storage TranscriptStorage)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, NewInMemoryStorage())
	})
	t.Run("sqlite", func(t *testing.T) {
		storage, err := NewSqliteInMemory()
		if err != nil {
			t.Fatalf("Failed to create storage: %v", err)
		}
		defer storage.Close()
		fn(t, storage)
	})
}

func TestStorageAppendAndLoad(t *testing.T) {
	backends(t, func(t *testing.T, storage TranscriptStorage) {
		ctx := context.Background()

		turns := []Turn{
			UserTurn("deepseek-r1", "Is the bid honest?"),
			AssistantTurn("deepseek-r1", llm.ChatResult{Answer: "Challenge", Reasoning: "three aces already played"}),
			UserTurn("deepseek-r1", "Why?"),
		}
		for _, turn := range turns {
			if err := storage.Append(ctx, "game-1", turn); err != nil {
				t.Fatalf("Append failed: %v", err)
			}
		}

		loaded, err := storage.Load(ctx, "game-1")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if !reflect.DeepEqual(loaded, turns) {
			t.Errorf("expected %+v, got %+v", turns, loaded)
		}
		if loaded[1].Reasoning != "three aces already played" {
			t.Errorf("expected reasoning to round-trip, got %q", loaded[1].Reasoning)
		}
	})
}

func TestStorageLoadNonexistentSession(t *testing.T) {
	backends(t, func(t *testing.T, storage TranscriptStorage) {
		loaded, err := storage.Load(context.Background(), "nonexistent")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if loaded == nil || len(loaded) != 0 {
			t.Errorf("expected empty non-nil slice, got %#v", loaded)
		}
	})
}

func TestStorageRejectsEmptySession(t *testing.T) {
	backends(t, func(t *testing.T, storage TranscriptStorage) {
		if err := storage.Append(context.Background(), "", UserTurn("m", "hi")); err != ErrEmptySessionID {
			t.Errorf("expected ErrEmptySessionID, got %v", err)
		}
	})
}

func TestStorageDeleteSession(t *testing.T) {
	backends(t, func(t *testing.T, storage TranscriptStorage) {
		ctx := context.Background()
		if err := storage.Append(ctx, "doomed", UserTurn("m", "Test")); err != nil {
			t.Fatalf("Append failed: %v", err)
		}

		exists, err := storage.Exists(ctx, "doomed")
		if err != nil || !exists {
			t.Fatalf("expected session to exist, got %v, %v", exists, err)
		}

		if err := storage.Delete(ctx, "doomed"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}

		exists, err = storage.Exists(ctx, "doomed")
		if err != nil || exists {
			t.Errorf("expected session to be gone, got %v, %v", exists, err)
		}
		loaded, _ := storage.Load(ctx, "doomed")
		if len(loaded) != 0 {
			t.Errorf("expected turns to be deleted, got %d", len(loaded))
		}

		// Recreating the session starts from an empty transcript.
		if err := storage.Append(ctx, "doomed", UserTurn("m", "again")); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		loaded, _ = storage.Load(ctx, "doomed")
		if len(loaded) != 1 || loaded[0].Content != "again" {
			t.Errorf("expected a fresh transcript, got %+v", loaded)
		}
	})
}

func TestStorageListSessions(t *testing.T) {
	backends(t, func(t *testing.T, storage TranscriptStorage) {
		ctx := context.Background()
		for _, id := range []string{"a", "b", "a"} {
			if err := storage.Append(ctx, id, UserTurn("m", id)); err != nil {
				t.Fatalf("Append failed: %v", err)
			}
		}

		sessions, err := storage.ListSessions(ctx)
		if err != nil {
			t.Fatalf("ListSessions failed: %v", err)
		}
		if !reflect.DeepEqual(sessions, []string{"a", "b"}) {
			t.Errorf("expected most recent first [a b], got %v", sessions)
		}
	})
}

func TestStorageIsolation(t *testing.T) {
	backends(t, func(t *testing.T, storage TranscriptStorage) {
		ctx := context.Background()
		_ = storage.Append(ctx, "one", UserTurn("m", "first"))
		_ = storage.Append(ctx, "two", UserTurn("m", "second"))

		one, _ := storage.Load(ctx, "one")
		two, _ := storage.Load(ctx, "two")
		if len(one) != 1 || one[0].Content != "first" {
			t.Errorf("unexpected session one: %+v", one)
		}
		if len(two) != 1 || two[0].Content != "second" {
			t.Errorf("unexpected session two: %+v", two)
		}

		// Mutating a loaded slice must not leak into storage.
		one[0].Content = "changed"
		again, _ := storage.Load(ctx, "one")
		if again[0].Content != "first" {
			t.Errorf("expected stored turn to be unchanged, got %q", again[0].Content)
		}
	})
}

func TestOpenSqlitePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "liarsbar.db")
	ctx := context.Background()

	storage, err := OpenSqlite(path)
	if err != nil {
		t.Fatalf("OpenSqlite failed: %v", err)
	}
	if err := storage.Append(ctx, "kept", AssistantTurn("qwq-plus-2025-03-05", llm.ChatResult{Answer: "Play", Reasoning: "bluff"})); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	storage.Close()

	reopened, err := OpenSqlite(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	loaded, err := reopened.Load(ctx, "kept")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 1 || loaded[0].Reasoning != "bluff" || loaded[0].Model != "qwq-plus-2025-03-05" {
		t.Errorf("unexpected turns after reopen: %+v", loaded)
	}
}

func TestHistoryDropsReasoning(t *testing.T) {
	history := History([]Turn{
		UserTurn("m", "hi"),
		AssistantTurn("m", llm.ChatResult{Answer: "hello", Reasoning: "internal"}),
	})
	want := []llm.ChatMessage{llm.UserMessage("hi"), llm.AssistantMessage("hello")}
	if !reflect.DeepEqual(history, want) {
		t.Errorf("expected %+v, got %+v", want, history)
	}
	if got := History(nil); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil history, got %#v", got)
	}
}
