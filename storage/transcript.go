// Package storage provides chat transcript storage.
//
// Information Hiding:
// - Storage backend implementation details hidden behind interface
// - Allows swapping between memory and SQLite without API changes
// - Reasoning is kept for the record but never sent back upstream

package storage

import (
	"context"
	"errors"

	"github.com/richinex/liarsbar/llm"
)

// ErrEmptySessionID is returned when a turn is appended without a session.
var ErrEmptySessionID = errors.New("session id must not be empty")

// Turn is one stored message of a session, with the reasoning the model
// surfaced while producing it (assistant turns only).
type Turn struct {
	Model     string
	Role      string
	Content   string
	Reasoning string
}

// UserTurn creates a turn for a prompt sent to model.
func UserTurn(model, content string) Turn {
	return Turn{Model: model, Role: llm.RoleUser, Content: content}
}

// AssistantTurn creates a turn from a chat result.
func AssistantTurn(model string, result llm.ChatResult) Turn {
	return Turn{
		Model:     model,
		Role:      llm.RoleAssistant,
		Content:   result.Answer,
		Reasoning: result.Reasoning,
	}
}

// TranscriptStorage defines the interface for storing chat transcripts.
type TranscriptStorage interface {
	// Append adds a turn to the end of a session, creating the session if needed.
	Append(ctx context.Context, sessionID string, turn Turn) error

	// Load loads the turns of a session in append order.
	// Returns empty slice (not nil) if session doesn't exist.
	// Returns error only for storage failures (I/O errors, etc.), not missing sessions.
	Load(ctx context.Context, sessionID string) ([]Turn, error)

	// Delete deletes a session and its turns.
	Delete(ctx context.Context, sessionID string) error

	// ListSessions lists all session IDs, most recently updated first.
	ListSessions(ctx context.Context) ([]string, error)

	// Exists checks if a session exists.
	Exists(ctx context.Context, sessionID string) (bool, error)
}

// History converts stored turns into a request history. Reasoning is dropped.
func History(turns []Turn) []llm.ChatMessage {
	history := make([]llm.ChatMessage, 0, len(turns))
	for _, turn := range turns {
		history = append(history, llm.ChatMessage{Role: turn.Role, Content: turn.Content})
	}
	return history
}
