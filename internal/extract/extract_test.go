package extract

import (
	"strings"
	"testing"

	"pgregory.net/rapid"
)

type decision struct {
	PlayedCards []string `json:"played_cards"`
	Behavior    string   `json:"behavior"`
	PlayReason  string   `json:"play_reason"`
}

func TestIntoPureObject(t *testing.T) {
	got, err := Into[decision](`{"played_cards": ["Q"], "behavior": "stares", "play_reason": "honest"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.PlayedCards) != 1 || got.PlayedCards[0] != "Q" {
		t.Errorf("unexpected cards %v", got.PlayedCards)
	}
	if got.PlayReason != "honest" {
		t.Errorf("expected reason 'honest', got %q", got.PlayReason)
	}
}

func TestObjectInProse(t *testing.T) {
	answer := `I will play carefully. {"play_reason": "safe"} Good luck everyone {`
	got, err := Object(answer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"play_reason": "safe"}` {
		t.Errorf("unexpected object %q", got)
	}
}

func TestObjectInFence(t *testing.T) {
	answer := "Let me think {maybe}.\n```json\n{\"behavior\": \"shrugs {nervously}\"}\n```\nDone."
	got, err := Into[decision](answer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Behavior != "shrugs {nervously}" {
		t.Errorf("expected braces inside strings to survive, got %q", got.Behavior)
	}
}

func TestObjectSkipsInvalidSpans(t *testing.T) {
	got, err := Object(`{not json} then {"ok": true}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"ok": true}` {
		t.Errorf("unexpected object %q", got)
	}
}

func TestObjectNested(t *testing.T) {
	got, err := Object(`prefix {"a": {"b": "}"}} suffix`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"a": {"b": "}"}}` {
		t.Errorf("unexpected object %q", got)
	}
}

func TestObjectMissing(t *testing.T) {
	for _, answer := range []string{"", "no json here", "{unbalanced", strings.Repeat("x", 300)} {
		if _, err := Object(answer); err == nil {
			t.Errorf("expected error for %q", answer)
		}
	}
}

func TestIntoTypeMismatch(t *testing.T) {
	if _, err := Into[decision](`{"played_cards": "Q"}`); err == nil {
		t.Error("expected decode error for wrong field type")
	}
}

func TestObjectSurvivesSurroundingProse(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		prefix := rapid.StringMatching(`[a-zA-Z .,!?]*`).Draw(t, "prefix")
		suffix := rapid.StringMatching(`[a-zA-Z .,!?]*`).Draw(t, "suffix")
		reason := rapid.StringMatching(`[a-zA-Z {}.]*`).Draw(t, "reason")

		got, err := Into[decision](prefix + `{"play_reason": "` + reason + `"}` + suffix)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.PlayReason != reason {
			t.Fatalf("expected %q, got %q", reason, got.PlayReason)
		}
	})
}
