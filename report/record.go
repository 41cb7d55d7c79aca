// Package report turns game records into readable transcripts.
//
// Information Hiding:
// - JSON layout of a game record on disk
// - Text layout of the rendered transcript
// - Directory walking and output naming for batch conversion

package report

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/richinex/liarsbar/llm"
)

// GameRecord is the persisted history of one game.
type GameRecord struct {
	GameID      string        `json:"game_id"`
	PlayerNames []string      `json:"player_names"`
	Rounds      []RoundRecord `json:"rounds"`
	Winner      string        `json:"winner,omitempty"`
}

// RoundRecord is one round: who played, what was claimed, who got shot.
type RoundRecord struct {
	RoundID             int                          `json:"round_id"`
	TargetCard          string                       `json:"target_card"`
	RoundPlayers        []string                     `json:"round_players"`
	StartingPlayer      string                       `json:"starting_player"`
	PlayerOpinions      map[string]map[string]string `json:"player_opinions"`
	PlayerInitialStates []PlayerInitialState         `json:"player_initial_states,omitempty"`
	PlayHistory         []PlayAction                 `json:"play_history"`
	RoundResult         *ShootingResult              `json:"round_result"`
}

// PlayerInitialState is a player's hand and revolver state when a round starts.
type PlayerInitialState struct {
	PlayerName         string   `json:"player_name"`
	BulletPosition     int      `json:"bullet_position"`
	CurrentGunPosition int      `json:"current_gun_position"`
	InitialHand        []string `json:"initial_hand"`
}

// PlayAction is one play and the next player's decision to challenge it.
// The reason/thinking pairs hold a model's answer and reasoning.
type PlayAction struct {
	PlayerName        string   `json:"player_name"`
	PlayedCards       []string `json:"played_cards"`
	RemainingCards    []string `json:"remaining_cards"`
	PlayReason        string   `json:"play_reason"`
	Behavior          string   `json:"behavior"`
	NextPlayer        string   `json:"next_player"`
	WasChallenged     bool     `json:"was_challenged"`
	ChallengeReason   string   `json:"challenge_reason"`
	ChallengeResult   *bool    `json:"challenge_result"`
	PlayThinking      string   `json:"play_thinking"`
	ChallengeThinking string   `json:"challenge_thinking"`
}

// RecordPlay stores the play decision's reasoning next to its stated reason.
func (a *PlayAction) RecordPlay(reason string, result llm.ChatResult) {
	a.PlayReason = reason
	a.PlayThinking = result.Reasoning
}

// RecordChallenge stores the challenge decision's reasoning next to its stated reason.
func (a *PlayAction) RecordChallenge(reason string, result llm.ChatResult) {
	a.ChallengeReason = reason
	a.ChallengeThinking = result.Reasoning
}

// ShootingResult is the outcome of the penalty shot that ends a round.
type ShootingResult struct {
	ShooterName string `json:"shooter_name"`
	BulletHit   bool   `json:"bullet_hit"`
}

// NewGameID returns a fresh random game identifier.
func NewGameID() string {
	return uuid.New().String()
}

// Load reads a game record from a JSON file.
func Load(path string) (GameRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return GameRecord{}, fmt.Errorf("failed to read game record: %w", err)
	}
	var rec GameRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return GameRecord{}, fmt.Errorf("failed to decode game record %s: %w", path, err)
	}
	return rec, nil
}

// Save writes a game record as indented JSON.
func Save(path string, rec GameRecord) error {
	raw, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode game record: %w", err)
	}
	if err := os.WriteFile(path, append(raw, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write game record: %w", err)
	}
	return nil
}
