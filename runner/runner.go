// Package runner plays a batch of games between models.
//
// Information Hiding:
// - Player seating order and its one-time shuffle
// - Per-game fault containment, including panics
// - Batch accounting reported as a Summary

package runner

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"github.com/richinex/liarsbar/llm"
)

// Player is a seat at the table bound to one model.
type Player struct {
	Name  string
	Model string
}

// Game is one playable game.
type Game interface {
	Play(ctx context.Context) error
}

// Factory creates a fresh game for the given seating.
type Factory func(players []Player) (Game, error)

// Summary counts the outcome of a batch.
type Summary struct {
	Played int
	Failed int
}

// Runner plays games one after another with the same players.
type Runner struct {
	players []Player
	games   int
	factory Factory
	shuffle *rand.Rand
	logger  *zap.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithShuffle shuffles the seating once, before the first game.
func WithShuffle(rng *rand.Rand) Option {
	return func(r *Runner) {
		r.shuffle = rng
	}
}

// WithLogger sets the logger for per-game progress and failures.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a runner for games games.
func New(players []Player, games int, factory Factory, opts ...Option) (*Runner, error) {
	if len(players) == 0 {
		return nil, errors.New("runner needs at least one player")
	}
	if games < 0 {
		return nil, fmt.Errorf("game count must not be negative, got %d", games)
	}
	if factory == nil {
		return nil, errors.New("runner needs a game factory")
	}

	r := &Runner{
		players: append([]Player(nil), players...),
		games:   games,
		factory: factory,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.shuffle != nil {
		r.shuffle.Shuffle(len(r.players), func(i, j int) {
			r.players[i], r.players[j] = r.players[j], r.players[i]
		})
	}
	return r, nil
}

// Players returns the seating order used for every game.
func (r *Runner) Players() []Player {
	return append([]Player(nil), r.players...)
}

// Run plays every game. A game that fails to start, returns an error or
// panics is logged and counted; the batch continues. Cancellation of ctx
// stops the batch between games and is returned with the partial summary.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	var summary Summary

	for n := 1; n <= r.games; n++ {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		logger := r.logger.With(zap.Int("game", n), zap.Int("of", r.games))
		logger.Info("game starting")

		if err := r.playOne(ctx); err != nil {
			summary.Failed++
			logger.Error("game failed", zap.Error(err))
			continue
		}
		summary.Played++
		logger.Info("game finished")
	}

	return summary, nil
}

func (r *Runner) playOne(ctx context.Context) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("game panicked: %v", rec)
		}
	}()

	game, err := r.factory(r.Players())
	if err != nil {
		return fmt.Errorf("failed to create game: %w", err)
	}
	return game.Play(ctx)
}

// PlayersFromRegistry seats one player per model, named by nickname.
// Unknown models are rejected so a typo fails before any game starts.
func PlayersFromRegistry(reg *llm.Registry, modelIDs []string) ([]Player, error) {
	players := make([]Player, 0, len(modelIDs))
	for _, id := range modelIDs {
		if _, err := reg.Resolve(id); err != nil {
			return nil, err
		}
		players = append(players, Player{Name: reg.Nickname(id), Model: id})
	}
	return players, nil
}
