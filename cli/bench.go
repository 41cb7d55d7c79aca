package cli

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/richinex/liarsbar/internal/extract"
	"github.com/richinex/liarsbar/llm"
	"github.com/richinex/liarsbar/report"
	"github.com/richinex/liarsbar/runner"
)

// BenchOptions configures a bench batch.
type BenchOptions struct {
	Models  []string
	Prompt  string
	Games   int
	OutDir  string
	Shuffle bool
}

// Bench seats one player per model and plays bench.Games polls. In each poll
// every player answers the prompt concurrently and the answers, with their
// reasoning, are saved as a game record in bench.OutDir.
func Bench(ctx context.Context, bench BenchOptions, opts Options) error {
	a, err := newApp(opts)
	if err != nil {
		return err
	}
	defer a.Close()

	players, err := runner.PlayersFromRegistry(a.registry, bench.Models)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(bench.OutDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	runnerOpts := []runner.Option{runner.WithLogger(a.logger)}
	if bench.Shuffle {
		runnerOpts = append(runnerOpts, runner.WithShuffle(rand.New(rand.NewSource(time.Now().UnixNano()))))
	}

	factory := func(seats []runner.Player) (runner.Game, error) {
		return &pollGame{client: a.client, players: seats, prompt: bench.Prompt, outDir: bench.OutDir, logger: a.logger}, nil
	}
	r, err := runner.New(players, bench.Games, factory, runnerOpts...)
	if err != nil {
		return err
	}

	summary, err := r.Run(ctx)
	fmt.Fprintf(a.out, "Played %d, failed %d\n", summary.Played, summary.Failed)
	return err
}

// pollGame asks every seated player the same prompt once.
type pollGame struct {
	client  *llm.Client
	players []runner.Player
	prompt  string
	outDir  string
	logger  *zap.Logger
}

var errNoAnswers = errors.New("every player returned an empty response")

// pollAnswer is the optional structured form of an answer. Prompts that ask
// for {"reason": ..., "behavior": ...} get those fields split out.
type pollAnswer struct {
	Reason   string `json:"reason"`
	Behavior string `json:"behavior"`
}

func (g *pollGame) Play(ctx context.Context) error {
	requests := make([]llm.Request, len(g.players))
	for i, p := range g.players {
		requests[i] = llm.Request{Model: p.Model, Messages: []llm.ChatMessage{llm.UserMessage(g.prompt)}}
	}
	results := g.client.ChatAll(ctx, requests)

	names := make([]string, len(g.players))
	for i, p := range g.players {
		names[i] = p.Name
	}

	round := report.RoundRecord{
		RoundID:        1,
		RoundPlayers:   names,
		StartingPlayer: names[0],
	}
	answered := 0
	for i, p := range g.players {
		action := report.PlayAction{
			PlayerName: p.Name,
			Behavior:   "answers the prompt",
			NextPlayer: names[(i+1)%len(names)],
		}
		reason := results[i].Answer
		if parsed, err := extract.Into[pollAnswer](reason); err == nil {
			if parsed.Reason != "" {
				reason = parsed.Reason
			}
			if parsed.Behavior != "" {
				action.Behavior = parsed.Behavior
			}
		}
		action.RecordPlay(reason, results[i])
		round.PlayHistory = append(round.PlayHistory, action)
		if !results[i].Empty() {
			answered++
		}
	}

	rec := report.GameRecord{
		GameID:      report.NewGameID(),
		PlayerNames: names,
		Rounds:      []report.RoundRecord{round},
	}
	path := filepath.Join(g.outDir, rec.GameID+".json")
	if err := report.Save(path, rec); err != nil {
		return err
	}
	g.logger.Info("poll saved", zap.String("path", path), zap.Int("answered", answered), zap.Int("players", len(names)))

	if answered == 0 {
		return errNoAnswers
	}
	return nil
}
