package runner

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/richinex/liarsbar/llm"
)

func TestMain(m *testing.M) {
	// Ignore known background goroutines from dependencies
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

type gameFunc func(ctx context.Context) error

func (f gameFunc) Play(ctx context.Context) error { return f(ctx) }

var fourPlayers = []Player{
	{Name: "Violet", Model: llm.ModelQwenMax},
	{Name: "Ding", Model: llm.ModelQwQPlus},
	{Name: "Azure", Model: llm.ModelDeepSeekR1},
	{Name: "Bean", Model: llm.ModelDoubaoPro},
}

func TestRunSurvivesFailingGames(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	n := 0
	factory := func(players []Player) (Game, error) {
		n++
		switch n {
		case 2:
			return gameFunc(func(context.Context) error { return errors.New("players disagreed") }), nil
		case 3:
			return gameFunc(func(context.Context) error { panic("deck ran out") }), nil
		case 4:
			return nil, errors.New("no table")
		default:
			return gameFunc(func(context.Context) error { return nil }), nil
		}
	}

	r, err := New(fourPlayers, 5, factory, WithLogger(zap.New(core)))
	require.NoError(t, err)

	summary, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{Played: 2, Failed: 3}, summary)
	assert.Equal(t, 3, logs.FilterMessage("game failed").Len())
	assert.Equal(t, 5, logs.FilterMessage("game starting").Len())
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	played := 0
	factory := func([]Player) (Game, error) {
		return gameFunc(func(context.Context) error {
			played++
			if played == 2 {
				cancel()
			}
			return nil
		}), nil
	}

	r, err := New(fourPlayers, 10, factory)
	require.NoError(t, err)

	summary, err := r.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Summary{Played: 2}, summary)
}

func TestShuffleOnceForAllGames(t *testing.T) {
	var seatings [][]Player
	factory := func(players []Player) (Game, error) {
		seatings = append(seatings, players)
		return gameFunc(func(context.Context) error { return nil }), nil
	}

	r, err := New(fourPlayers, 3, factory, WithShuffle(rand.New(rand.NewSource(7))))
	require.NoError(t, err)
	_, err = r.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, seatings, 3)
	assert.Equal(t, seatings[0], seatings[1])
	assert.Equal(t, seatings[1], seatings[2])
	assert.ElementsMatch(t, fourPlayers, seatings[0])
	assert.Equal(t, "Violet", fourPlayers[0].Name, "caller's slice must not be reordered")
}

func TestNewValidates(t *testing.T) {
	ok := func([]Player) (Game, error) { return nil, nil }

	_, err := New(nil, 1, ok)
	assert.Error(t, err)
	_, err = New(fourPlayers, -1, ok)
	assert.Error(t, err)
	_, err = New(fourPlayers, 1, nil)
	assert.Error(t, err)
}

func TestPlayersFromRegistry(t *testing.T) {
	reg, err := llm.NewRegistry(llm.DefaultProviders(), llm.DefaultModels())
	require.NoError(t, err)

	players, err := PlayersFromRegistry(reg, []string{llm.ModelDeepSeekR1, llm.ModelDoubaoPro})
	require.NoError(t, err)
	assert.Equal(t, []Player{
		{Name: "Azure", Model: llm.ModelDeepSeekR1},
		{Name: "Bean", Model: llm.ModelDoubaoPro},
	}, players)

	_, err = PlayersFromRegistry(reg, []string{"gpt-imaginary"})
	require.Error(t, err)
	assert.True(t, llm.IsKind(err, llm.KindConfiguration))
}
