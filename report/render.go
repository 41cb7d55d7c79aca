package report

import (
	"fmt"
	"strings"
)

// NoReasoning is rendered in place of empty model reasoning.
const NoReasoning = "no reasoning surfaced by this model"

const (
	banner    = "════════════════════════════"
	roundRule = "────────────────────────────"
	playRule  = "----------------------------------"
	stars     = "★ ★ ★ ★ ★ ★ ★ ★ ★ ★ ★ ★"
)

// Options controls rendering.
type Options struct {
	// IncludeReasoning adds each model's reasoning under its stated reason.
	IncludeReasoning bool
}

// Render produces a readable English transcript of a game.
func Render(rec GameRecord, opts Options) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Game ID: %s\n", rec.GameID)
	fmt.Fprintf(&b, "Players: %s\n\n", strings.Join(rec.PlayerNames, ", "))
	writeBanner(&b, "Game start")

	for _, round := range rec.Rounds {
		renderRound(&b, round, opts)
	}

	b.WriteString("\n")
	writeBanner(&b, "Game over")

	winner := rec.Winner
	if winner == "" {
		winner = "game still in progress"
	}
	b.WriteString(stars + "\n")
	fmt.Fprintf(&b, "    Winner: %s\n", winner)
	b.WriteString(stars + "\n")

	return b.String()
}

func writeBanner(b *strings.Builder, title string) {
	b.WriteString(banner + "\n")
	fmt.Fprintf(b, "         %s\n", title)
	b.WriteString(banner + "\n\n")
}

func renderRound(b *strings.Builder, round RoundRecord, opts Options) {
	b.WriteString(roundRule + "\n")
	fmt.Fprintf(b, "Round %d\n", round.RoundID)
	b.WriteString(roundRule + "\n")
	fmt.Fprintf(b, "Players this round: %s\n", strings.Join(round.RoundPlayers, ", "))
	fmt.Fprintf(b, "%s starts this round.\n\n", round.StartingPlayer)

	// Opinions are listed in seating order, restricted to players still in the round.
	for _, player := range round.RoundPlayers {
		opinions, ok := round.PlayerOpinions[player]
		if !ok {
			continue
		}
		fmt.Fprintf(b, "%s's view of the other players:\n", player)
		for _, other := range round.RoundPlayers {
			if opinion, ok := opinions[other]; ok {
				fmt.Fprintf(b, "  - %s: %s\n", other, opinion)
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("Dealing cards...\n\n")
	fmt.Fprintf(b, "Target card: %s\n", round.TargetCard)

	if len(round.PlayerInitialStates) > 0 {
		b.WriteString("Initial player states:\n")
		for _, state := range round.PlayerInitialStates {
			fmt.Fprintf(b, "%s:\n", state.PlayerName)
			fmt.Fprintf(b, "  - Bullet position: %d\n", state.BulletPosition)
			fmt.Fprintf(b, "  - Current chamber: %d\n", state.CurrentGunPosition)
			fmt.Fprintf(b, "  - Initial hand: %s\n\n", strings.Join(state.InitialHand, ", "))
		}
	}

	b.WriteString(playRule + "\n")
	for _, action := range round.PlayHistory {
		renderAction(b, action, round.TargetCard, opts)
	}

	if result := round.RoundResult; result != nil {
		b.WriteString("Shot result:\n")
		if result.BulletHit {
			fmt.Fprintf(b, "The bullet fired, %s is dead.\n", result.ShooterName)
		} else {
			fmt.Fprintf(b, "The chamber was empty, %s survives.\n", result.ShooterName)
		}
		b.WriteString("\n")
	}
}

func renderAction(b *strings.Builder, action PlayAction, target string, opts Options) {
	fmt.Fprintf(b, "%s's turn to play\n", action.PlayerName)
	fmt.Fprintf(b, "%s %s\n", action.PlayerName, action.Behavior)
	fmt.Fprintf(b, "Played: %s, remaining hand: %s (target card: %s)\n",
		joinCards(action.PlayedCards), joinCards(action.RemainingCards), target)
	fmt.Fprintf(b, "Reason for play: %s\n", action.PlayReason)
	if opts.IncludeReasoning {
		writeReasoning(b, action.PlayThinking)
	}

	if action.WasChallenged {
		fmt.Fprintf(b, "%s challenges\n", action.NextPlayer)
		fmt.Fprintf(b, "Reason for challenge: %s\n", action.ChallengeReason)
	} else {
		fmt.Fprintf(b, "%s does not challenge\n", action.NextPlayer)
		fmt.Fprintf(b, "Reason for not challenging: %s\n", action.ChallengeReason)
	}
	if opts.IncludeReasoning {
		writeReasoning(b, action.ChallengeThinking)
	}

	if action.WasChallenged && action.ChallengeResult != nil {
		if *action.ChallengeResult {
			fmt.Fprintf(b, "Challenge result: success, %s is exposed.\n", action.PlayerName)
		} else {
			fmt.Fprintf(b, "Challenge result: failed, %s is penalized.\n", action.NextPlayer)
		}
	}
	b.WriteString("\n" + playRule + "\n")
}

func writeReasoning(b *strings.Builder, thinking string) {
	if thinking == "" {
		fmt.Fprintf(b, "Reasoning: %s\n\n", NoReasoning)
		return
	}
	fmt.Fprintf(b, "Reasoning:\n%s\n\n", collapseBlankLines(thinking))
}

// collapseBlankLines replaces each double newline with a single one.
func collapseBlankLines(s string) string {
	return strings.ReplaceAll(s, "\n\n", "\n")
}

func joinCards(cards []string) string {
	if len(cards) == 0 {
		return "none"
	}
	return strings.Join(cards, " ")
}
