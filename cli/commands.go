// Command execution for CLI commands.
//
// Information Hiding:
// - Output formatting hidden
// - Session persistence for the interactive chat hidden
// - Report directory conversion hidden

package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/richinex/liarsbar/llm"
	"github.com/richinex/liarsbar/report"
	"github.com/richinex/liarsbar/storage"
)

// Ask sends one prompt to model and prints the reasoning and answer.
func Ask(ctx context.Context, model, systemPrompt, prompt string, opts Options) error {
	a, err := newApp(opts)
	if err != nil {
		return err
	}
	defer a.Close()

	var messages []llm.ChatMessage
	if systemPrompt != "" {
		messages = append(messages, llm.SystemMessage(systemPrompt))
	}
	messages = append(messages, llm.UserMessage(prompt))

	result := a.client.Chat(ctx, model, messages)
	if a.settings.Stream.Debug {
		fmt.Fprintln(a.out)
	}
	if result.Empty() {
		return fmt.Errorf("model %s returned an empty response", model)
	}

	printResult(a, result)
	return nil
}

func printResult(a *app, result llm.ChatResult) {
	if result.Reasoning != "" {
		fmt.Fprintf(a.out, "[reasoning]\n%s\n\n", strings.TrimSpace(result.Reasoning))
	}
	fmt.Fprintf(a.out, "[answer]\n%s\n", strings.TrimSpace(result.Answer))
}

// EphemeralDB as the chat database keeps the session in memory only.
const EphemeralDB = ":memory:"

// Chat starts an interactive chat session with model. History is persisted
// in the SQLite database at dbPath under sessionID; a new id is generated
// when sessionID is empty.
func Chat(ctx context.Context, model, systemPrompt, sessionID, dbPath string, opts Options) error {
	a, err := newApp(opts)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.registry.Resolve(model); err != nil {
		return err
	}

	if dbPath == EphemeralDB {
		return chatLoop(ctx, a, storage.NewInMemoryStorage(), model, systemPrompt, sessionID)
	}

	store, err := storage.OpenSqlite(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	return chatLoop(ctx, a, store, model, systemPrompt, sessionID)
}

func chatLoop(ctx context.Context, a *app, store storage.TranscriptStorage, model, systemPrompt, sessionID string) error {
	session := sessionID
	if session == "" {
		session = uuid.New().String()
	}

	turns, err := store.Load(ctx, session)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if len(turns) > 0 {
		fmt.Fprintf(a.out, "Resuming session '%s' (%d turns)\n\n", session, len(turns))
	}

	fmt.Fprintf(a.out, "Chat with %s (session %s). Type 'exit' to quit.\n\n", a.registry.Nickname(model), session)

	scanner := bufio.NewScanner(a.in)
	for {
		fmt.Fprint(a.out, "> ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}

		var messages []llm.ChatMessage
		if systemPrompt != "" {
			messages = append(messages, llm.SystemMessage(systemPrompt))
		}
		messages = append(messages, storage.History(turns)...)
		messages = append(messages, llm.UserMessage(input))

		result := a.client.Chat(ctx, model, messages)
		if result.Empty() {
			fmt.Fprintf(a.out, "\n(no response from %s, see log for details)\n\n", model)
			continue
		}
		fmt.Fprintln(a.out)
		printResult(a, result)
		fmt.Fprintln(a.out)

		newTurns := []storage.Turn{storage.UserTurn(model, input), storage.AssistantTurn(model, result)}
		for _, turn := range newTurns {
			if err := store.Append(ctx, session, turn); err != nil {
				a.logger.Warn("failed to save turn", zap.String("session", session), zap.Error(err))
			}
		}
		turns = append(turns, newTurns...)
	}

	return scanner.Err()
}

// Models lists the catalog with each model's provider, transport and
// whether a credential is configured.
func Models(opts Options) error {
	a, err := newApp(opts)
	if err != nil {
		return err
	}
	defer a.Close()

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODEL\tNICKNAME\tPROVIDER\tKIND\tCREDENTIAL")
	for _, r := range a.registry.Models() {
		credential := "missing"
		if r.Provider.APIKey != "" {
			credential = "set"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.Model.ID, a.registry.Nickname(r.Model.ID), r.Provider.ID, r.Provider.Kind, credential)
	}
	return w.Flush()
}

// Report converts every game record in inDir to readable text in outDir.
func Report(inDir, outDir string, includeReasoning bool, opts Options) error {
	a, err := newApp(opts)
	if err != nil {
		return err
	}
	defer a.Close()

	written, err := report.ConvertDir(inDir, outDir, report.Options{IncludeReasoning: includeReasoning})
	for _, path := range written {
		fmt.Fprintf(a.out, "Generated: %s\n", path)
	}
	if err != nil {
		return fmt.Errorf("some records could not be converted: %w", err)
	}
	return nil
}

// Sessions lists the chat sessions stored in the database at dbPath.
func Sessions(ctx context.Context, dbPath string, opts Options) error {
	a, err := newApp(opts)
	if err != nil {
		return err
	}
	defer a.Close()

	store, err := storage.OpenSqlite(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	sessions, err := store.ListSessions(ctx)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(a.out, "No sessions stored.")
		return nil
	}
	for _, id := range sessions {
		turns, err := store.Load(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s\t%d turns\n", id, len(turns))
	}
	return nil
}
