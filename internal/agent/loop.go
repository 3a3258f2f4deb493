// Package agent implements the core coaching loop: the bounded exchange
// with the remote model that interleaves tool dispatch with model turns
// until a final answer is produced.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Jayden1717/fitness-companion/internal/llm"
	"github.com/Jayden1717/fitness-companion/internal/prompts"
	"github.com/Jayden1717/fitness-companion/internal/store"
	"github.com/Jayden1717/fitness-companion/internal/tools"
)

// maxModelTurns is the hard ceiling on round-trips to the remote model
// per request. It bounds work, not wall-clock time: a model that keeps
// requesting tools without ever answering is cut off here.
const maxModelTurns = 10

// FallbackAnswer is returned when the turn budget is exhausted without a
// text answer. An apologetic message beats an HTTP error for a
// conversational client.
const FallbackAnswer = "I'm sorry, I couldn't process your request."

// Loop drives the multi-turn exchange with the remote model.
type Loop struct {
	logger *slog.Logger
	client llm.Client
	model  string
	binder *tools.Binder
}

// NewLoop creates the coaching loop.
func NewLoop(logger *slog.Logger, client llm.Client, model string, binder *tools.Binder) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		logger: logger,
		client: client,
		model:  model,
		binder: binder,
	}
}

// Run executes one coaching exchange: seed a fresh session from the
// user's prior turns, then alternate model calls and tool dispatch until
// the model produces text or the turn budget runs out.
//
// Tool failures never escape the dispatch boundary — unknown names and
// handler errors are fed back to the model in-band as tool results. The
// returned error is non-nil only when the model itself is unreachable;
// the request handler converts that into apology text.
func (l *Loop) Run(ctx context.Context, userID, utterance string, history []store.Turn) (string, error) {
	registry := l.binder.ForUser(userID)
	declarations := registry.Declarations()

	session := seedSession(history, utterance)

	l.logger.Info("coaching loop started",
		"user", userID,
		"history_turns", len(history),
		"model", l.model,
	)

	for turn := 0; turn < maxModelTurns; turn++ {
		resp, err := l.client.Chat(ctx, l.model, prompts.System, session, declarations)
		if err != nil {
			return "", fmt.Errorf("model call: %w", err)
		}

		if !resp.HasToolCalls() {
			l.logger.Info("coaching loop completed",
				"user", userID,
				"turns", turn+1,
				"input_tokens", resp.InputTokens,
				"output_tokens", resp.OutputTokens,
			)
			return resp.Message.Content, nil
		}

		// Replay the directive so the model sees its own request, then
		// feed each outcome back as a tool message.
		session = append(session, resp.Message)
		for _, tc := range resp.Message.ToolCalls {
			result := l.dispatch(ctx, registry, tc)
			session = append(session, llm.Message{
				Role:     llm.RoleTool,
				ToolName: tc.Name,
				Content:  result,
			})
		}
	}

	l.logger.Warn("turn budget exhausted", "user", userID, "turns", maxModelTurns)
	return FallbackAnswer, nil
}

// dispatch resolves and runs one tool call, converting every failure
// mode into in-band result text. Nothing a tool does can abort the
// request; the model is told what went wrong and decides how to proceed.
func (l *Loop) dispatch(ctx context.Context, registry *tools.Registry, tc llm.ToolCall) string {
	l.logger.Info("model requested tool", "tool", tc.Name, "args", tc.Args)

	result, err := registry.Execute(ctx, tc.Name, tc.Args)
	if err != nil {
		var notFound *tools.ErrToolNotFound
		if errors.As(err, &notFound) {
			l.logger.Warn("unknown tool requested", "tool", tc.Name)
			return fmt.Sprintf("Error: Tool %s not found.", tc.Name)
		}
		l.logger.Warn("tool execution failed", "tool", tc.Name, "error", err)
		return fmt.Sprintf("Error executing %s: %v", tc.Name, err)
	}
	return result
}

// seedSession adapts persisted turns into the model's role vocabulary
// (user/assistant → user/model) and appends the new utterance. Only
// user/assistant turns are ever persisted, so no filtering is needed.
func seedSession(history []store.Turn, utterance string) []llm.Message {
	session := make([]llm.Message, 0, len(history)+1)
	for _, t := range history {
		role := llm.RoleModel
		if t.Role == store.RoleUser {
			role = llm.RoleUser
		}
		session = append(session, llm.Message{Role: role, Content: t.Content})
	}
	return append(session, llm.Message{Role: llm.RoleUser, Content: utterance})
}
