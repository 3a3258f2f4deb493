package llm

import "context"

// Client is the interface the agent loop drives. Implementations talk to
// one remote model provider.
type Client interface {
	// Chat sends the system instruction, session messages, and tool
	// catalog, and returns the model's next turn.
	Chat(ctx context.Context, model, system string, messages []Message, tools []ToolDeclaration) (*ChatResponse, error)

	// Ping checks if the provider is reachable.
	Ping(ctx context.Context) error
}
