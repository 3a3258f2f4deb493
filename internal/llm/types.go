// Package llm provides the remote language model client.
package llm

// Message roles. The Gemini session vocabulary is user/model; tool
// outcome messages carry RoleTool internally and are converted to the
// wire format at the provider boundary (gemini.go).
const (
	RoleUser  = "user"
	RoleModel = "model"
	RoleTool  = "tool"
)

// Message represents a chat message in an agent session.
type Message struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"` // set on model messages requesting tools
	ToolName  string     `json:"tool_name,omitempty"`  // set on tool messages (originating tool)
}

// ToolCall represents a function-call directive from the model.
type ToolCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// ToolDeclaration describes one callable to the model: its name, a
// natural-language description, and a JSON-schema argument object.
// Declarations are derived from the same registry records the
// dispatcher resolves against, so the two cannot fall out of sync.
type ToolDeclaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// ChatResponse is the typed outcome of one model round-trip. Exactly one
// of Message.ToolCalls (a tool request) or Message.Content (a final text
// answer) is meaningful; callers branch on HasToolCalls.
type ChatResponse struct {
	Model        string
	Message      Message
	FinishReason string

	// Token usage as reported by the provider.
	InputTokens  int
	OutputTokens int
}

// HasToolCalls reports whether the model requested tool execution
// this turn rather than producing a final answer.
func (r *ChatResponse) HasToolCalls() bool {
	return len(r.Message.ToolCalls) > 0
}
