package providers

import (
	"context"

	"github.com/brilliance/launcher-gateway/internal/tools"
)

// Provider names, the closed set of back ends the gateway can talk to.
const (
	Claude = "claude"
	OpenAI = "openai"
	Gemini = "gemini"
)

// ToolCall is a provider-requested tool invocation in the universal shape.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// ToolResult feeds one executed tool call back to the provider.
type ToolResult struct {
	CallID string
	Name   string
	Result any
}

// Turn is one prior message in the universal history shape adapters
// translate from. Role is user, assistant, system, or tool.
type Turn struct {
	Role        string
	Content     string
	ToolCalls   []ToolCall
	ToolResults []ToolResult
}

// AssistantTurn is the tagged result of one completion: either a final
// answer or a batch of requested tool calls. Content may accompany pending
// tool calls; both are preserved.
type AssistantTurn struct {
	Final     bool
	Content   string
	ToolCalls []ToolCall
}

// Credential is a resolved API key plus the model the thread should use.
// An empty Model falls back to the adapter's default.
type Credential struct {
	APIKey string
	Model  string
}

// Adapter is the uniform interface over heterogeneous LLM back ends.
type Adapter interface {
	Name() string
	// Complete replays history verbatim in the provider's own request
	// format and returns the assistant's next turn.
	Complete(ctx context.Context, history []Turn, defs []tools.Definition, cred Credential) (*AssistantTurn, error)
	// Validate confirms the credential is usable with a minimal request.
	Validate(ctx context.Context, cred Credential) error
}

// Resolver picks an adapter by provider name.
type Resolver interface {
	ForName(name string) (Adapter, error)
	// Names lists the registered providers in sorted order.
	Names() []string
}

// SchemaFor renders a tool definition as a JSON-schema object, the common
// denominator all three providers accept for function parameters.
func SchemaFor(def tools.Definition) map[string]any {
	props := map[string]any{}
	for name, p := range def.Params {
		props[name] = map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if req := def.RequiredParams(); len(req) > 0 {
		schema["required"] = req
	}
	return schema
}
