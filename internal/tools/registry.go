package tools

import (
	"context"
	"fmt"
	"sort"

	"github.com/brilliance/launcher-gateway/internal/logger"
)

// Param is one named parameter in a tool's schema.
type Param struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// Definition is the provider-agnostic schema of one tool. Adapters
// translate the same definition into each provider's calling convention.
type Definition struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Params      map[string]Param `json:"params,omitempty"`
}

// RequiredParams lists the required parameter names in stable order.
func (d Definition) RequiredParams() []string {
	var out []string
	for name, p := range d.Params {
		if p.Required {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Handler executes one tool call. Returned values must survive Normalize;
// errors are converted to {error} results at the registry boundary and
// never travel further.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Registry maps tool names to handlers. The handler map is immutable after
// construction, so it is safe for concurrent turns.
type Registry struct {
	log      *logger.Logger
	defs     []Definition
	handlers map[string]Handler
}

func NewRegistry(log *logger.Logger, defs []Definition, handlers map[string]Handler) *Registry {
	return &Registry{
		log:      log.With("service", "ToolRegistry"),
		defs:     defs,
		handlers: handlers,
	}
}

// Definitions returns the tool schemas in registration order.
func (r *Registry) Definitions() []Definition {
	return r.defs
}

// Execute dispatches a tool call by name. It never panics and never
// returns a Go error: every failure mode comes back as a structured
// {"error": ...} value so the provider can be told about its own mistake.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (result any) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("Tool handler panicked", "tool", name, "panic", rec)
			result = map[string]any{"error": fmt.Sprintf("Tool %s failed: %v", name, rec)}
		}
	}()

	handler, ok := r.handlers[name]
	if !ok {
		return map[string]any{"error": "Unknown tool: " + name}
	}
	if args == nil {
		args = map[string]any{}
	}

	out, err := handler(ctx, args)
	if err != nil {
		r.log.Warn("Tool execution failed", "tool", name, "error", err)
		return map[string]any{"error": err.Error()}
	}
	return Normalize(out)
}
