package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/brilliance/launcher-gateway/internal/apperr"
	"github.com/brilliance/launcher-gateway/internal/domain/conversation"
	"github.com/brilliance/launcher-gateway/internal/logger"
	"github.com/brilliance/launcher-gateway/internal/providers"
	"github.com/brilliance/launcher-gateway/internal/tools"
)

// DefaultModel is used when the stored credential has no model pinned.
const DefaultModel = "gpt-4o"

type client struct {
	log     *logger.Logger
	baseURL string
}

func New(log *logger.Logger) providers.Adapter {
	return &client{
		log:     log.With("service", "OpenAIClient"),
		baseURL: strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
	}
}

func (c *client) Name() string { return providers.OpenAI }

func (c *client) api(apiKey string) *goopenai.Client {
	cfg := goopenai.DefaultConfig(apiKey)
	if c.baseURL != "" {
		cfg.BaseURL = c.baseURL
	}
	return goopenai.NewClientWithConfig(cfg)
}

func (c *client) Complete(ctx context.Context, history []providers.Turn, defs []tools.Definition, cred providers.Credential) (*providers.AssistantTurn, error) {
	model := cred.Model
	if model == "" {
		model = DefaultModel
	}

	msgs, err := translateHistory(history)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrProviderFailure, err)
	}

	req := goopenai.ChatCompletionRequest{
		Model:    model,
		Messages: msgs,
	}
	for _, d := range defs {
		req.Tools = append(req.Tools, goopenai.Tool{
			Type: goopenai.ToolTypeFunction,
			Function: &goopenai.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  providers.SchemaFor(d),
			},
		})
	}

	resp, err := c.api(cred.APIKey).CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: openai: %v", apperr.ErrProviderFailure, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: openai returned no choices", apperr.ErrProviderFailure)
	}

	choice := resp.Choices[0].Message
	out := &providers.AssistantTurn{Content: choice.Content}
	for _, call := range choice.ToolCalls {
		args := map[string]any{}
		if call.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
				return nil, fmt.Errorf("%w: openai tool arguments for %s: %v", apperr.ErrProviderFailure, call.Function.Name, err)
			}
		}
		out.ToolCalls = append(out.ToolCalls, providers.ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: args,
		})
	}
	out.Final = len(out.ToolCalls) == 0
	return out, nil
}

func (c *client) Validate(ctx context.Context, cred providers.Credential) error {
	model := cred.Model
	if model == "" {
		model = DefaultModel
	}
	_, err := c.api(cred.APIKey).CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:     model,
		MaxTokens: 1,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: "ping"},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: openai: %v", apperr.ErrProviderFailure, err)
	}
	return nil
}

func translateHistory(history []providers.Turn) ([]goopenai.ChatCompletionMessage, error) {
	var msgs []goopenai.ChatCompletionMessage
	for _, turn := range history {
		switch turn.Role {
		case conversation.RoleSystem:
			msgs = append(msgs, goopenai.ChatCompletionMessage{
				Role:    goopenai.ChatMessageRoleSystem,
				Content: turn.Content,
			})
		case conversation.RoleUser:
			msgs = append(msgs, goopenai.ChatCompletionMessage{
				Role:    goopenai.ChatMessageRoleUser,
				Content: turn.Content,
			})
		case conversation.RoleAssistant:
			msg := goopenai.ChatCompletionMessage{
				Role:    goopenai.ChatMessageRoleAssistant,
				Content: turn.Content,
			}
			for _, call := range turn.ToolCalls {
				raw, err := json.Marshal(call.Arguments)
				if err != nil {
					return nil, fmt.Errorf("encode tool arguments for %s: %w", call.Name, err)
				}
				msg.ToolCalls = append(msg.ToolCalls, goopenai.ToolCall{
					ID:   call.ID,
					Type: goopenai.ToolTypeFunction,
					Function: goopenai.FunctionCall{
						Name:      call.Name,
						Arguments: string(raw),
					},
				})
			}
			msgs = append(msgs, msg)
		case conversation.RoleTool:
			for _, res := range turn.ToolResults {
				raw, err := json.Marshal(res.Result)
				if err != nil {
					return nil, fmt.Errorf("encode tool result for %s: %w", res.Name, err)
				}
				msgs = append(msgs, goopenai.ChatCompletionMessage{
					Role:       goopenai.ChatMessageRoleTool,
					ToolCallID: res.CallID,
					Name:       res.Name,
					Content:    string(raw),
				})
			}
		default:
			return nil, fmt.Errorf("unsupported role %q", turn.Role)
		}
	}
	return msgs, nil
}
