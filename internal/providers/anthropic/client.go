package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/brilliance/launcher-gateway/internal/apperr"
	"github.com/brilliance/launcher-gateway/internal/domain/conversation"
	"github.com/brilliance/launcher-gateway/internal/logger"
	"github.com/brilliance/launcher-gateway/internal/pkg/httpx"
	"github.com/brilliance/launcher-gateway/internal/providers"
	"github.com/brilliance/launcher-gateway/internal/tools"
)

const (
	// DefaultModel is used when the stored credential has no model pinned.
	DefaultModel = "claude-sonnet-4-20250514"

	apiVersion       = "2023-06-01"
	defaultMaxTokens = 4096
)

type client struct {
	log        *logger.Logger
	baseURL    string
	httpClient *http.Client
	maxRetries int
}

// New builds the Anthropic messages-API adapter. The API key travels with
// each call as part of the resolved credential, not with the client.
func New(log *logger.Logger) providers.Adapter {
	baseURL := strings.TrimSpace(os.Getenv("ANTHROPIC_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	timeoutSec := 120
	if v := os.Getenv("ANTHROPIC_TIMEOUT_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}
	maxRetries := 3
	if v := os.Getenv("ANTHROPIC_MAX_RETRIES"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed >= 0 {
			maxRetries = parsed
		}
	}

	return &client{
		log:        log.With("service", "AnthropicClient"),
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		maxRetries: maxRetries,
	}
}

func (c *client) Name() string { return providers.Claude }

type anthropicHTTPError struct {
	StatusCode int
	Body       string
}

func (e *anthropicHTTPError) Error() string {
	return fmt.Sprintf("anthropic http %d: %s", e.StatusCode, e.Body)
}

func (e *anthropicHTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

type contentBlock struct {
	Type string `json:"type"`

	// type=text
	Text string `json:"text,omitempty"`

	// type=tool_use
	ID    string         `json:"id,omitempty"`
	Name  string         `json:"name,omitempty"`
	Input map[string]any `json:"input,omitempty"`

	// type=tool_result
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type toolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

type messagesRequest struct {
	Model     string     `json:"model"`
	MaxTokens int        `json:"max_tokens"`
	System    string     `json:"system,omitempty"`
	Messages  []message  `json:"messages"`
	Tools     []toolSpec `json:"tools,omitempty"`
}

type messagesResponse struct {
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
}

func (c *client) Complete(ctx context.Context, history []providers.Turn, defs []tools.Definition, cred providers.Credential) (*providers.AssistantTurn, error) {
	model := cred.Model
	if model == "" {
		model = DefaultModel
	}

	system, msgs, err := translateHistory(history)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrProviderFailure, err)
	}

	req := messagesRequest{
		Model:     model,
		MaxTokens: defaultMaxTokens,
		System:    system,
		Messages:  msgs,
	}
	for _, d := range defs {
		req.Tools = append(req.Tools, toolSpec{
			Name:        d.Name,
			Description: d.Description,
			InputSchema: providers.SchemaFor(d),
		})
	}

	var resp messagesResponse
	if err := c.do(ctx, cred.APIKey, &req, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrProviderFailure, err)
	}

	out := &providers.AssistantTurn{}
	var texts []string
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			texts = append(texts, block.Text)
		case "tool_use":
			out.ToolCalls = append(out.ToolCalls, providers.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: block.Input,
			})
		}
	}
	out.Content = strings.Join(texts, "\n")
	out.Final = len(out.ToolCalls) == 0
	return out, nil
}

func (c *client) Validate(ctx context.Context, cred providers.Credential) error {
	model := cred.Model
	if model == "" {
		model = DefaultModel
	}
	req := messagesRequest{
		Model:     model,
		MaxTokens: 1,
		Messages: []message{
			{Role: "user", Content: []contentBlock{{Type: "text", Text: "ping"}}},
		},
	}
	var resp messagesResponse
	if err := c.do(ctx, cred.APIKey, &req, &resp); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrProviderFailure, err)
	}
	return nil
}

// translateHistory maps the universal turn shape onto Anthropic's message
// encoding: system turns fold into the top-level system string, tool
// results travel as tool_result blocks inside user messages.
func translateHistory(history []providers.Turn) (string, []message, error) {
	var systemParts []string
	var msgs []message

	for _, turn := range history {
		switch turn.Role {
		case conversation.RoleSystem:
			if turn.Content != "" {
				systemParts = append(systemParts, turn.Content)
			}
		case conversation.RoleUser:
			msgs = append(msgs, message{
				Role:    "user",
				Content: []contentBlock{{Type: "text", Text: turn.Content}},
			})
		case conversation.RoleAssistant:
			var blocks []contentBlock
			if turn.Content != "" {
				blocks = append(blocks, contentBlock{Type: "text", Text: turn.Content})
			}
			for _, call := range turn.ToolCalls {
				blocks = append(blocks, contentBlock{
					Type:  "tool_use",
					ID:    call.ID,
					Name:  call.Name,
					Input: call.Arguments,
				})
			}
			if len(blocks) == 0 {
				continue
			}
			msgs = append(msgs, message{Role: "assistant", Content: blocks})
		case conversation.RoleTool:
			var blocks []contentBlock
			for _, res := range turn.ToolResults {
				raw, err := json.Marshal(res.Result)
				if err != nil {
					return "", nil, fmt.Errorf("encode tool result for %s: %w", res.Name, err)
				}
				blocks = append(blocks, contentBlock{
					Type:      "tool_result",
					ToolUseID: res.CallID,
					Content:   string(raw),
				})
			}
			if len(blocks) == 0 {
				continue
			}
			msgs = append(msgs, message{Role: "user", Content: blocks})
		default:
			return "", nil, fmt.Errorf("unsupported role %q", turn.Role)
		}
	}
	return strings.Join(systemParts, "\n\n"), msgs, nil
}

func (c *client) doOnce(ctx context.Context, apiKey string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("X-API-Key", apiKey)
	req.Header.Set("Anthropic-Version", apiVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &anthropicHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

func (c *client) do(ctx context.Context, apiKey string, body any, out any) error {
	backoff := 1 * time.Second

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		resp, raw, err := c.doOnce(ctx, apiKey, body)
		if err == nil {
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("anthropic decode error: %w; raw=%s", uErr, string(raw))
			}
			return nil
		}

		if !httpx.IsRetryableError(err) {
			return err
		}
		if attempt == c.maxRetries {
			return err
		}

		sleepFor := httpx.RetryAfterDuration(resp, backoff, 10*time.Second)
		sleepFor = httpx.JitterSleep(sleepFor)

		c.log.Warn("Anthropic request retrying",
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)

		time.Sleep(sleepFor)
		backoff *= 2
	}

	return fmt.Errorf("unreachable retry loop")
}
