package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
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

// DefaultModel is used when the stored credential has no model pinned.
const DefaultModel = "gemini-2.0-flash"

type client struct {
	log        *logger.Logger
	baseURL    string
	httpClient *http.Client
	maxRetries int
}

func New(log *logger.Logger) providers.Adapter {
	baseURL := strings.TrimSpace(os.Getenv("GEMINI_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	timeoutSec := 120
	if v := os.Getenv("GEMINI_TIMEOUT_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}
	maxRetries := 3
	if v := os.Getenv("GEMINI_MAX_RETRIES"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed >= 0 {
			maxRetries = parsed
		}
	}

	return &client{
		log:        log.With("service", "GeminiClient"),
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		maxRetries: maxRetries,
	}
}

func (c *client) Name() string { return providers.Gemini }

type geminiHTTPError struct {
	StatusCode int
	Body       string
}

func (e *geminiHTTPError) Error() string {
	return fmt.Sprintf("gemini http %d: %s", e.StatusCode, e.Body)
}

func (e *geminiHTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

type part struct {
	Text             string            `json:"text,omitempty"`
	FunctionCall     *functionCall     `json:"functionCall,omitempty"`
	FunctionResponse *functionResponse `json:"functionResponse,omitempty"`
}

type functionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

type functionResponse struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type functionDeclaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type toolSpec struct {
	FunctionDeclarations []functionDeclaration `json:"functionDeclarations"`
}

type generateRequest struct {
	SystemInstruction *content   `json:"systemInstruction,omitempty"`
	Contents          []content  `json:"contents"`
	Tools             []toolSpec `json:"tools,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (c *client) Complete(ctx context.Context, history []providers.Turn, defs []tools.Definition, cred providers.Credential) (*providers.AssistantTurn, error) {
	model := cred.Model
	if model == "" {
		model = DefaultModel
	}

	req, err := translateHistory(history)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrProviderFailure, err)
	}
	if len(defs) > 0 {
		spec := toolSpec{}
		for _, d := range defs {
			spec.FunctionDeclarations = append(spec.FunctionDeclarations, functionDeclaration{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  providers.SchemaFor(d),
			})
		}
		req.Tools = []toolSpec{spec}
	}

	var resp generateResponse
	if err := c.do(ctx, model, cred.APIKey, req, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrProviderFailure, err)
	}
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: gemini returned no candidates", apperr.ErrProviderFailure)
	}

	out := &providers.AssistantTurn{}
	var texts []string
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.FunctionCall != nil {
			out.ToolCalls = append(out.ToolCalls, providers.ToolCall{
				// Gemini carries no call ids; the function name stands in.
				ID:        p.FunctionCall.Name,
				Name:      p.FunctionCall.Name,
				Arguments: p.FunctionCall.Args,
			})
			continue
		}
		if p.Text != "" {
			texts = append(texts, p.Text)
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
	req := &generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: "ping"}}}},
	}
	var resp generateResponse
	if err := c.do(ctx, model, cred.APIKey, req, &resp); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrProviderFailure, err)
	}
	return nil
}

// translateHistory maps the universal turn shape onto Gemini's content
// encoding: assistant turns use role "model", tool results travel as
// functionResponse parts inside user-role contents.
func translateHistory(history []providers.Turn) (*generateRequest, error) {
	req := &generateRequest{}
	var systemParts []string

	for _, turn := range history {
		switch turn.Role {
		case conversation.RoleSystem:
			if turn.Content != "" {
				systemParts = append(systemParts, turn.Content)
			}
		case conversation.RoleUser:
			req.Contents = append(req.Contents, content{
				Role:  "user",
				Parts: []part{{Text: turn.Content}},
			})
		case conversation.RoleAssistant:
			var parts []part
			if turn.Content != "" {
				parts = append(parts, part{Text: turn.Content})
			}
			for _, call := range turn.ToolCalls {
				parts = append(parts, part{FunctionCall: &functionCall{Name: call.Name, Args: call.Arguments}})
			}
			if len(parts) == 0 {
				continue
			}
			req.Contents = append(req.Contents, content{Role: "model", Parts: parts})
		case conversation.RoleTool:
			var parts []part
			for _, res := range turn.ToolResults {
				response, ok := res.Result.(map[string]any)
				if !ok {
					response = map[string]any{"result": res.Result}
				}
				parts = append(parts, part{FunctionResponse: &functionResponse{Name: res.Name, Response: response}})
			}
			if len(parts) == 0 {
				continue
			}
			req.Contents = append(req.Contents, content{Role: "user", Parts: parts})
		default:
			return nil, fmt.Errorf("unsupported role %q", turn.Role)
		}
	}
	if len(systemParts) > 0 {
		req.SystemInstruction = &content{Parts: []part{{Text: strings.Join(systemParts, "\n\n")}}}
	}
	return req, nil
}

func (c *client) doOnce(ctx context.Context, model, apiKey string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, nil, err
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, url.PathEscape(model), url.QueryEscape(apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, nil, err
	}
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
		return resp, raw, &geminiHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

func (c *client) do(ctx context.Context, model, apiKey string, body any, out any) error {
	backoff := 1 * time.Second

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		resp, raw, err := c.doOnce(ctx, model, apiKey, body)
		if err == nil {
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("gemini decode error: %w; raw=%s", uErr, string(raw))
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

		c.log.Warn("Gemini request retrying",
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
