package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/brilliance/launcher-gateway/internal/apperr"
	"github.com/brilliance/launcher-gateway/internal/logger"
	"github.com/brilliance/launcher-gateway/internal/providers"
	"github.com/brilliance/launcher-gateway/internal/tools"
)

func TestTranslateHistory(t *testing.T) {
	history := []providers.Turn{
		{Role: "system", Content: "You are the site assistant."},
		{Role: "user", Content: "Clear caches"},
		{Role: "assistant", ToolCalls: []providers.ToolCall{{ID: "tc_1", Name: "clearCaches", Arguments: map[string]any{}}}},
		{Role: "tool", ToolResults: []providers.ToolResult{{CallID: "tc_1", Name: "clearCaches", Result: map[string]any{"success": true}}}},
	}

	msgs, err := translateHistory(history)
	if err != nil {
		t.Fatalf("translateHistory: %v", err)
	}
	if len(msgs) != 4 {
		t.Fatalf("messages = %d, want 4", len(msgs))
	}
	if msgs[0].Role != goopenai.ChatMessageRoleSystem || msgs[0].Content != "You are the site assistant." {
		t.Fatalf("unexpected system message: %+v", msgs[0])
	}
	if len(msgs[2].ToolCalls) != 1 || msgs[2].ToolCalls[0].ID != "tc_1" || msgs[2].ToolCalls[0].Function.Name != "clearCaches" {
		t.Fatalf("unexpected assistant tool calls: %+v", msgs[2].ToolCalls)
	}
	if msgs[2].ToolCalls[0].Function.Arguments != "{}" {
		t.Fatalf("arguments not encoded: %q", msgs[2].ToolCalls[0].Function.Arguments)
	}
	if msgs[3].Role != goopenai.ChatMessageRoleTool || msgs[3].ToolCallID != "tc_1" {
		t.Fatalf("unexpected tool message: %+v", msgs[3])
	}
	var result map[string]any
	if err := json.Unmarshal([]byte(msgs[3].Content), &result); err != nil {
		t.Fatalf("tool result not JSON: %v", err)
	}
	if result["success"] != true {
		t.Fatalf("unexpected tool result payload: %+v", result)
	}
}

func TestComplete_ToolCallResponse(t *testing.T) {
	var gotReq goopenai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("missing bearer token")
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(goopenai.ChatCompletionResponse{
			Choices: []goopenai.ChatCompletionChoice{{
				Message: goopenai.ChatCompletionMessage{
					Role:    goopenai.ChatMessageRoleAssistant,
					Content: "Let me clear those.",
					ToolCalls: []goopenai.ToolCall{{
						ID:   "tc_9",
						Type: goopenai.ToolTypeFunction,
						Function: goopenai.FunctionCall{
							Name:      "clearCaches",
							Arguments: `{"scope":"all"}`,
						},
					}},
				},
			}},
		})
	}))
	defer srv.Close()
	t.Setenv("OPENAI_BASE_URL", srv.URL)

	c := New(logger.NewNop())
	defs := []tools.Definition{{Name: "clearCaches", Description: "Clear all host caches."}}
	turn, err := c.Complete(context.Background(), []providers.Turn{{Role: "user", Content: "Clear caches"}}, defs, providers.Credential{APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if turn.Final {
		t.Fatalf("turn with tool calls reported final")
	}
	if len(turn.ToolCalls) != 1 || turn.ToolCalls[0].Name != "clearCaches" || turn.ToolCalls[0].ID != "tc_9" {
		t.Fatalf("unexpected tool calls: %+v", turn.ToolCalls)
	}
	if turn.ToolCalls[0].Arguments["scope"] != "all" {
		t.Fatalf("arguments not decoded: %+v", turn.ToolCalls[0].Arguments)
	}
	if gotReq.Model != DefaultModel {
		t.Fatalf("request model = %q, want default", gotReq.Model)
	}
	if len(gotReq.Tools) != 1 || gotReq.Tools[0].Function.Name != "clearCaches" {
		t.Fatalf("tool schema not forwarded: %+v", gotReq.Tools)
	}
}

func TestComplete_FinalResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(goopenai.ChatCompletionResponse{
			Choices: []goopenai.ChatCompletionChoice{{
				Message: goopenai.ChatCompletionMessage{
					Role:    goopenai.ChatMessageRoleAssistant,
					Content: "Done.",
				},
			}},
		})
	}))
	defer srv.Close()
	t.Setenv("OPENAI_BASE_URL", srv.URL)

	c := New(logger.NewNop())
	turn, err := c.Complete(context.Background(), []providers.Turn{{Role: "user", Content: "hi"}}, nil, providers.Credential{APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !turn.Final || turn.Content != "Done." {
		t.Fatalf("unexpected turn: %+v", turn)
	}
}

func TestComplete_UpstreamErrorIsProviderFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()
	t.Setenv("OPENAI_BASE_URL", srv.URL)

	c := New(logger.NewNop())
	_, err := c.Complete(context.Background(), []providers.Turn{{Role: "user", Content: "hi"}}, nil, providers.Credential{APIKey: "bad"})
	if !errors.Is(err, apperr.ErrProviderFailure) {
		t.Fatalf("Complete error = %v, want ErrProviderFailure", err)
	}
	if err := c.Validate(context.Background(), providers.Credential{APIKey: "bad"}); !errors.Is(err, apperr.ErrProviderFailure) {
		t.Fatalf("Validate error = %v, want ErrProviderFailure", err)
	}
}
