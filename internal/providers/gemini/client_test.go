package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/brilliance/launcher-gateway/internal/apperr"
	"github.com/brilliance/launcher-gateway/internal/logger"
	"github.com/brilliance/launcher-gateway/internal/providers"
	"github.com/brilliance/launcher-gateway/internal/tools"
)

func TestTranslateHistory(t *testing.T) {
	history := []providers.Turn{
		{Role: "system", Content: "You are the site assistant."},
		{Role: "user", Content: "Clear caches"},
		{Role: "assistant", ToolCalls: []providers.ToolCall{{ID: "clearCaches", Name: "clearCaches", Arguments: map[string]any{"scope": "all"}}}},
		{Role: "tool", ToolResults: []providers.ToolResult{{CallID: "clearCaches", Name: "clearCaches", Result: map[string]any{"success": true}}}},
	}

	req, err := translateHistory(history)
	if err != nil {
		t.Fatalf("translateHistory: %v", err)
	}
	if req.SystemInstruction == nil || req.SystemInstruction.Parts[0].Text != "You are the site assistant." {
		t.Fatalf("system instruction not set: %+v", req.SystemInstruction)
	}
	if len(req.Contents) != 3 {
		t.Fatalf("contents = %d, want 3", len(req.Contents))
	}
	if req.Contents[1].Role != "model" {
		t.Fatalf("assistant content role = %q, want model", req.Contents[1].Role)
	}
	call := req.Contents[1].Parts[0].FunctionCall
	if call == nil || call.Name != "clearCaches" || call.Args["scope"] != "all" {
		t.Fatalf("unexpected function call part: %+v", req.Contents[1].Parts[0])
	}
	if req.Contents[2].Role != "user" {
		t.Fatalf("tool result content role = %q, want user", req.Contents[2].Role)
	}
	resp := req.Contents[2].Parts[0].FunctionResponse
	if resp == nil || resp.Name != "clearCaches" || resp.Response["success"] != true {
		t.Fatalf("unexpected function response part: %+v", req.Contents[2].Parts[0])
	}
}

func TestTranslateHistory_WrapsScalarToolResult(t *testing.T) {
	history := []providers.Turn{
		{Role: "tool", ToolResults: []providers.ToolResult{{CallID: "queueStatus", Name: "queueStatus", Result: "12 pending"}}},
	}
	req, err := translateHistory(history)
	if err != nil {
		t.Fatalf("translateHistory: %v", err)
	}
	resp := req.Contents[0].Parts[0].FunctionResponse
	if resp == nil || resp.Response["result"] != "12 pending" {
		t.Fatalf("scalar result not wrapped: %+v", resp)
	}
}

func TestComplete_FunctionCallResponse(t *testing.T) {
	var gotReq generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, DefaultModel+":generateContent") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "sk-test" {
			t.Errorf("missing api key query param")
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(generateResponse{
			Candidates: []struct {
				Content content `json:"content"`
			}{{
				Content: content{
					Role: "model",
					Parts: []part{
						{Text: "Let me clear those."},
						{FunctionCall: &functionCall{Name: "clearCaches", Args: map[string]any{"scope": "all"}}},
					},
				},
			}},
		})
	}))
	defer srv.Close()
	t.Setenv("GEMINI_BASE_URL", srv.URL)

	c := New(logger.NewNop())
	defs := []tools.Definition{{Name: "clearCaches", Description: "Clear all host caches."}}
	turn, err := c.Complete(context.Background(), []providers.Turn{{Role: "user", Content: "Clear caches"}}, defs, providers.Credential{APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if turn.Final {
		t.Fatalf("turn with tool calls reported final")
	}
	// Gemini carries no call ids, so the name doubles as the id.
	if len(turn.ToolCalls) != 1 || turn.ToolCalls[0].Name != "clearCaches" || turn.ToolCalls[0].ID != "clearCaches" {
		t.Fatalf("unexpected tool calls: %+v", turn.ToolCalls)
	}
	if turn.ToolCalls[0].Arguments["scope"] != "all" {
		t.Fatalf("arguments not decoded: %+v", turn.ToolCalls[0].Arguments)
	}
	if turn.Content != "Let me clear those." {
		t.Fatalf("content = %q", turn.Content)
	}
	if len(gotReq.Tools) != 1 || len(gotReq.Tools[0].FunctionDeclarations) != 1 || gotReq.Tools[0].FunctionDeclarations[0].Name != "clearCaches" {
		t.Fatalf("tool schema not forwarded: %+v", gotReq.Tools)
	}
}

func TestComplete_FinalResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(generateResponse{
			Candidates: []struct {
				Content content `json:"content"`
			}{{
				Content: content{Role: "model", Parts: []part{{Text: "Done."}}},
			}},
		})
	}))
	defer srv.Close()
	t.Setenv("GEMINI_BASE_URL", srv.URL)

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
		_, _ = w.Write([]byte(`{"error":{"status":"UNAUTHENTICATED"}}`))
	}))
	defer srv.Close()
	t.Setenv("GEMINI_BASE_URL", srv.URL)
	t.Setenv("GEMINI_MAX_RETRIES", "0")

	c := New(logger.NewNop())
	_, err := c.Complete(context.Background(), []providers.Turn{{Role: "user", Content: "hi"}}, nil, providers.Credential{APIKey: "bad"})
	if !errors.Is(err, apperr.ErrProviderFailure) {
		t.Fatalf("Complete error = %v, want ErrProviderFailure", err)
	}
	if err := c.Validate(context.Background(), providers.Credential{APIKey: "bad"}); !errors.Is(err, apperr.ErrProviderFailure) {
		t.Fatalf("Validate error = %v, want ErrProviderFailure", err)
	}
}
