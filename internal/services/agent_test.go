package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/brilliance/launcher-gateway/internal/apperr"
	"github.com/brilliance/launcher-gateway/internal/domain/conversation"
	"github.com/brilliance/launcher-gateway/internal/domain/settings"
	"github.com/brilliance/launcher-gateway/internal/logger"
	"github.com/brilliance/launcher-gateway/internal/pkg/dbctx"
	"github.com/brilliance/launcher-gateway/internal/providers"
	"github.com/brilliance/launcher-gateway/internal/sanitize"
	"github.com/brilliance/launcher-gateway/internal/store"
	"github.com/brilliance/launcher-gateway/internal/tools"
)

// scriptedAdapter replays a fixed sequence of turns and records every
// history it was handed.
type scriptedAdapter struct {
	name        string
	turns       []*providers.AssistantTurn
	err         error
	validateErr error
	calls       int
	histories   [][]providers.Turn
}

func (a *scriptedAdapter) Name() string { return a.name }

func (a *scriptedAdapter) Complete(ctx context.Context, history []providers.Turn, defs []tools.Definition, cred providers.Credential) (*providers.AssistantTurn, error) {
	a.calls++
	a.histories = append(a.histories, history)
	if a.err != nil {
		return nil, a.err
	}
	idx := a.calls - 1
	if idx >= len(a.turns) {
		idx = len(a.turns) - 1
	}
	return a.turns[idx], nil
}

func (a *scriptedAdapter) Validate(ctx context.Context, cred providers.Credential) error {
	return a.validateErr
}

type fakeVault struct {
	keys       map[string]string
	models     map[string]string
	resolveErr error
}

func (v *fakeVault) Resolve(ctx context.Context, provider string) (string, error) {
	if v.resolveErr != nil {
		return "", v.resolveErr
	}
	key, ok := v.keys[provider]
	if !ok {
		return "", fmt.Errorf("%w: %s", apperr.ErrNotConfigured, provider)
	}
	return key, nil
}

func (v *fakeVault) Store(ctx context.Context, provider, raw string) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	if v.keys == nil {
		v.keys = map[string]string{}
	}
	v.keys[provider] = raw
	return nil
}

func (v *fakeVault) Mask(ctx context.Context, provider string) (string, error) {
	key, ok := v.keys[provider]
	if !ok {
		return "", nil
	}
	if len(key) <= 4 {
		return strings.Repeat("*", len(key)), nil
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:], nil
}

func (v *fakeVault) Model(ctx context.Context, provider string) (string, error) {
	return v.models[provider], nil
}

func (v *fakeVault) SetModel(ctx context.Context, provider, model string) error {
	if v.models == nil {
		v.models = map[string]string{}
	}
	v.models[provider] = model
	return nil
}

type fakeSettingsRepo struct {
	row *settings.Settings
	err error
}

func (r *fakeSettingsRepo) Get(dbc dbctx.Context) (*settings.Settings, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.row == nil {
		r.row = &settings.Settings{
			DefaultProvider: settings.DefaultProvider,
			MaxHistory:      settings.DefaultMaxHistory,
			MaxToolRounds:   settings.DefaultMaxToolRounds,
		}
	}
	return r.row, nil
}

func (r *fakeSettingsRepo) Save(dbc dbctx.Context, row *settings.Settings) error {
	if r.err != nil {
		return r.err
	}
	r.row = row
	return nil
}

func testRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	defs := []tools.Definition{
		{Name: "clearCaches", Description: "Clear all caches."},
		{Name: "failing", Description: "Always fails."},
	}
	handlers := map[string]tools.Handler{
		"clearCaches": func(ctx context.Context, args map[string]any) (any, error) {
			return map[string]any{
				"success": true,
				"message": "All caches have been cleared successfully.",
			}, nil
		},
		"failing": func(ctx context.Context, args map[string]any) (any, error) {
			return nil, errors.New("backend unavailable")
		},
	}
	return tools.NewRegistry(logger.NewNop(), defs, handlers)
}

func newTestAgent(t *testing.T, adapter providers.Adapter, v *fakeVault, cfg *fakeSettingsRepo) (AgentService, store.ConversationStore) {
	t.Helper()
	convStore := store.NewMemoryStore()
	svc := NewAgentService(
		logger.NewNop(),
		convStore,
		v,
		providers.NewSet(adapter),
		testRegistry(t),
		cfg,
		sanitize.NewPolicy(),
	)
	return svc, convStore
}

func configuredVault() *fakeVault {
	return &fakeVault{keys: map[string]string{"claude": "sk-test-1234"}}
}

func TestSendTurn_FinalAnswer(t *testing.T) {
	adapter := &scriptedAdapter{
		name: "claude",
		turns: []*providers.AssistantTurn{
			{Final: true, Content: "<p>Hello!</p><script>alert(1)</script>"},
		},
	}
	svc, convStore := newTestAgent(t, adapter, configuredVault(), &fakeSettingsRepo{})
	owner := uuid.New()
	ctx := context.Background()

	th, err := svc.StartThread(ctx, owner, "claude")
	if err != nil {
		t.Fatalf("StartThread: %v", err)
	}
	res, err := svc.SendTurn(ctx, th.Token, owner, "Hi there")
	if err != nil {
		t.Fatalf("SendTurn: %v", err)
	}
	if res.PartialProgress {
		t.Fatalf("expected complete turn, got partial")
	}
	if res.Message == nil || res.Message.Role != conversation.RoleAssistant {
		t.Fatalf("unexpected result message: %+v", res.Message)
	}
	if strings.Contains(res.DisplayContent, "script") {
		t.Fatalf("display content not sanitized: %q", res.DisplayContent)
	}
	if !strings.Contains(res.DisplayContent, "<p>Hello!</p>") {
		t.Fatalf("safe markup stripped: %q", res.DisplayContent)
	}

	msgs, err := convStore.History(ctx, th.Token, owner, 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != conversation.RoleUser || msgs[1].Role != conversation.RoleAssistant {
		t.Fatalf("unexpected roles: %s, %s", msgs[0].Role, msgs[1].Role)
	}
	// Raw provider output is persisted; sanitizing is a display concern.
	if !strings.Contains(msgs[1].Content, "<script>") {
		t.Fatalf("persisted content should be raw, got %q", msgs[1].Content)
	}

	if adapter.calls != 1 {
		t.Fatalf("expected 1 provider call, got %d", adapter.calls)
	}
	hist := adapter.histories[0]
	if hist[0].Role != conversation.RoleSystem || hist[0].Content == "" {
		t.Fatalf("expected leading system prompt, got %+v", hist[0])
	}
	last := hist[len(hist)-1]
	if last.Role != conversation.RoleUser || last.Content != "Hi there" {
		t.Fatalf("expected trailing user turn, got %+v", last)
	}
}

func TestSendTurn_ToolRoundTrip(t *testing.T) {
	adapter := &scriptedAdapter{
		name: "claude",
		turns: []*providers.AssistantTurn{
			{ToolCalls: []providers.ToolCall{{ID: "call_1", Name: "clearCaches", Arguments: map[string]any{}}}},
			{Final: true, Content: "Done, caches cleared."},
		},
	}
	svc, convStore := newTestAgent(t, adapter, configuredVault(), &fakeSettingsRepo{})
	owner := uuid.New()
	ctx := context.Background()

	th, err := svc.StartThread(ctx, owner, "claude")
	if err != nil {
		t.Fatalf("StartThread: %v", err)
	}
	before, _ := convStore.GetThread(ctx, th.Token, owner)

	res, err := svc.SendTurn(ctx, th.Token, owner, "Please clear the caches")
	if err != nil {
		t.Fatalf("SendTurn: %v", err)
	}
	if res.Message == nil || res.Message.Content != "Done, caches cleared." {
		t.Fatalf("unexpected final message: %+v", res.Message)
	}

	after, err := convStore.GetThread(ctx, th.Token, owner)
	if err != nil {
		t.Fatalf("GetThread: %v", err)
	}
	if after.MessageCount != before.MessageCount+4 {
		t.Fatalf("expected 4 new messages, count went %d -> %d", before.MessageCount, after.MessageCount)
	}

	msgs, _ := convStore.History(ctx, th.Token, owner, 0)
	wantRoles := []string{
		conversation.RoleUser,
		conversation.RoleAssistant,
		conversation.RoleTool,
		conversation.RoleAssistant,
	}
	if len(msgs) != len(wantRoles) {
		t.Fatalf("expected %d messages, got %d", len(wantRoles), len(msgs))
	}
	for i, want := range wantRoles {
		if msgs[i].Role != want {
			t.Fatalf("message %d: want role %s, got %s", i, want, msgs[i].Role)
		}
	}

	results, err := msgs[2].DecodedToolResults()
	if err != nil {
		t.Fatalf("DecodedToolResults: %v", err)
	}
	if len(results) != 1 || results[0].CallID != "call_1" || results[0].Name != "clearCaches" {
		t.Fatalf("unexpected tool results: %+v", results)
	}
	payload, ok := results[0].Result.(map[string]any)
	if !ok {
		t.Fatalf("tool result is %T, want map", results[0].Result)
	}
	if payload["success"] != true || payload["message"] != "All caches have been cleared successfully." {
		t.Fatalf("unexpected tool payload: %+v", payload)
	}

	// The second provider call must see the tool result in its history.
	if adapter.calls != 2 {
		t.Fatalf("expected 2 provider calls, got %d", adapter.calls)
	}
	second := adapter.histories[1]
	sawResult := false
	for _, turn := range second {
		if turn.Role == conversation.RoleTool && len(turn.ToolResults) == 1 && turn.ToolResults[0].CallID == "call_1" {
			sawResult = true
		}
	}
	if !sawResult {
		t.Fatalf("tool result missing from second history: %+v", second)
	}
}

// cancellingAdapter cancels the turn's context from inside Complete, the
// way a client disconnect lands mid-request.
type cancellingAdapter struct {
	scriptedAdapter
	cancel context.CancelFunc
}

func (a *cancellingAdapter) Complete(ctx context.Context, history []providers.Turn, defs []tools.Definition, cred providers.Credential) (*providers.AssistantTurn, error) {
	a.cancel()
	return a.scriptedAdapter.Complete(ctx, history, defs, cred)
}

func TestSendTurn_CancelledBeforeToolExecution(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	adapter := &cancellingAdapter{
		scriptedAdapter: scriptedAdapter{
			name: "claude",
			turns: []*providers.AssistantTurn{
				{ToolCalls: []providers.ToolCall{{ID: "call_1", Name: "clearCaches", Arguments: map[string]any{}}}},
			},
		},
		cancel: cancel,
	}
	svc, convStore := newTestAgent(t, adapter, configuredVault(), &fakeSettingsRepo{})
	owner := uuid.New()

	th, err := svc.StartThread(context.Background(), owner, "claude")
	if err != nil {
		t.Fatalf("StartThread: %v", err)
	}

	res, err := svc.SendTurn(ctx, th.Token, owner, "clear the caches")
	if !errors.Is(err, apperr.ErrProviderFailure) {
		t.Fatalf("want ErrProviderFailure, got %v", err)
	}
	if res == nil || !res.PartialProgress {
		t.Fatalf("expected partial result, got %+v", res)
	}
	// The requested tool call never runs once the context is gone.
	if adapter.calls != 1 {
		t.Fatalf("expected exactly 1 provider call, got %d", adapter.calls)
	}

	msgs, err := convStore.History(context.Background(), th.Token, owner, 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected user and assistant messages persisted, got %d", len(msgs))
	}
	if msgs[0].Role != conversation.RoleUser || msgs[1].Role != conversation.RoleAssistant {
		t.Fatalf("unexpected roles: %s, %s", msgs[0].Role, msgs[1].Role)
	}
	calls, err := msgs[1].DecodedToolCalls()
	if err != nil {
		t.Fatalf("DecodedToolCalls: %v", err)
	}
	if len(calls) != 1 || calls[0].Name != "clearCaches" {
		t.Fatalf("assistant message lost its tool calls: %+v", calls)
	}
}

func TestSendTurn_CredentialMissingShortCircuits(t *testing.T) {
	adapter := &scriptedAdapter{name: "claude", turns: []*providers.AssistantTurn{{Final: true, Content: "nope"}}}
	svc, convStore := newTestAgent(t, adapter, &fakeVault{}, &fakeSettingsRepo{})
	owner := uuid.New()
	ctx := context.Background()

	th, err := svc.StartThread(ctx, owner, "claude")
	if err != nil {
		t.Fatalf("StartThread: %v", err)
	}
	res, err := svc.SendTurn(ctx, th.Token, owner, "Hello?")
	if !errors.Is(err, apperr.ErrNotConfigured) {
		t.Fatalf("want ErrNotConfigured, got %v", err)
	}
	if res == nil || !res.PartialProgress {
		t.Fatalf("expected partial result, got %+v", res)
	}
	if adapter.calls != 0 {
		t.Fatalf("provider must not be called without a credential, got %d calls", adapter.calls)
	}
	msgs, _ := convStore.History(ctx, th.Token, owner, 0)
	if len(msgs) != 1 || msgs[0].Role != conversation.RoleUser {
		t.Fatalf("expected only the user message persisted, got %+v", msgs)
	}
}

func TestSendTurn_LoopBoundExceeded(t *testing.T) {
	adapter := &scriptedAdapter{
		name: "claude",
		turns: []*providers.AssistantTurn{
			{ToolCalls: []providers.ToolCall{{ID: "call_x", Name: "clearCaches", Arguments: map[string]any{}}}},
		},
	}
	cfg := &fakeSettingsRepo{row: &settings.Settings{
		DefaultProvider: "claude",
		MaxHistory:      settings.DefaultMaxHistory,
		MaxToolRounds:   2,
	}}
	svc, convStore := newTestAgent(t, adapter, configuredVault(), cfg)
	owner := uuid.New()
	ctx := context.Background()

	th, err := svc.StartThread(ctx, owner, "claude")
	if err != nil {
		t.Fatalf("StartThread: %v", err)
	}
	res, err := svc.SendTurn(ctx, th.Token, owner, "loop forever")
	if !errors.Is(err, apperr.ErrLoopBoundExceeded) {
		t.Fatalf("want ErrLoopBoundExceeded, got %v", err)
	}
	if res == nil || !res.PartialProgress {
		t.Fatalf("expected partial result, got %+v", res)
	}
	if adapter.calls != 2 {
		t.Fatalf("expected exactly 2 provider calls, got %d", adapter.calls)
	}

	msgs, _ := convStore.History(ctx, th.Token, owner, 0)
	last := msgs[len(msgs)-1]
	if last.Role != conversation.RoleSystem || !strings.Contains(last.Content, "2 tool rounds") {
		t.Fatalf("expected diagnostic system message, got %+v", last)
	}
	// user + 2x(assistant, tool) + diagnostic
	if len(msgs) != 6 {
		t.Fatalf("expected 6 messages, got %d", len(msgs))
	}
}

func TestSendTurn_DiagnosticsExcludedFromProviderHistory(t *testing.T) {
	adapter := &scriptedAdapter{
		name: "claude",
		turns: []*providers.AssistantTurn{
			{ToolCalls: []providers.ToolCall{{ID: "c1", Name: "clearCaches", Arguments: map[string]any{}}}},
		},
	}
	cfg := &fakeSettingsRepo{row: &settings.Settings{
		DefaultProvider: "claude",
		MaxHistory:      settings.DefaultMaxHistory,
		MaxToolRounds:   1,
	}}
	svc, _ := newTestAgent(t, adapter, configuredVault(), cfg)
	owner := uuid.New()
	ctx := context.Background()

	th, _ := svc.StartThread(ctx, owner, "claude")
	if _, err := svc.SendTurn(ctx, th.Token, owner, "first"); !errors.Is(err, apperr.ErrLoopBoundExceeded) {
		t.Fatalf("setup turn: want ErrLoopBoundExceeded, got %v", err)
	}

	adapter.turns = []*providers.AssistantTurn{{Final: true, Content: "ok"}}
	if _, err := svc.SendTurn(ctx, th.Token, owner, "second"); err != nil {
		t.Fatalf("SendTurn: %v", err)
	}
	latest := adapter.histories[len(adapter.histories)-1]
	for i, turn := range latest {
		if i == 0 {
			continue // the composed system prompt leads every history
		}
		if turn.Role == conversation.RoleSystem {
			t.Fatalf("diagnostic leaked into provider history: %+v", turn)
		}
	}
}

func TestSendTurn_UnknownToolFedBack(t *testing.T) {
	adapter := &scriptedAdapter{
		name: "claude",
		turns: []*providers.AssistantTurn{
			{ToolCalls: []providers.ToolCall{{ID: "c1", Name: "launchRockets", Arguments: map[string]any{}}}},
			{Final: true, Content: "That tool does not exist."},
		},
	}
	svc, convStore := newTestAgent(t, adapter, configuredVault(), &fakeSettingsRepo{})
	owner := uuid.New()
	ctx := context.Background()

	th, _ := svc.StartThread(ctx, owner, "claude")
	if _, err := svc.SendTurn(ctx, th.Token, owner, "do something impossible"); err != nil {
		t.Fatalf("SendTurn: %v", err)
	}

	msgs, _ := convStore.History(ctx, th.Token, owner, 0)
	results, err := msgs[2].DecodedToolResults()
	if err != nil {
		t.Fatalf("DecodedToolResults: %v", err)
	}
	payload, ok := results[0].Result.(map[string]any)
	if !ok {
		t.Fatalf("tool result is %T, want map", results[0].Result)
	}
	if payload["error"] != "Unknown tool: launchRockets" {
		t.Fatalf("unexpected error payload: %+v", payload)
	}
}

func TestSendTurn_ProviderFailureKeepsUserMessage(t *testing.T) {
	adapter := &scriptedAdapter{
		name: "claude",
		err:  fmt.Errorf("%w: upstream 500", apperr.ErrProviderFailure),
	}
	svc, convStore := newTestAgent(t, adapter, configuredVault(), &fakeSettingsRepo{})
	owner := uuid.New()
	ctx := context.Background()

	th, _ := svc.StartThread(ctx, owner, "claude")
	res, err := svc.SendTurn(ctx, th.Token, owner, "hello")
	if !errors.Is(err, apperr.ErrProviderFailure) {
		t.Fatalf("want ErrProviderFailure, got %v", err)
	}
	if res == nil || !res.PartialProgress {
		t.Fatalf("expected partial result, got %+v", res)
	}
	msgs, _ := convStore.History(ctx, th.Token, owner, 0)
	if len(msgs) != 1 || msgs[0].Role != conversation.RoleUser {
		t.Fatalf("expected only the user message, got %+v", msgs)
	}
}

func TestSendTurn_Validation(t *testing.T) {
	adapter := &scriptedAdapter{name: "claude", turns: []*providers.AssistantTurn{{Final: true}}}
	svc, _ := newTestAgent(t, adapter, configuredVault(), &fakeSettingsRepo{})
	owner := uuid.New()
	ctx := context.Background()

	if _, err := svc.SendTurn(ctx, "some-token", owner, "   "); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("blank text: want ErrValidation, got %v", err)
	}
	if _, err := svc.SendTurn(ctx, "", owner, "hi"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("blank token: want ErrValidation, got %v", err)
	}
	if _, err := svc.SendTurn(ctx, "no-such-thread", owner, "hi"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("unknown thread: want ErrNotFound, got %v", err)
	}
}

func TestStartThread_DefaultsAndUnknownProvider(t *testing.T) {
	adapter := &scriptedAdapter{name: "claude", turns: []*providers.AssistantTurn{{Final: true}}}
	svc, _ := newTestAgent(t, adapter, configuredVault(), &fakeSettingsRepo{})
	owner := uuid.New()
	ctx := context.Background()

	th, err := svc.StartThread(ctx, owner, "")
	if err != nil {
		t.Fatalf("StartThread: %v", err)
	}
	if th.Provider != "claude" {
		t.Fatalf("expected default provider claude, got %s", th.Provider)
	}
	if th.Token == "" {
		t.Fatalf("thread token not assigned")
	}

	if _, err := svc.StartThread(ctx, owner, "grok"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("unknown provider: want ErrNotFound, got %v", err)
	}
}
