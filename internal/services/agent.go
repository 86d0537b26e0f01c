package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/brilliance/launcher-gateway/internal/apperr"
	"github.com/brilliance/launcher-gateway/internal/domain/conversation"
	"github.com/brilliance/launcher-gateway/internal/domain/settings"
	"github.com/brilliance/launcher-gateway/internal/logger"
	"github.com/brilliance/launcher-gateway/internal/pkg/dbctx"
	"github.com/brilliance/launcher-gateway/internal/providers"
	settingsrepo "github.com/brilliance/launcher-gateway/internal/repos/settings"
	"github.com/brilliance/launcher-gateway/internal/sanitize"
	"github.com/brilliance/launcher-gateway/internal/store"
	"github.com/brilliance/launcher-gateway/internal/tools"
	"github.com/brilliance/launcher-gateway/internal/vault"
)

// ToolExecutor is the slice of the tool registry the agent loop needs.
type ToolExecutor interface {
	Definitions() []tools.Definition
	Execute(ctx context.Context, name string, args map[string]any) any
}

// TurnResult is the outcome of one conversational turn. On error, a
// non-nil result with PartialProgress set means messages were persisted
// before the failure and remain retrievable via History.
type TurnResult struct {
	Message         *conversation.Message
	DisplayContent  string
	PartialProgress bool
}

type AgentService interface {
	StartThread(ctx context.Context, ownerID uuid.UUID, provider string) (*conversation.Thread, error)
	SendTurn(ctx context.Context, token string, ownerID uuid.UUID, text string) (*TurnResult, error)
	ListThreads(ctx context.Context, ownerID uuid.UUID) ([]*conversation.Thread, error)
	History(ctx context.Context, token string, ownerID uuid.UUID) ([]*conversation.Message, error)
	DeleteThread(ctx context.Context, token string, ownerID uuid.UUID) error
}

type agentService struct {
	log       *logger.Logger
	store     store.ConversationStore
	vault     vault.Vault
	resolver  providers.Resolver
	registry  ToolExecutor
	settings  settingsrepo.Repo
	sanitizer *sanitize.Policy
}

func NewAgentService(
	log *logger.Logger,
	convStore store.ConversationStore,
	credVault vault.Vault,
	resolver providers.Resolver,
	registry ToolExecutor,
	settingsRepo settingsrepo.Repo,
	sanitizer *sanitize.Policy,
) AgentService {
	return &agentService{
		log:       log.With("service", "AgentService"),
		store:     convStore,
		vault:     credVault,
		resolver:  resolver,
		registry:  registry,
		settings:  settingsRepo,
		sanitizer: sanitizer,
	}
}

func (s *agentService) StartThread(ctx context.Context, ownerID uuid.UUID, provider string) (*conversation.Thread, error) {
	cfg, err := s.settings.Get(dbctx.Context{Ctx: ctx})
	if err != nil {
		return nil, fmt.Errorf("%w: load settings: %v", apperr.ErrPersistence, err)
	}
	provider = strings.TrimSpace(provider)
	if provider == "" {
		provider = cfg.DefaultProvider
	}
	if _, err := s.resolver.ForName(provider); err != nil {
		return nil, err
	}
	return s.store.CreateThread(ctx, ownerID, provider)
}

func (s *agentService) ListThreads(ctx context.Context, ownerID uuid.UUID) ([]*conversation.Thread, error) {
	return s.store.ListThreads(ctx, ownerID)
}

func (s *agentService) History(ctx context.Context, token string, ownerID uuid.UUID) ([]*conversation.Message, error) {
	return s.store.History(ctx, token, ownerID, 0)
}

func (s *agentService) DeleteThread(ctx context.Context, token string, ownerID uuid.UUID) error {
	return s.store.DeleteThread(ctx, token, ownerID)
}

// SendTurn runs one full turn of the agent loop: persist the user message,
// call the provider, execute any requested tools, feed the results back,
// and repeat until the provider produces a final answer or the round cap
// is hit. Every message is persisted as soon as it exists; a failure
// mid-loop never rolls back prior progress.
func (s *agentService) SendTurn(ctx context.Context, token string, ownerID uuid.UUID, text string) (*TurnResult, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: missing thread token", apperr.ErrValidation)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: missing message text", apperr.ErrValidation)
	}

	thread, err := s.store.GetThread(ctx, token, ownerID)
	if err != nil {
		return nil, err
	}
	adapter, err := s.resolver.ForName(thread.Provider)
	if err != nil {
		return nil, err
	}
	cfg, err := s.settings.Get(dbctx.Context{Ctx: ctx})
	if err != nil {
		return nil, fmt.Errorf("%w: load settings: %v", apperr.ErrPersistence, err)
	}
	maxRounds := cfg.MaxToolRounds
	if maxRounds <= 0 {
		maxRounds = settings.DefaultMaxToolRounds
	}
	maxHistory := cfg.MaxHistory
	if maxHistory <= 0 {
		maxHistory = settings.DefaultMaxHistory
	}

	if _, err := s.store.AppendMessage(ctx, token, ownerID, store.NewMessage{
		Role:    conversation.RoleUser,
		Content: text,
	}); err != nil {
		return nil, err
	}
	partial := &TurnResult{PartialProgress: true}

	apiKey, err := s.vault.Resolve(ctx, thread.Provider)
	if err != nil {
		// Short-circuit before any network call.
		return partial, err
	}
	model, err := s.vault.Model(ctx, thread.Provider)
	if err != nil {
		return partial, err
	}
	cred := providers.Credential{APIKey: apiKey, Model: model}
	defs := s.registry.Definitions()

	for round := 0; round < maxRounds; round++ {
		if err := ctx.Err(); err != nil {
			return partial, fmt.Errorf("%w: turn cancelled: %v", apperr.ErrProviderFailure, err)
		}

		history, err := s.buildHistory(ctx, token, ownerID, maxHistory, cfg)
		if err != nil {
			return partial, err
		}

		turn, err := adapter.Complete(ctx, history, defs, cred)
		if err != nil {
			return partial, err
		}

		if len(turn.ToolCalls) == 0 {
			msg, err := s.store.AppendMessage(ctx, token, ownerID, store.NewMessage{
				Role:    conversation.RoleAssistant,
				Content: turn.Content,
			})
			if err != nil {
				return partial, err
			}
			return &TurnResult{
				Message:         msg,
				DisplayContent:  s.sanitizer.Clean(turn.Content),
				PartialProgress: false,
			}, nil
		}

		calls := make([]conversation.ToolCall, 0, len(turn.ToolCalls))
		for _, call := range turn.ToolCalls {
			calls = append(calls, conversation.ToolCall{
				ID:        call.ID,
				Name:      call.Name,
				Arguments: call.Arguments,
			})
		}
		if _, err := s.store.AppendMessage(ctx, token, ownerID, store.NewMessage{
			Role:      conversation.RoleAssistant,
			Content:   turn.Content,
			ToolCalls: calls,
		}); err != nil {
			return partial, err
		}

		// Tool calls execute sequentially, in the order the provider
		// listed them. Each result is persisted before the next call runs.
		for _, call := range turn.ToolCalls {
			if err := ctx.Err(); err != nil {
				return partial, fmt.Errorf("%w: turn cancelled: %v", apperr.ErrProviderFailure, err)
			}
			result := s.registry.Execute(ctx, call.Name, call.Arguments)
			if _, err := s.store.AppendMessage(ctx, token, ownerID, store.NewMessage{
				Role: conversation.RoleTool,
				ToolResults: []conversation.ToolResult{{
					CallID: call.ID,
					Name:   call.Name,
					Result: result,
				}},
			}); err != nil {
				return partial, err
			}
		}
	}

	// Round cap hit: record a diagnostic the user can see in history
	// rather than dropping the turn silently.
	diagnostic := fmt.Sprintf("The assistant stopped after %d tool rounds without a final answer.", maxRounds)
	if _, err := s.store.AppendMessage(ctx, token, ownerID, store.NewMessage{
		Role:    conversation.RoleSystem,
		Content: diagnostic,
	}); err != nil {
		s.log.Error("Failed to persist loop bound diagnostic", "thread", token, "error", err)
	}
	return partial, fmt.Errorf("%w: %d rounds", apperr.ErrLoopBoundExceeded, maxRounds)
}

// buildHistory converts the newest persisted messages into the universal
// provider shape, prefixed with the system prompt. Diagnostic system
// messages from earlier failed turns stay out of the provider context.
func (s *agentService) buildHistory(ctx context.Context, token string, ownerID uuid.UUID, limit int, cfg *settings.Settings) ([]providers.Turn, error) {
	msgs, err := s.store.History(ctx, token, ownerID, limit)
	if err != nil {
		return nil, err
	}

	turns := []providers.Turn{{Role: conversation.RoleSystem, Content: systemPrompt(cfg)}}
	for _, m := range msgs {
		switch m.Role {
		case conversation.RoleSystem:
			continue
		case conversation.RoleAssistant:
			decoded, err := m.DecodedToolCalls()
			if err != nil {
				return nil, fmt.Errorf("%w: corrupt tool calls on message %d: %v", apperr.ErrPersistence, m.ID, err)
			}
			turn := providers.Turn{Role: m.Role, Content: m.Content}
			for _, call := range decoded {
				turn.ToolCalls = append(turn.ToolCalls, providers.ToolCall{
					ID:        call.ID,
					Name:      call.Name,
					Arguments: call.Arguments,
				})
			}
			turns = append(turns, turn)
		case conversation.RoleTool:
			decoded, err := m.DecodedToolResults()
			if err != nil {
				return nil, fmt.Errorf("%w: corrupt tool results on message %d: %v", apperr.ErrPersistence, m.ID, err)
			}
			turn := providers.Turn{Role: m.Role}
			for _, res := range decoded {
				turn.ToolResults = append(turn.ToolResults, providers.ToolResult{
					CallID: res.CallID,
					Name:   res.Name,
					Result: res.Result,
				})
			}
			turns = append(turns, turn)
		default:
			turns = append(turns, providers.Turn{Role: m.Role, Content: m.Content})
		}
	}
	return turns, nil
}

func systemPrompt(cfg *settings.Settings) string {
	var b strings.Builder
	b.WriteString("You are an assistant embedded in a content management system. ")
	b.WriteString("Use the available tools to inspect and modify site content when the user asks; ")
	b.WriteString("answer directly when no tool is needed. Content you create is always a draft.")
	if cfg.BrandName != "" {
		fmt.Fprintf(&b, "\n\nSite: %s", cfg.BrandName)
	}
	if cfg.BrandDescription != "" {
		fmt.Fprintf(&b, "\n%s", cfg.BrandDescription)
	}
	if cfg.ContentGuidelines != "" {
		fmt.Fprintf(&b, "\n\nContent guidelines:\n%s", cfg.ContentGuidelines)
	}
	return b.String()
}
