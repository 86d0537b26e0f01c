package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brilliance/launcher-gateway/internal/apperr"
	"github.com/brilliance/launcher-gateway/internal/domain/conversation"
	"github.com/brilliance/launcher-gateway/internal/logger"
	"github.com/brilliance/launcher-gateway/internal/pkg/dbctx"
	convrepo "github.com/brilliance/launcher-gateway/internal/repos/conversation"
)

type gormStore struct {
	db       *gorm.DB
	log      *logger.Logger
	threads  convrepo.ThreadRepo
	messages convrepo.MessageRepo
}

// NewGormStore is the database-backed ConversationStore used in production.
func NewGormStore(db *gorm.DB, log *logger.Logger, threads convrepo.ThreadRepo, messages convrepo.MessageRepo) ConversationStore {
	return &gormStore{
		db:       db,
		log:      log.With("service", "ConversationStore"),
		threads:  threads,
		messages: messages,
	}
}

func (s *gormStore) CreateThread(ctx context.Context, ownerID uuid.UUID, provider string) (*conversation.Thread, error) {
	if ownerID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing owner", apperr.ErrValidation)
	}
	if provider == "" {
		return nil, fmt.Errorf("%w: missing provider", apperr.ErrValidation)
	}
	now := time.Now().UTC()
	row := &conversation.Thread{
		Token:         uuid.NewString(),
		UserID:        ownerID,
		Provider:      provider,
		LastMessageAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	out, err := s.threads.Create(dbctx.Context{Ctx: ctx}, row)
	if err != nil {
		return nil, fmt.Errorf("%w: create thread: %v", apperr.ErrPersistence, err)
	}
	return out, nil
}

func (s *gormStore) GetThread(ctx context.Context, token string, ownerID uuid.UUID) (*conversation.Thread, error) {
	th, err := s.loadOwned(dbctx.Context{Ctx: ctx}, token, ownerID)
	if err != nil {
		return nil, err
	}
	return th, nil
}

func (s *gormStore) AppendMessage(ctx context.Context, token string, ownerID uuid.UUID, msg NewMessage) (*conversation.Message, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: missing thread token", apperr.ErrValidation)
	}
	if !validRole(msg.Role) {
		return nil, fmt.Errorf("%w: invalid role %q", apperr.ErrValidation, msg.Role)
	}

	toolCalls, err := conversation.EncodeToolCalls(msg.ToolCalls)
	if err != nil {
		return nil, fmt.Errorf("%w: encode tool calls: %v", apperr.ErrValidation, err)
	}
	toolResults, err := conversation.EncodeToolResults(msg.ToolResults)
	if err != nil {
		return nil, fmt.Errorf("%w: encode tool results: %v", apperr.ErrValidation, err)
	}
	metadata, err := encodeMetadata(msg.Metadata)
	if err != nil {
		return nil, fmt.Errorf("%w: encode metadata: %v", apperr.ErrValidation, err)
	}

	var out *conversation.Message
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		th, err := s.threads.LockByToken(dbc, token)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: thread %s", apperr.ErrNotFound, token)
		}
		if err != nil {
			return fmt.Errorf("%w: lock thread: %v", apperr.ErrPersistence, err)
		}
		if th.UserID != ownerID {
			return fmt.Errorf("%w: thread %s", apperr.ErrForbidden, token)
		}

		now := time.Now().UTC()
		row := &conversation.Message{
			ThreadID:    th.ID,
			Seq:         th.NextSeq,
			Role:        msg.Role,
			Content:     msg.Content,
			ToolCalls:   toolCalls,
			ToolResults: toolResults,
			Metadata:    metadata,
			CreatedAt:   now,
		}
		if _, err := s.messages.Create(dbc, row); err != nil {
			return fmt.Errorf("%w: create message: %v", apperr.ErrPersistence, err)
		}

		updates := map[string]interface{}{
			"next_seq":        th.NextSeq + 1,
			"message_count":   th.MessageCount + 1,
			"last_message_at": now,
		}
		if th.Title == nil && msg.Role == conversation.RoleUser && msg.Content != "" {
			updates["title"] = deriveTitle(msg.Content)
		}
		if err := s.threads.UpdateFields(dbc, th.ID, updates); err != nil {
			return fmt.Errorf("%w: update thread counters: %v", apperr.ErrPersistence, err)
		}

		out = row
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return out, nil
}

func (s *gormStore) ListThreads(ctx context.Context, ownerID uuid.UUID) ([]*conversation.Thread, error) {
	if ownerID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing owner", apperr.ErrValidation)
	}
	rows, err := s.threads.ListByUser(dbctx.Context{Ctx: ctx}, ownerID, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: list threads: %v", apperr.ErrPersistence, err)
	}
	return rows, nil
}

func (s *gormStore) History(ctx context.Context, token string, ownerID uuid.UUID, limit int) ([]*conversation.Message, error) {
	dbc := dbctx.Context{Ctx: ctx}
	th, err := s.loadOwned(dbc, token, ownerID)
	if err != nil {
		return nil, err
	}
	rows, err := s.messages.ListByThread(dbc, th.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list messages: %v", apperr.ErrPersistence, err)
	}
	return rows, nil
}

func (s *gormStore) DeleteThread(ctx context.Context, token string, ownerID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		th, err := s.loadOwned(dbc, token, ownerID)
		if err != nil {
			return err
		}
		if err := s.messages.DeleteByThread(dbc, th.ID); err != nil {
			return fmt.Errorf("%w: delete messages: %v", apperr.ErrPersistence, err)
		}
		if err := s.threads.DeleteByID(dbc, th.ID); err != nil {
			return fmt.Errorf("%w: delete thread: %v", apperr.ErrPersistence, err)
		}
		return nil
	})
}

func (s *gormStore) loadOwned(dbc dbctx.Context, token string, ownerID uuid.UUID) (*conversation.Thread, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: missing thread token", apperr.ErrValidation)
	}
	th, err := s.threads.GetByToken(dbc, token)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: thread %s", apperr.ErrNotFound, token)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load thread: %v", apperr.ErrPersistence, err)
	}
	if th.UserID != ownerID {
		return nil, fmt.Errorf("%w: thread %s", apperr.ErrForbidden, token)
	}
	return th, nil
}
