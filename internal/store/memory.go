package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/brilliance/launcher-gateway/internal/apperr"
	"github.com/brilliance/launcher-gateway/internal/domain/conversation"
)

type memThread struct {
	mu       sync.Mutex
	thread   conversation.Thread
	messages []*conversation.Message
}

type memoryStore struct {
	mu      sync.RWMutex
	byToken map[string]*memThread

	idMu      sync.Mutex
	nextTh    uint
	nextMsgID uint
}

// NewMemoryStore is an in-process ConversationStore with the same semantics
// as the database-backed one. It backs tests and embedded single-process use.
func NewMemoryStore() ConversationStore {
	return &memoryStore{byToken: map[string]*memThread{}}
}

func (s *memoryStore) nextThreadID() uint {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	s.nextTh++
	return s.nextTh
}

func (s *memoryStore) nextMessageID() uint {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	s.nextMsgID++
	return s.nextMsgID
}

func (s *memoryStore) CreateThread(ctx context.Context, ownerID uuid.UUID, provider string) (*conversation.Thread, error) {
	if ownerID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing owner", apperr.ErrValidation)
	}
	if provider == "" {
		return nil, fmt.Errorf("%w: missing provider", apperr.ErrValidation)
	}
	now := time.Now().UTC()
	mt := &memThread{
		thread: conversation.Thread{
			ID:            s.nextThreadID(),
			Token:         uuid.NewString(),
			UserID:        ownerID,
			Provider:      provider,
			LastMessageAt: now,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
	}
	s.mu.Lock()
	s.byToken[mt.thread.Token] = mt
	s.mu.Unlock()

	out := mt.thread
	return &out, nil
}

func (s *memoryStore) lookup(token string, ownerID uuid.UUID) (*memThread, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: missing thread token", apperr.ErrValidation)
	}
	s.mu.RLock()
	mt, ok := s.byToken[token]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: thread %s", apperr.ErrNotFound, token)
	}
	if mt.thread.UserID != ownerID {
		return nil, fmt.Errorf("%w: thread %s", apperr.ErrForbidden, token)
	}
	return mt, nil
}

func (s *memoryStore) GetThread(ctx context.Context, token string, ownerID uuid.UUID) (*conversation.Thread, error) {
	mt, err := s.lookup(token, ownerID)
	if err != nil {
		return nil, err
	}
	mt.mu.Lock()
	defer mt.mu.Unlock()
	out := mt.thread
	return &out, nil
}

func (s *memoryStore) AppendMessage(ctx context.Context, token string, ownerID uuid.UUID, msg NewMessage) (*conversation.Message, error) {
	if !validRole(msg.Role) {
		return nil, fmt.Errorf("%w: invalid role %q", apperr.ErrValidation, msg.Role)
	}
	mt, err := s.lookup(token, ownerID)
	if err != nil {
		return nil, err
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

	mt.mu.Lock()
	defer mt.mu.Unlock()

	now := time.Now().UTC()
	row := &conversation.Message{
		ID:          s.nextMessageID(),
		ThreadID:    mt.thread.ID,
		Seq:         mt.thread.NextSeq,
		Role:        msg.Role,
		Content:     msg.Content,
		ToolCalls:   toolCalls,
		ToolResults: toolResults,
		Metadata:    metadata,
		CreatedAt:   now,
	}
	mt.messages = append(mt.messages, row)
	mt.thread.NextSeq++
	mt.thread.MessageCount++
	mt.thread.LastMessageAt = now
	mt.thread.UpdatedAt = now
	if mt.thread.Title == nil && msg.Role == conversation.RoleUser && msg.Content != "" {
		title := deriveTitle(msg.Content)
		mt.thread.Title = &title
	}

	out := *row
	return &out, nil
}

func (s *memoryStore) ListThreads(ctx context.Context, ownerID uuid.UUID) ([]*conversation.Thread, error) {
	if ownerID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing owner", apperr.ErrValidation)
	}
	s.mu.RLock()
	var out []*conversation.Thread
	for _, mt := range s.byToken {
		mt.mu.Lock()
		if mt.thread.UserID == ownerID {
			th := mt.thread
			out = append(out, &th)
		}
		mt.mu.Unlock()
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].LastMessageAt.After(out[j].LastMessageAt)
	})
	return out, nil
}

func (s *memoryStore) History(ctx context.Context, token string, ownerID uuid.UUID, limit int) ([]*conversation.Message, error) {
	mt, err := s.lookup(token, ownerID)
	if err != nil {
		return nil, err
	}
	mt.mu.Lock()
	defer mt.mu.Unlock()

	msgs := mt.messages
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]*conversation.Message, 0, len(msgs))
	for _, m := range msgs {
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}

func (s *memoryStore) DeleteThread(ctx context.Context, token string, ownerID uuid.UUID) error {
	_, err := s.lookup(token, ownerID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.byToken, token)
	s.mu.Unlock()
	return nil
}
