package store

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/brilliance/launcher-gateway/internal/domain/conversation"
)

// NewMessage is the caller-supplied part of an appended message; the store
// assigns identity, sequencing, and timestamps.
type NewMessage struct {
	Role        string
	Content     string
	ToolCalls   []conversation.ToolCall
	ToolResults []conversation.ToolResult
	Metadata    map[string]any
}

// ConversationStore persists threads and messages and enforces ownership.
//
// AppendMessage is atomic: the message insert, the message_count increment,
// and the last_message_at update commit together or not at all. Concurrent
// appends against one thread serialize; appends on different threads are
// independent.
type ConversationStore interface {
	CreateThread(ctx context.Context, ownerID uuid.UUID, provider string) (*conversation.Thread, error)
	GetThread(ctx context.Context, token string, ownerID uuid.UUID) (*conversation.Thread, error)
	AppendMessage(ctx context.Context, token string, ownerID uuid.UUID, msg NewMessage) (*conversation.Message, error)
	// ListThreads orders by most recent activity first.
	ListThreads(ctx context.Context, ownerID uuid.UUID) ([]*conversation.Thread, error)
	// History returns messages in append order. limit <= 0 returns all;
	// a positive limit keeps the newest messages.
	History(ctx context.Context, token string, ownerID uuid.UUID, limit int) ([]*conversation.Message, error)
	// DeleteThread cascades to all of the thread's messages.
	DeleteThread(ctx context.Context, token string, ownerID uuid.UUID) error
}

func validRole(role string) bool {
	switch role {
	case conversation.RoleUser, conversation.RoleAssistant, conversation.RoleSystem, conversation.RoleTool:
		return true
	}
	return false
}

func encodeMetadata(m map[string]any) (datatypes.JSON, error) {
	if len(m) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// deriveTitle builds a thread title from the first user message.
func deriveTitle(text string) string {
	t := strings.Join(strings.Fields(text), " ")
	runes := []rune(t)
	if len(runes) > 80 {
		t = strings.TrimSpace(string(runes[:77])) + "..."
	}
	return t
}
