package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/brilliance/launcher-gateway/internal/domain/conversation"
	"github.com/brilliance/launcher-gateway/internal/logger"
	convrepo "github.com/brilliance/launcher-gateway/internal/repos/conversation"
)

func newSQLiteStore(t *testing.T) ConversationStore {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&conversation.Thread{}, &conversation.Message{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	log := logger.NewNop()
	return NewGormStore(db, log, convrepo.NewThreadRepo(db, log), convrepo.NewMessageRepo(db, log))
}

func TestGormStore_ListThreadsReturnsAll(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	owner := uuid.New()
	other := uuid.New()

	const total = 60
	tokens := make([]string, 0, total)
	for i := 0; i < total; i++ {
		th, err := s.CreateThread(ctx, owner, "claude")
		if err != nil {
			t.Fatalf("CreateThread %d: %v", i, err)
		}
		tokens = append(tokens, th.Token)
	}
	if _, err := s.CreateThread(ctx, other, "claude"); err != nil {
		t.Fatalf("CreateThread other owner: %v", err)
	}

	// Appending bumps last_message_at, so this thread must list first.
	if _, err := s.AppendMessage(ctx, tokens[7], owner, NewMessage{Role: conversation.RoleUser, Content: "hello"}); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}

	threads, err := s.ListThreads(ctx, owner)
	if err != nil {
		t.Fatalf("ListThreads: %v", err)
	}
	if len(threads) != total {
		t.Fatalf("listed %d threads, want %d", len(threads), total)
	}
	if threads[0].Token != tokens[7] {
		t.Fatalf("most recently active thread not first: got %s, want %s", threads[0].Token, tokens[7])
	}
	for _, th := range threads {
		if th.UserID != owner {
			t.Fatalf("listed a thread belonging to %s", th.UserID)
		}
	}
}

func TestGormStore_AppendAndHistory(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	owner := uuid.New()

	th, err := s.CreateThread(ctx, owner, "openai")
	if err != nil {
		t.Fatalf("CreateThread: %v", err)
	}
	if _, err := s.AppendMessage(ctx, th.Token, owner, NewMessage{Role: conversation.RoleUser, Content: "clear the caches please"}); err != nil {
		t.Fatalf("AppendMessage user: %v", err)
	}
	if _, err := s.AppendMessage(ctx, th.Token, owner, NewMessage{Role: conversation.RoleAssistant, Content: "done"}); err != nil {
		t.Fatalf("AppendMessage assistant: %v", err)
	}

	msgs, err := s.History(ctx, th.Token, owner, 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("history length = %d, want 2", len(msgs))
	}
	if msgs[0].Seq != 0 || msgs[1].Seq != 1 {
		t.Fatalf("unexpected seqs: %d, %d", msgs[0].Seq, msgs[1].Seq)
	}

	got, err := s.GetThread(ctx, th.Token, owner)
	if err != nil {
		t.Fatalf("GetThread: %v", err)
	}
	if got.MessageCount != 2 {
		t.Fatalf("message count = %d, want 2", got.MessageCount)
	}
	if got.Title == nil || *got.Title != "clear the caches please" {
		t.Fatalf("expected title derived from first user message, got %v", got.Title)
	}
}
