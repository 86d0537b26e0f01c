package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/brilliance/launcher-gateway/internal/apperr"
	"github.com/brilliance/launcher-gateway/internal/domain/conversation"
	"github.com/brilliance/launcher-gateway/internal/logger"
	"github.com/brilliance/launcher-gateway/internal/requestdata"
	"github.com/brilliance/launcher-gateway/internal/services"
)

type ChatHandler struct {
	log   *logger.Logger
	agent services.AgentService
}

func NewChatHandler(log *logger.Logger, agent services.AgentService) *ChatHandler {
	return &ChatHandler{log: log.With("Handler", "ChatHandler"), agent: agent}
}

type threadView struct {
	Token         string    `json:"token"`
	Provider      string    `json:"provider"`
	Title         *string   `json:"title"`
	MessageCount  int64     `json:"messageCount"`
	LastMessageAt time.Time `json:"lastMessageAt"`
	CreatedAt     time.Time `json:"createdAt"`
}

type messageView struct {
	Seq         int64                     `json:"seq"`
	Role        string                    `json:"role"`
	Content     string                    `json:"content"`
	ToolCalls   []conversation.ToolCall   `json:"toolCalls,omitempty"`
	ToolResults []conversation.ToolResult `json:"toolResults,omitempty"`
	CreatedAt   time.Time                 `json:"createdAt"`
}

func (h *ChatHandler) ListThreads(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	threads, err := h.agent.ListThreads(c.Request.Context(), userID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	out := make([]threadView, 0, len(threads))
	for _, th := range threads {
		out = append(out, h.threadView(th))
	}
	RespondOK(c, gin.H{"threads": out})
}

func (h *ChatHandler) CreateThread(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var body struct {
		Provider string `json:"provider"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			RespondAppError(c, fmt.Errorf("%w: %v", apperr.ErrValidation, err))
			return
		}
	}
	th, err := h.agent.StartThread(c.Request.Context(), userID, body.Provider)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"thread": h.threadView(th)})
}

func (h *ChatHandler) GetHistory(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	token := c.Param("token")
	msgs, err := h.agent.History(c.Request.Context(), token, userID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	out := make([]messageView, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, h.messageView(m))
	}
	RespondOK(c, gin.H{"messages": out})
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	token := c.Param("token")
	var body struct {
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondAppError(c, fmt.Errorf("%w: %v", apperr.ErrValidation, err))
		return
	}

	res, err := h.agent.SendTurn(c.Request.Context(), token, userID, body.Message)
	if err != nil {
		// Partial progress is retrievable via GetHistory; the client only
		// needs to know whether a refetch is worthwhile.
		if res != nil && res.PartialProgress {
			c.Header("X-Partial-Progress", "true")
		}
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"message":        h.messageView(res.Message),
		"displayContent": res.DisplayContent,
	})
}

func (h *ChatHandler) DeleteThread(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	token := c.Param("token")
	if err := h.agent.DeleteThread(c.Request.Context(), token, userID); err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}

func (h *ChatHandler) threadView(th *conversation.Thread) threadView {
	return threadView{
		Token:         th.Token,
		Provider:      th.Provider,
		Title:         th.Title,
		MessageCount:  th.MessageCount,
		LastMessageAt: th.LastMessageAt,
		CreatedAt:     th.CreatedAt,
	}
}

func (h *ChatHandler) messageView(m *conversation.Message) messageView {
	out := messageView{
		Seq:       m.Seq,
		Role:      m.Role,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
	if calls, err := m.DecodedToolCalls(); err == nil {
		out.ToolCalls = calls
	} else {
		h.log.Warn("Failed to decode tool calls", "message", m.ID, "error", err)
	}
	if results, err := m.DecodedToolResults(); err == nil {
		out.ToolResults = results
	} else {
		h.log.Warn("Failed to decode tool results", "message", m.ID, "error", err)
	}
	return out
}

func currentUser(c *gin.Context) (uuid.UUID, bool) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
		return uuid.Nil, false
	}
	return rd.UserID, true
}
