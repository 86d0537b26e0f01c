package conversation

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleTool      = "tool"
)

// ToolCall is one tool invocation an assistant message requested.
type ToolCall struct {
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"toolName"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// ToolResult is the outcome of one tool call, carried by a tool-role message.
// Result is always JSON-safe; execution errors arrive as {"error": ...} maps.
type ToolResult struct {
	CallID string `json:"callId,omitempty"`
	Name   string `json:"toolName"`
	Result any    `json:"result"`
}

// Message is append-only: never mutated or reordered after creation.
type Message struct {
	ID       uint `gorm:"primaryKey;autoIncrement" json:"id"`
	ThreadID uint `gorm:"column:thread_id;not null;index;index:idx_launcher_message_thread_seq,unique,priority:1" json:"-"`

	Seq int64 `gorm:"column:seq;not null;index:idx_launcher_message_thread_seq,unique,priority:2" json:"seq"`

	Role    string `gorm:"column:role;not null;index" json:"role"`
	Content string `gorm:"column:content;type:text;not null;default:''" json:"content"`

	ToolCalls   datatypes.JSON `gorm:"column:tool_calls" json:"tool_calls,omitempty"`
	ToolResults datatypes.JSON `gorm:"column:tool_results" json:"tool_results,omitempty"`
	Metadata    datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (Message) TableName() string { return "launcher_message" }

func EncodeToolCalls(calls []ToolCall) (datatypes.JSON, error) {
	if len(calls) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(calls)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func EncodeToolResults(results []ToolResult) (datatypes.JSON, error) {
	if len(results) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(results)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// DecodedToolCalls parses the stored tool_calls column. Empty column
// decodes to nil.
func (m *Message) DecodedToolCalls() ([]ToolCall, error) {
	if len(m.ToolCalls) == 0 {
		return nil, nil
	}
	var out []ToolCall
	if err := json.Unmarshal(m.ToolCalls, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *Message) DecodedToolResults() ([]ToolResult, error) {
	if len(m.ToolResults) == 0 {
		return nil, nil
	}
	var out []ToolResult
	if err := json.Unmarshal(m.ToolResults, &out); err != nil {
		return nil, err
	}
	return out, nil
}
