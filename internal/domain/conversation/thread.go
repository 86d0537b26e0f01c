package conversation

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Thread is one persisted conversation. The numeric ID is internal only;
// everything outside the store addresses a thread by its Token.
type Thread struct {
	ID    uint   `gorm:"primaryKey;autoIncrement" json:"-"`
	Token string `gorm:"type:text;not null;uniqueIndex" json:"token"`

	UserID   uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Provider string    `gorm:"column:provider;not null" json:"provider"`

	Title    *string        `gorm:"column:title" json:"title,omitempty"`
	Metadata datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`

	// Concurrency-safe per-thread sequencing:
	NextSeq int64 `gorm:"column:next_seq;not null;default:0" json:"-"`

	MessageCount  int64     `gorm:"column:message_count;not null;default:0" json:"message_count"`
	LastMessageAt time.Time `gorm:"column:last_message_at;not null;index" json:"last_message_at"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Thread) TableName() string { return "launcher_thread" }
