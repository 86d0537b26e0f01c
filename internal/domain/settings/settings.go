package settings

import "time"

// Defaults mirrored by the single settings row when no value was saved yet.
const (
	DefaultProvider      = "claude"
	DefaultMaxHistory    = 50
	DefaultMaxToolRounds = 10
)

// Settings is a single-row table holding gateway-wide configuration that
// admins edit at runtime. Provider API keys live in the credential table,
// not here.
type Settings struct {
	ID uint `gorm:"primaryKey" json:"-"`

	DefaultProvider string `gorm:"column:default_provider;not null;default:'claude'" json:"default_provider"`

	BrandName         string `gorm:"column:brand_name;not null;default:''" json:"brand_name"`
	BrandDescription  string `gorm:"column:brand_description;type:text;not null;default:''" json:"brand_description"`
	ContentGuidelines string `gorm:"column:content_guidelines;type:text;not null;default:''" json:"content_guidelines"`

	MaxHistory    int `gorm:"column:max_history;not null;default:50" json:"max_history"`
	MaxToolRounds int `gorm:"column:max_tool_rounds;not null;default:10" json:"max_tool_rounds"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Settings) TableName() string { return "launcher_settings" }
