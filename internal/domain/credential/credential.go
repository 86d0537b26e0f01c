package credential

import "time"

// ProviderCredential is the stored per-provider record. Secret is either an
// environment reference (leading "$", stored verbatim) or an encrypted
// literal; the two forms are never conflated.
type ProviderCredential struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"-"`
	Provider string `gorm:"column:provider;not null;uniqueIndex" json:"provider"`

	Secret string `gorm:"column:secret;type:text;not null;default:''" json:"-"`
	Model  string `gorm:"column:model;not null;default:''" json:"model"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (ProviderCredential) TableName() string { return "launcher_provider_credential" }
