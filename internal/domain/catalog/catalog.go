package catalog

import (
	"time"

	"gorm.io/datatypes"
)

// Content-model tables backing the host catalog: sections, entry types,
// fields, category groups, asset volumes, globals, and entries. These are
// the entities the agent's content tools introspect and create.

type Section struct {
	ID     uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name   string `gorm:"column:name;not null" json:"name"`
	Handle string `gorm:"column:handle;not null;uniqueIndex" json:"handle"`
	// Type is one of channel, structure, single.
	Type string `gorm:"column:type;not null;default:'channel'" json:"type"`

	EntryTypes []EntryType `gorm:"foreignKey:SectionID;constraint:OnDelete:CASCADE" json:"entry_types,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Section) TableName() string { return "launcher_section" }

type EntryType struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	SectionID uint   `gorm:"column:section_id;not null;index" json:"section_id"`
	Name      string `gorm:"column:name;not null" json:"name"`
	Handle    string `gorm:"column:handle;not null;index" json:"handle"`

	Fields []EntryTypeField `gorm:"foreignKey:EntryTypeID;constraint:OnDelete:CASCADE" json:"fields,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (EntryType) TableName() string { return "launcher_entry_type" }

type Field struct {
	ID           uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string         `gorm:"column:name;not null" json:"name"`
	Handle       string         `gorm:"column:handle;not null;uniqueIndex" json:"handle"`
	Type         string         `gorm:"column:type;not null;default:'plainText'" json:"type"`
	Instructions string         `gorm:"column:instructions;type:text;not null;default:''" json:"instructions"`
	Settings     datatypes.JSON `gorm:"column:settings" json:"settings,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Field) TableName() string { return "launcher_field" }

// EntryTypeField attaches a field to an entry type's layout.
type EntryTypeField struct {
	ID          uint `gorm:"primaryKey;autoIncrement" json:"-"`
	EntryTypeID uint `gorm:"column:entry_type_id;not null;index:idx_launcher_etf,unique,priority:1" json:"entry_type_id"`
	FieldID     uint `gorm:"column:field_id;not null;index:idx_launcher_etf,unique,priority:2" json:"field_id"`
	Required    bool `gorm:"column:required;not null;default:false" json:"required"`

	Field *Field `gorm:"foreignKey:FieldID" json:"field,omitempty"`
}

func (EntryTypeField) TableName() string { return "launcher_entry_type_field" }

type Entry struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	SectionID   uint   `gorm:"column:section_id;not null;index" json:"section_id"`
	EntryTypeID uint   `gorm:"column:entry_type_id;not null;index" json:"entry_type_id"`
	Title       string `gorm:"column:title;not null" json:"title"`
	Slug        string `gorm:"column:slug;not null;index" json:"slug"`
	// Status is draft or live; the agent only ever creates drafts.
	Status  string         `gorm:"column:status;not null;default:'draft';index" json:"status"`
	Content datatypes.JSON `gorm:"column:content" json:"content,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Entry) TableName() string { return "launcher_entry" }

type CategoryGroup struct {
	ID     uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name   string `gorm:"column:name;not null" json:"name"`
	Handle string `gorm:"column:handle;not null;uniqueIndex" json:"handle"`

	Categories []Category `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"categories,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (CategoryGroup) TableName() string { return "launcher_category_group" }

type Category struct {
	ID      uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	GroupID uint   `gorm:"column:group_id;not null;index" json:"group_id"`
	Title   string `gorm:"column:title;not null" json:"title"`
	Slug    string `gorm:"column:slug;not null;index" json:"slug"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Category) TableName() string { return "launcher_category" }

type AssetVolume struct {
	ID     uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name   string `gorm:"column:name;not null" json:"name"`
	Handle string `gorm:"column:handle;not null;uniqueIndex" json:"handle"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (AssetVolume) TableName() string { return "launcher_asset_volume" }

type Asset struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	VolumeID uint   `gorm:"column:volume_id;not null;index" json:"volume_id"`
	Filename string `gorm:"column:filename;not null" json:"filename"`
	Title    string `gorm:"column:title;not null;default:''" json:"title"`
	Kind     string `gorm:"column:kind;not null;default:'unknown'" json:"kind"`
	Size     int64  `gorm:"column:size;not null;default:0" json:"size"`
	Indexed  bool   `gorm:"column:indexed;not null;default:false" json:"indexed"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Asset) TableName() string { return "launcher_asset" }

type GlobalSet struct {
	ID      uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name    string         `gorm:"column:name;not null" json:"name"`
	Handle  string         `gorm:"column:handle;not null;uniqueIndex" json:"handle"`
	Content datatypes.JSON `gorm:"column:content" json:"content,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (GlobalSet) TableName() string { return "launcher_global_set" }
