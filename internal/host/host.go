package host

import (
	"context"
	"errors"

	"github.com/brilliance/launcher-gateway/internal/domain/catalog"
)

// Host groups the capability surfaces the tool handlers call into. The
// registry only ever sees these interfaces; how a deployment implements
// them (database, redis, a remote CMS) is its own business.
type Host struct {
	Content Content
	Cache   Cache
	Queue   Queue
	System  System
}

// Content is the content-model surface: introspection plus the few
// creation operations the agent is allowed to perform. Creation of
// entries is always draft-only.
type Content interface {
	ListSections(ctx context.Context) ([]catalog.Section, error)
	// GetSection loads a section with its entry types and their field
	// layouts.
	GetSection(ctx context.Context, handle string) (*catalog.Section, error)
	SearchEntries(ctx context.Context, query, sectionHandle string, limit int) ([]catalog.Entry, error)
	CreateDraftEntry(ctx context.Context, sectionHandle, typeHandle, title string, fields map[string]any) (*catalog.Entry, error)

	ListFields(ctx context.Context) ([]catalog.Field, error)
	GetField(ctx context.Context, handle string) (*catalog.Field, error)

	ListCategoryGroups(ctx context.Context) ([]catalog.CategoryGroup, error)
	GetCategoryGroup(ctx context.Context, handle string) (*catalog.CategoryGroup, error)
	SearchCategories(ctx context.Context, query, groupHandle string, limit int) ([]catalog.Category, error)

	ListAssetVolumes(ctx context.Context) ([]catalog.AssetVolume, error)
	SearchAssets(ctx context.Context, query, volumeHandle string, limit int) ([]catalog.Asset, error)
	// RebuildAssetIndexes re-indexes every asset and reports how many rows
	// were touched.
	RebuildAssetIndexes(ctx context.Context) (int, error)

	ListGlobalSets(ctx context.Context) ([]catalog.GlobalSet, error)
	GetGlobalSet(ctx context.Context, handle string) (*catalog.GlobalSet, error)
	SearchGlobalSets(ctx context.Context, query string) ([]catalog.GlobalSet, error)

	CreateSection(ctx context.Context, name, handle, sectionType string) (*catalog.Section, error)
	CreateEntryType(ctx context.Context, sectionHandle, name, handle string) (*catalog.EntryType, error)
	CreateField(ctx context.Context, name, handle, fieldType, instructions string) (*catalog.Field, error)
	AddFieldToEntryType(ctx context.Context, entryTypeHandle, fieldHandle string, required bool) error
}

// Cache administers the host's cache layer.
type Cache interface {
	// ClearCaches flushes everything and reports how many entries went.
	ClearCaches(ctx context.Context) (int, error)
}

// QueueStatus is a point-in-time snapshot of the background job queue.
type QueueStatus struct {
	Pending  int64 `json:"pending"`
	Reserved int64 `json:"reserved"`
	Failed   int64 `json:"failed"`
}

// Queue administers the host's background job queue.
type Queue interface {
	Status(ctx context.Context) (QueueStatus, error)
	// Run releases up to limit pending jobs and reports how many ran.
	Run(ctx context.Context, limit int) (int, error)
}

// SystemInfo describes the running host for diagnostic tools.
type SystemInfo struct {
	AppName    string `json:"appName"`
	Version    string `json:"version"`
	GoVersion  string `json:"goVersion"`
	OS         string `json:"os"`
	Arch       string `json:"arch"`
	DBDriver   string `json:"dbDriver"`
	Uptime     string `json:"uptime"`
	Goroutines int    `json:"goroutines"`
}

// Utility is one admin-facing maintenance action the host exposes.
type Utility struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type System interface {
	Info(ctx context.Context) (SystemInfo, error)
	Utilities(ctx context.Context) ([]Utility, error)
	// CommerceStatus reports whether a commerce subsystem is installed and
	// any summary details it exposes.
	CommerceStatus(ctx context.Context) (map[string]any, error)
}

// Unavailable satisfies Cache and Queue for deployments that run without a
// cache or queue backend. Every call reports the capability as missing, so
// the corresponding tools answer with an error payload instead of failing
// the turn.
type Unavailable struct{}

func (Unavailable) ClearCaches(ctx context.Context) (int, error) {
	return 0, errors.New("cache backend is not configured")
}

func (Unavailable) Status(ctx context.Context) (QueueStatus, error) {
	return QueueStatus{}, errors.New("queue backend is not configured")
}

func (Unavailable) Run(ctx context.Context, limit int) (int, error) {
	return 0, errors.New("queue backend is not configured")
}
