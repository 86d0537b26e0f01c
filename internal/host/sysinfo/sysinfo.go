package sysinfo

import (
	"context"
	"runtime"
	"time"

	"github.com/brilliance/launcher-gateway/internal/host"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// Service implements host.System with process-local runtime facts.
type Service struct {
	appName  string
	dbDriver string
	started  time.Time
}

func New(appName, dbDriver string) *Service {
	return &Service{appName: appName, dbDriver: dbDriver, started: time.Now()}
}

var _ host.System = (*Service)(nil)

func (s *Service) Info(ctx context.Context) (host.SystemInfo, error) {
	return host.SystemInfo{
		AppName:    s.appName,
		Version:    Version,
		GoVersion:  runtime.Version(),
		OS:         runtime.GOOS,
		Arch:       runtime.GOARCH,
		DBDriver:   s.dbDriver,
		Uptime:     time.Since(s.started).Round(time.Second).String(),
		Goroutines: runtime.NumGoroutine(),
	}, nil
}

func (s *Service) Utilities(ctx context.Context) ([]host.Utility, error) {
	return []host.Utility{
		{ID: "clear-caches", Name: "Clear Caches", Description: "Flush all host cache entries"},
		{ID: "asset-indexes", Name: "Asset Indexes", Description: "Rebuild the searchable asset index"},
		{ID: "queue-manager", Name: "Queue Manager", Description: "Inspect and release background jobs"},
		{ID: "system-report", Name: "System Report", Description: "Runtime and environment diagnostics"},
	}, nil
}

func (s *Service) CommerceStatus(ctx context.Context) (map[string]any, error) {
	// No commerce subsystem ships with the gateway.
	return map[string]any{
		"installed": false,
		"message":   "Commerce is not installed on this site.",
	}, nil
}
