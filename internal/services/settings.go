package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/brilliance/launcher-gateway/internal/apperr"
	"github.com/brilliance/launcher-gateway/internal/domain/settings"
	"github.com/brilliance/launcher-gateway/internal/logger"
	"github.com/brilliance/launcher-gateway/internal/pkg/dbctx"
	"github.com/brilliance/launcher-gateway/internal/providers"
	settingsrepo "github.com/brilliance/launcher-gateway/internal/repos/settings"
	"github.com/brilliance/launcher-gateway/internal/vault"
)

// ProviderView is the per-provider slice of the settings surface. APIKey is
// always masked on the way out; raw keys only travel inward.
type ProviderView struct {
	APIKey string `json:"apiKey"`
	Model  string `json:"model"`
}

type SettingsView struct {
	DefaultProvider   string                  `json:"defaultProvider"`
	BrandName         string                  `json:"brandName"`
	BrandDescription  string                  `json:"brandDescription"`
	ContentGuidelines string                  `json:"contentGuidelines"`
	MaxHistory        int                     `json:"maxHistory"`
	MaxToolRounds     int                     `json:"maxToolRounds"`
	Providers         map[string]ProviderView `json:"providers"`
}

// ProviderInput carries a raw key on save. A blank APIKey keeps whatever is
// already stored; a "$NAME" value stores an environment reference.
type ProviderInput struct {
	APIKey string `json:"apiKey"`
	Model  string `json:"model"`
}

type SettingsInput struct {
	DefaultProvider   string                   `json:"defaultProvider"`
	BrandName         string                   `json:"brandName"`
	BrandDescription  string                   `json:"brandDescription"`
	ContentGuidelines string                   `json:"contentGuidelines"`
	MaxHistory        int                      `json:"maxHistory"`
	MaxToolRounds     int                      `json:"maxToolRounds"`
	Providers         map[string]ProviderInput `json:"providers"`
}

type SettingsService interface {
	Get(ctx context.Context) (*SettingsView, error)
	Save(ctx context.Context, in SettingsInput) (*SettingsView, error)
	// ValidateProvider checks the stored credential against the live
	// provider API.
	ValidateProvider(ctx context.Context, provider string) error
}

type settingsService struct {
	log      *logger.Logger
	repo     settingsrepo.Repo
	vault    vault.Vault
	resolver providers.Resolver
}

func NewSettingsService(log *logger.Logger, repo settingsrepo.Repo, credVault vault.Vault, resolver providers.Resolver) SettingsService {
	return &settingsService{
		log:      log.With("service", "SettingsService"),
		repo:     repo,
		vault:    credVault,
		resolver: resolver,
	}
}

func (s *settingsService) Get(ctx context.Context) (*SettingsView, error) {
	row, err := s.repo.Get(dbctx.Context{Ctx: ctx})
	if err != nil {
		return nil, fmt.Errorf("%w: load settings: %v", apperr.ErrPersistence, err)
	}
	return s.view(ctx, row), nil
}

func (s *settingsService) Save(ctx context.Context, in SettingsInput) (*SettingsView, error) {
	if in.DefaultProvider != "" {
		if _, err := s.resolver.ForName(in.DefaultProvider); err != nil {
			return nil, fmt.Errorf("%w: unknown default provider %q", apperr.ErrValidation, in.DefaultProvider)
		}
	}
	if in.MaxHistory < 0 || in.MaxToolRounds < 0 {
		return nil, fmt.Errorf("%w: limits must not be negative", apperr.ErrValidation)
	}

	row, err := s.repo.Get(dbctx.Context{Ctx: ctx})
	if err != nil {
		return nil, fmt.Errorf("%w: load settings: %v", apperr.ErrPersistence, err)
	}
	if in.DefaultProvider != "" {
		row.DefaultProvider = in.DefaultProvider
	}
	row.BrandName = in.BrandName
	row.BrandDescription = in.BrandDescription
	row.ContentGuidelines = in.ContentGuidelines
	if in.MaxHistory > 0 {
		row.MaxHistory = in.MaxHistory
	}
	if in.MaxToolRounds > 0 {
		row.MaxToolRounds = in.MaxToolRounds
	}
	if err := s.repo.Save(dbctx.Context{Ctx: ctx}, row); err != nil {
		return nil, fmt.Errorf("%w: save settings: %v", apperr.ErrPersistence, err)
	}

	for name, pv := range in.Providers {
		if _, err := s.resolver.ForName(name); err != nil {
			return nil, fmt.Errorf("%w: unknown provider %q", apperr.ErrValidation, name)
		}
		if err := s.vault.Store(ctx, name, pv.APIKey); err != nil {
			return nil, err
		}
		if err := s.vault.SetModel(ctx, name, strings.TrimSpace(pv.Model)); err != nil {
			return nil, err
		}
	}

	return s.view(ctx, row), nil
}

func (s *settingsService) ValidateProvider(ctx context.Context, provider string) error {
	adapter, err := s.resolver.ForName(provider)
	if err != nil {
		return err
	}
	apiKey, err := s.vault.Resolve(ctx, provider)
	if err != nil {
		return err
	}
	model, err := s.vault.Model(ctx, provider)
	if err != nil {
		return err
	}
	if err := adapter.Validate(ctx, providers.Credential{APIKey: apiKey, Model: model}); err != nil {
		s.log.Warn("Provider validation failed", "provider", provider, "error", err)
		return err
	}
	return nil
}

func (s *settingsService) view(ctx context.Context, row *settings.Settings) *SettingsView {
	out := &SettingsView{
		DefaultProvider:   row.DefaultProvider,
		BrandName:         row.BrandName,
		BrandDescription:  row.BrandDescription,
		ContentGuidelines: row.ContentGuidelines,
		MaxHistory:        row.MaxHistory,
		MaxToolRounds:     row.MaxToolRounds,
		Providers:         map[string]ProviderView{},
	}
	for _, name := range s.resolver.Names() {
		masked, err := s.vault.Mask(ctx, name)
		if err != nil {
			s.log.Warn("Failed to mask stored key", "provider", name, "error", err)
		}
		model, err := s.vault.Model(ctx, name)
		if err != nil {
			s.log.Warn("Failed to read stored model", "provider", name, "error", err)
		}
		out.Providers[name] = ProviderView{APIKey: masked, Model: model}
	}
	return out
}
