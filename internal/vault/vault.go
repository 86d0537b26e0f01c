package vault

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/brilliance/launcher-gateway/internal/apperr"
	"github.com/brilliance/launcher-gateway/internal/domain/credential"
	"github.com/brilliance/launcher-gateway/internal/logger"
	"github.com/brilliance/launcher-gateway/internal/pkg/dbctx"
	credrepo "github.com/brilliance/launcher-gateway/internal/repos/credential"
)

// EnvSigil marks a stored secret as a reference to an environment variable
// rather than a literal. References are stored verbatim, never encrypted.
const EnvSigil = "$"

// Vault resolves and protects per-provider API keys. The environment
// binding for a provider always wins over whatever is stored. Absence and
// failure are indistinguishable to callers: both come back as
// apperr.ErrNotConfigured, never as a panic or a propagated decrypt error.
type Vault interface {
	Resolve(ctx context.Context, provider string) (string, error)
	// Store persists a raw key. Blank input is a no-op (the existing
	// credential is retained). A leading "$" stores an env reference
	// verbatim; anything else is encrypted at rest.
	Store(ctx context.Context, provider, raw string) error
	// Mask renders the stored secret for display: env references come back
	// unmodified, literals show only their last four characters. Returns ""
	// when nothing usable is stored.
	Mask(ctx context.Context, provider string) (string, error)
	Model(ctx context.Context, provider string) (string, error)
	SetModel(ctx context.Context, provider, model string) error
}

type vault struct {
	log  *logger.Logger
	repo credrepo.Repo
	key  string
}

func New(log *logger.Logger, repo credrepo.Repo, securityKey string) (Vault, error) {
	if strings.TrimSpace(securityKey) == "" {
		return nil, fmt.Errorf("missing security key")
	}
	return &vault{
		log:  log.With("service", "CredentialVault"),
		repo: repo,
		key:  securityKey,
	}, nil
}

// EnvBinding is the per-provider override variable, e.g. claude ->
// LAUNCHER_CLAUDE_API_KEY.
func EnvBinding(provider string) string {
	return "LAUNCHER_" + strings.ToUpper(strings.TrimSpace(provider)) + "_API_KEY"
}

func (v *vault) Resolve(ctx context.Context, provider string) (string, error) {
	provider = strings.TrimSpace(provider)
	if provider == "" {
		return "", fmt.Errorf("%w: missing provider", apperr.ErrValidation)
	}

	if env := strings.TrimSpace(os.Getenv(EnvBinding(provider))); env != "" {
		return env, nil
	}

	rec, err := v.repo.Get(dbctx.Context{Ctx: ctx}, provider)
	if err != nil {
		v.log.Warn("Credential lookup failed", "provider", provider, "error", err)
		return "", fmt.Errorf("%w: %s", apperr.ErrNotConfigured, provider)
	}
	if rec == nil || strings.TrimSpace(rec.Secret) == "" {
		return "", fmt.Errorf("%w: %s", apperr.ErrNotConfigured, provider)
	}

	if strings.HasPrefix(rec.Secret, EnvSigil) {
		name := strings.TrimPrefix(rec.Secret, EnvSigil)
		val := strings.TrimSpace(os.Getenv(name))
		if val == "" {
			v.log.Warn("Credential env reference is unset", "provider", provider, "variable", name)
			return "", fmt.Errorf("%w: %s", apperr.ErrNotConfigured, provider)
		}
		return val, nil
	}

	plain, err := decryptString(v.key, rec.Secret)
	if err != nil {
		v.log.Warn("Credential decryption failed", "provider", provider, "error", err)
		return "", fmt.Errorf("%w: %s", apperr.ErrNotConfigured, provider)
	}
	return plain, nil
}

func (v *vault) Store(ctx context.Context, provider, raw string) error {
	provider = strings.TrimSpace(provider)
	if provider == "" {
		return fmt.Errorf("%w: missing provider", apperr.ErrValidation)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	secret := raw
	if !strings.HasPrefix(raw, EnvSigil) {
		enc, err := encryptString(v.key, raw)
		if err != nil {
			return fmt.Errorf("%w: encrypt credential: %v", apperr.ErrPersistence, err)
		}
		secret = enc
	}

	dbc := dbctx.Context{Ctx: ctx}
	row := &credential.ProviderCredential{Provider: provider, Secret: secret}
	if existing, err := v.repo.Get(dbc, provider); err == nil && existing != nil {
		row.Model = existing.Model
	}
	if err := v.repo.Upsert(dbc, row); err != nil {
		return fmt.Errorf("%w: store credential: %v", apperr.ErrPersistence, err)
	}
	return nil
}

func (v *vault) Mask(ctx context.Context, provider string) (string, error) {
	provider = strings.TrimSpace(provider)
	if provider == "" {
		return "", fmt.Errorf("%w: missing provider", apperr.ErrValidation)
	}
	rec, err := v.repo.Get(dbctx.Context{Ctx: ctx}, provider)
	if err != nil {
		v.log.Warn("Credential lookup failed", "provider", provider, "error", err)
		return "", nil
	}
	if rec == nil || strings.TrimSpace(rec.Secret) == "" {
		return "", nil
	}
	if strings.HasPrefix(rec.Secret, EnvSigil) {
		// A reference names a variable, not a secret.
		return rec.Secret, nil
	}
	plain, err := decryptString(v.key, rec.Secret)
	if err != nil {
		v.log.Warn("Credential decryption failed", "provider", provider, "error", err)
		return "", nil
	}
	return maskSecret(plain), nil
}

func (v *vault) Model(ctx context.Context, provider string) (string, error) {
	rec, err := v.repo.Get(dbctx.Context{Ctx: ctx}, strings.TrimSpace(provider))
	if err != nil {
		return "", fmt.Errorf("%w: load credential: %v", apperr.ErrPersistence, err)
	}
	if rec == nil {
		return "", nil
	}
	return rec.Model, nil
}

func (v *vault) SetModel(ctx context.Context, provider, model string) error {
	provider = strings.TrimSpace(provider)
	if provider == "" {
		return fmt.Errorf("%w: missing provider", apperr.ErrValidation)
	}
	dbc := dbctx.Context{Ctx: ctx}
	row := &credential.ProviderCredential{Provider: provider, Model: strings.TrimSpace(model)}
	if existing, err := v.repo.Get(dbc, provider); err == nil && existing != nil {
		row.Secret = existing.Secret
	}
	if err := v.repo.Upsert(dbc, row); err != nil {
		return fmt.Errorf("%w: store model: %v", apperr.ErrPersistence, err)
	}
	return nil
}

func maskSecret(secret string) string {
	runes := []rune(secret)
	if len(runes) <= 4 {
		return strings.Repeat("*", len(runes))
	}
	return strings.Repeat("*", len(runes)-4) + string(runes[len(runes)-4:])
}
