package credential

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/brilliance/launcher-gateway/internal/domain/credential"
	"github.com/brilliance/launcher-gateway/internal/logger"
	"github.com/brilliance/launcher-gateway/internal/pkg/dbctx"
)

type Repo interface {
	// Get returns nil (no error) when no record exists for the provider.
	Get(dbc dbctx.Context, provider string) (*credential.ProviderCredential, error)
	Upsert(dbc dbctx.Context, row *credential.ProviderCredential) error
}

type repo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRepo(db *gorm.DB, log *logger.Logger) Repo {
	return &repo{db: db, log: log.With("repo", "CredentialRepo")}
}

func (r *repo) Get(dbc dbctx.Context, provider string) (*credential.ProviderCredential, error) {
	if provider == "" {
		return nil, fmt.Errorf("missing provider")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out credential.ProviderCredential
	err := txx.WithContext(dbc.Ctx).
		Where("provider = ?", provider).
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *repo) Upsert(dbc dbctx.Context, row *credential.ProviderCredential) error {
	if row == nil || row.Provider == "" {
		return fmt.Errorf("missing provider")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider"}},
			DoUpdates: clause.AssignmentColumns([]string{"secret", "model", "updated_at"}),
		}).
		Create(row).Error
}
