package settings

import (
	"errors"

	"gorm.io/gorm"

	"github.com/brilliance/launcher-gateway/internal/domain/settings"
	"github.com/brilliance/launcher-gateway/internal/logger"
	"github.com/brilliance/launcher-gateway/internal/pkg/dbctx"
	"github.com/brilliance/launcher-gateway/internal/utils"
)

type Repo interface {
	// Get returns the single settings row, materializing a default one on
	// first access.
	Get(dbc dbctx.Context) (*settings.Settings, error)
	Save(dbc dbctx.Context, row *settings.Settings) error
}

type repo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRepo(db *gorm.DB, log *logger.Logger) Repo {
	return &repo{db: db, log: log.With("repo", "SettingsRepo")}
}

func (r *repo) Get(dbc dbctx.Context) (*settings.Settings, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out settings.Settings
	err := txx.WithContext(dbc.Ctx).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// First access materializes the row; the env can override the
		// starting limits.
		out = settings.Settings{
			DefaultProvider: settings.DefaultProvider,
			MaxHistory:      utils.GetEnvAsInt("AGENT_MAX_HISTORY", settings.DefaultMaxHistory, r.log),
			MaxToolRounds:   utils.GetEnvAsInt("AGENT_MAX_TOOL_ROUNDS", settings.DefaultMaxToolRounds, r.log),
		}
		if err := txx.WithContext(dbc.Ctx).Create(&out).Error; err != nil {
			return nil, err
		}
		return &out, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *repo) Save(dbc dbctx.Context, row *settings.Settings) error {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).Save(row).Error
}
