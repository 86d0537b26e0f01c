package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/brilliance/launcher-gateway/internal/domain/catalog"
	"github.com/brilliance/launcher-gateway/internal/domain/conversation"
	"github.com/brilliance/launcher-gateway/internal/domain/credential"
	"github.com/brilliance/launcher-gateway/internal/domain/settings"
	"github.com/brilliance/launcher-gateway/internal/logger"
	"github.com/brilliance/launcher-gateway/internal/utils"
)

// DatabaseService opens the gateway's database. The driver is selected by
// DB_DRIVER: "postgres" for deployments, "sqlite" for single-box installs
// sharing the host CMS's file database.
type DatabaseService struct {
	db     *gorm.DB
	driver string
	log    *logger.Logger
}

func NewDatabaseService(log *logger.Logger) (*DatabaseService, error) {
	serviceLog := log.With("service", "DatabaseService")

	driver := utils.GetEnv("DB_DRIVER", "postgres", log)
	var (
		db  *gorm.DB
		err error
	)
	switch driver {
	case "postgres":
		dsn := utils.GetEnv("DATABASE_URL", "", log)
		if dsn == "" {
			host := utils.GetEnv("POSTGRES_HOST", "localhost", log)
			port := utils.GetEnv("POSTGRES_PORT", "5432", log)
			user := utils.GetEnv("POSTGRES_USER", "postgres", log)
			password := utils.GetEnv("POSTGRES_PASSWORD", "", log)
			name := utils.GetEnv("POSTGRES_NAME", "launcher", log)
			dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)
		}

		log.Info("Connecting to Postgres...")
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
		})
	case "sqlite":
		path := utils.GetEnv("SQLITE_PATH", "launcher.db", log)
		log.Info("Opening SQLite database...", "path", path)
		db, err = gorm.Open(sqlite.Open(path), &gorm.Config{})
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
	if err != nil {
		log.Error("Failed to connect to database", "driver", driver, "error", err)
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	return &DatabaseService{db: db, driver: driver, log: serviceLog}, nil
}

func (s *DatabaseService) AutoMigrateAll() error {
	s.log.Info("Auto migrating gateway tables...")
	err := s.db.AutoMigrate(
		&conversation.Thread{},
		&conversation.Message{},
		&credential.ProviderCredential{},
		&settings.Settings{},
		&catalog.Section{},
		&catalog.EntryType{},
		&catalog.Field{},
		&catalog.EntryTypeField{},
		&catalog.Entry{},
		&catalog.CategoryGroup{},
		&catalog.Category{},
		&catalog.AssetVolume{},
		&catalog.Asset{},
		&catalog.GlobalSet{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for gateway tables", "error", err)
		return err
	}
	return nil
}

func (s *DatabaseService) DB() *gorm.DB { return s.db }

func (s *DatabaseService) Driver() string { return s.driver }
