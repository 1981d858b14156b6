package config

import (
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"match-reconciliation-backend/internal/logger"
	"match-reconciliation-backend/internal/models"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// AppConfig holds everything read from the environment or a config file.
type AppConfig struct {
	Port          string
	DBDriver      string
	DatabaseURL   string
	LogLevel      string
	LogFormat     string
	CORSOrigins   []string
	StatsCacheTTL time.Duration
	MaxUploadMB   int64
	SearchLimit   int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("db_driver", DriverPostgres)
	v.SetDefault("database_url", "host=localhost user=postgres password=postgres dbname=reconciliation port=5432 sslmode=disable")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("cors_origins", "http://localhost:3000")
	v.SetDefault("stats_cache_ttl", "30s")
	v.SetDefault("max_upload_mb", 20)
	v.SetDefault("search_limit", 10)
}

// Load reads .env (when present), the optional config file and the process
// environment, in increasing order of precedence.
func Load(configFile string) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		logger.L.Debug("no .env file found, relying on system env")
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "reading config file %s", configFile)
		}
	}

	cfg := &AppConfig{
		Port:          v.GetString("port"),
		DBDriver:      strings.ToLower(v.GetString("db_driver")),
		DatabaseURL:   v.GetString("database_url"),
		LogLevel:      v.GetString("log_level"),
		LogFormat:     v.GetString("log_format"),
		CORSOrigins:   splitList(v.GetString("cors_origins")),
		StatsCacheTTL: v.GetDuration("stats_cache_ttl"),
		MaxUploadMB:   v.GetInt64("max_upload_mb"),
		SearchLimit:   v.GetInt("search_limit"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) Validate() error {
	switch c.DBDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return errors.Errorf("unsupported DB_DRIVER %q (want postgres or sqlite)", c.DBDriver)
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.MaxUploadMB <= 0 {
		return errors.Errorf("MAX_UPLOAD_MB must be positive, got %d", c.MaxUploadMB)
	}
	if c.SearchLimit <= 0 {
		return errors.Errorf("SEARCH_LIMIT must be positive, got %d", c.SearchLimit)
	}
	return nil
}

// InitDB opens the configured database and migrates the schema.
func InitDB(cfg *AppConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case DriverSQLite:
		dialector = sqlite.Open(cfg.DatabaseURL)
	default:
		dialector = postgres.Open(cfg.DatabaseURL)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s database", cfg.DBDriver)
	}

	if cfg.DBDriver == DriverSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	logger.WithComponent("db").WithField("driver", cfg.DBDriver).Info("database ready")
	return db, nil
}

// Migrate creates or updates every table the service uses.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.BankRecord{},
		&models.SaleRecord{},
		&models.Match{},
		&models.MatchAuditLog{},
		&models.ImportBatch{},
	)
	if err != nil {
		return errors.Wrap(err, "migrating schema")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
