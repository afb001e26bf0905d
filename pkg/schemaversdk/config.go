package schemaversdk

import (
	"log/slog"
	"strings"

	"github.com/osvaldoandrade/schemaver/internal/config"
	"github.com/osvaldoandrade/schemaver/internal/domain"
)

type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendSQLite   Backend = "sqlite"
)

// DefaultSchemaCollection holds schema records unless Config.Collection says otherwise.
const DefaultSchemaCollection = "schemas"

// Config selects the document store behind a Client.
type Config struct {
	Backend  Backend
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	Fast     bool

	// TestMode swaps the configured backend for the embedded sqlite file in TestModeDir.
	TestMode    bool
	TestModeDir string

	Collection string
	Logger     *slog.Logger
}

func DefaultConfig() Config {
	return fromInternal(config.Default())
}

// LoadConfig reads a schemaver.yaml file and SCHEMAVER_* environment overrides.
func LoadConfig(path string) (Config, error) {
	loaded, err := config.Load(path)
	if err != nil {
		return Config{}, err
	}
	return fromInternal(loaded), nil
}

func fromInternal(cfg config.Config) Config {
	return Config{
		Backend:     Backend(cfg.Database.Backend),
		Host:        cfg.Database.Host,
		Port:        cfg.Database.Port,
		User:        cfg.Database.User,
		Password:    cfg.Database.Password,
		DBName:      cfg.Database.DBName,
		SSLMode:     cfg.Database.SSLMode,
		Fast:        cfg.Database.Fast,
		TestMode:    cfg.TestMode.Enabled,
		TestModeDir: cfg.TestMode.Dir,
		Collection:  DefaultSchemaCollection,
	}
}

func normalizeConfig(cfg Config) (config.Config, error) {
	out := config.Default()
	if cfg.Backend != "" {
		backend, err := domain.ParseBackend(string(cfg.Backend))
		if err != nil {
			return config.Config{}, err
		}
		out.Database.Backend = backend
	}
	if strings.TrimSpace(cfg.Host) != "" {
		out.Database.Host = cfg.Host
	}
	if cfg.Port != 0 {
		out.Database.Port = cfg.Port
	}
	if cfg.User != "" {
		out.Database.User = cfg.User
	}
	out.Database.Password = cfg.Password
	if strings.TrimSpace(cfg.DBName) != "" {
		out.Database.DBName = cfg.DBName
	}
	if cfg.SSLMode != "" {
		out.Database.SSLMode = cfg.SSLMode
	}
	out.Database.Fast = cfg.Fast
	out.TestMode.Enabled = cfg.TestMode
	if strings.TrimSpace(cfg.TestModeDir) != "" {
		out.TestMode.Dir = cfg.TestModeDir
	}
	if err := out.Validate(); err != nil {
		return config.Config{}, err
	}
	return out, nil
}
