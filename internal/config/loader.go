package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/osvaldoandrade/schemaver/internal/domain"
	"github.com/spf13/viper"
)

const (
	EnvPrefix      = "SCHEMAVER"
	FileName       = "schemaver"
	DefaultTestDir = ".schemaver"
)

var ErrInvalidConfig = errors.New("invalid config")

type Database struct {
	Backend  domain.Backend
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	Fast     bool
}

type TestMode struct {
	Enabled bool
	Dir     string
}

type Log struct {
	Level  string
	Format string
}

type Config struct {
	Database Database
	TestMode TestMode
	Log      Log

	// Source is the config file that was read, empty when only defaults and env applied.
	Source string
}

func Default() Config {
	return Config{
		Database: Database{
			Backend: domain.DefaultBackend,
			Host:    "localhost",
			Port:    5432,
			User:    "postgres",
			DBName:  "schemaver",
			SSLMode: "disable",
		},
		TestMode: TestMode{Dir: DefaultTestDir},
		Log:      Log{Level: "info", Format: "text"},
	}
}

// Load reads path when given, otherwise an optional schemaver.yaml in the
// working directory, then applies SCHEMAVER_* environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range []string{
		"database.backend",
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.fast",
		"testmode.enabled",
		"testmode.dir",
		"log.level",
		"log.format",
	} {
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if strings.TrimSpace(path) != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		cfg.Source = v.ConfigFileUsed()
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		} else {
			cfg.Source = v.ConfigFileUsed()
		}
	}

	if v.IsSet("database.backend") {
		backend, err := domain.ParseBackend(v.GetString("database.backend"))
		if err != nil {
			return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		cfg.Database.Backend = backend
	}
	if v.IsSet("database.host") {
		cfg.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Database.SSLMode = v.GetString("database.sslmode")
	}
	if v.IsSet("database.fast") {
		cfg.Database.Fast = v.GetBool("database.fast")
	}
	if v.IsSet("testmode.enabled") {
		cfg.TestMode.Enabled = v.GetBool("testmode.enabled")
	}
	if v.IsSet("testmode.dir") {
		cfg.TestMode.Dir = v.GetString("testmode.dir")
	}
	if v.IsSet("log.level") {
		cfg.Log.Level = v.GetString("log.level")
	}
	if v.IsSet("log.format") {
		cfg.Log.Format = v.GetString("log.format")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if !c.Database.Backend.IsValid() {
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, c.Database.Backend)
	}
	if strings.TrimSpace(c.Database.DBName) == "" {
		return fmt.Errorf("%w: database.dbname required", ErrInvalidConfig)
	}
	if c.Database.Backend == domain.BackendPostgres && !c.TestMode.Enabled {
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			return fmt.Errorf("%w: database.port %d out of range", ErrInvalidConfig, c.Database.Port)
		}
	}
	if c.TestMode.Enabled && strings.TrimSpace(c.TestMode.Dir) == "" {
		return fmt.Errorf("%w: testmode.dir required", ErrInvalidConfig)
	}
	return nil
}
