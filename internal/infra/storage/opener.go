package storage

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/osvaldoandrade/schemaver/internal/app/dbcontext"
	"github.com/osvaldoandrade/schemaver/internal/app/paths"
	"github.com/osvaldoandrade/schemaver/internal/config"
	"github.com/osvaldoandrade/schemaver/internal/domain"
	"github.com/osvaldoandrade/schemaver/internal/infra/canonicaljson"
	"github.com/osvaldoandrade/schemaver/internal/infra/ident"
	"github.com/osvaldoandrade/schemaver/internal/infra/pgstore"
	"github.com/osvaldoandrade/schemaver/internal/infra/sqlitestore"
)

// NewOpener picks the document store for cfg. Test mode always selects the
// embedded sqlite file under the test directory.
func NewOpener(cfg config.Config, logger *slog.Logger) (dbcontext.Opener, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ids := ident.NewULIDGenerator()
	backend := domain.NormalizeBackend(cfg.Database.Backend)
	if cfg.TestMode.Enabled {
		backend = domain.BackendSQLite
	}

	switch backend {
	case domain.BackendSQLite:
		path, err := SQLitePath(cfg)
		if err != nil {
			return nil, err
		}
		logger.Debug("using sqlite store", slog.String("path", path), slog.Bool("testmode", cfg.TestMode.Enabled))
		return sqlitestore.Opener{
			Path: path,
			Options: sqlitestore.OpenOptions{
				Fast:          cfg.Database.Fast,
				Canonicalizer: canonicaljson.Canonicalizer{},
				IDs:           ids,
			},
		}, nil
	case domain.BackendPostgres:
		pg := pgstore.DefaultConfig()
		pg.Host = cfg.Database.Host
		pg.Port = cfg.Database.Port
		pg.User = cfg.Database.User
		pg.Password = cfg.Database.Password
		pg.DBName = cfg.Database.DBName
		pg.SSLMode = cfg.Database.SSLMode
		logger.Debug("using postgres store", slog.String("host", pg.Host), slog.String("dbname", pg.DBName))
		return pgstore.Opener{Config: pg, IDs: ids, Logger: logger}, nil
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", config.ErrInvalidConfig, backend)
	}
}

// SQLitePath is the database file used by the embedded store.
func SQLitePath(cfg config.Config) (string, error) {
	dir := cfg.TestMode.Dir
	if dir == "" {
		dir = config.DefaultTestDir
	}
	absDir, err := paths.NormalizeDir(dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(absDir, cfg.Database.DBName+".db"), nil
}
