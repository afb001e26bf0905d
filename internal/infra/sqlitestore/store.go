package sqlitestore

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/osvaldoandrade/schemaver/internal/app/dbcontext"
	"github.com/osvaldoandrade/schemaver/internal/domain"
	_ "modernc.org/sqlite"
)

type Canonicalizer interface {
	Canonicalize(ctx context.Context, input []byte) ([]byte, error)
}

type IDGenerator interface {
	NewID() (string, error)
}

type OpenOptions struct {
	Fast          bool
	Canonicalizer Canonicalizer
	IDs           IDGenerator
}

// Opener opens the embedded file-backed store used in test mode.
type Opener struct {
	Path    string
	Options OpenOptions
}

func (o Opener) Open(ctx context.Context) (dbcontext.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return OpenWithOptions(o.Path, o.Options)
}

type Store struct {
	db            *sql.DB
	canonicalizer Canonicalizer
	ids           IDGenerator

	mu         sync.Mutex
	tableCache map[string]string
}

func Open(path string) (*Store, error) {
	return OpenWithOptions(path, OpenOptions{})
}

func OpenWithOptions(path string, opts OpenOptions) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path required")
	}
	if opts.IDs == nil {
		return nil, errors.New("sqlite id generator required")
	}

	if shouldCreateDir(path) {
		dir := filepath.Dir(path)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &Store{
		db:            db,
		canonicalizer: opts.Canonicalizer,
		ids:           opts.IDs,
		tableCache:    make(map[string]string),
	}
	if err := store.applyPragmas(context.Background(), opts); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Collection(name string) (dbcontext.Collection, error) {
	if !domain.IsValidCollectionName(name) {
		return nil, fmt.Errorf("%w: %q", dbcontext.ErrInvalidCollectionName, name)
	}
	return &collection{store: s, name: name}, nil
}

// Collections lists registered collection names in creation order.
func (s *Store) Collections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT collection FROM collection_registry ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate collections: %w", err)
	}
	return names, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS collection_registry (
			collection TEXT PRIMARY KEY,
			table_name TEXT NOT NULL UNIQUE
		)
	`); err != nil {
		return fmt.Errorf("create collection registry: %w", err)
	}
	return nil
}

func (s *Store) applyPragmas(ctx context.Context, opts OpenOptions) error {
	if !opts.Fast {
		return nil
	}
	var mode string
	if err := s.db.QueryRowContext(ctx, "PRAGMA journal_mode = WAL").Scan(&mode); err != nil {
		return fmt.Errorf("set journal_mode: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA synchronous = NORMAL"); err != nil {
		return fmt.Errorf("set synchronous: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA temp_store = MEMORY"); err != nil {
		return fmt.Errorf("set temp_store: %w", err)
	}
	return nil
}

type collection struct {
	store *Store
	name  string
}

func (c *collection) Insert(ctx context.Context, docs ...domain.Document) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	payloads := make([][]byte, 0, len(docs))
	for _, doc := range docs {
		payload, err := c.store.encode(ctx, doc)
		if err != nil {
			return nil, err
		}
		payloads = append(payloads, payload)
	}

	tx, err := c.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin insert transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	tableName, err := c.store.ensureCollection(ctx, tx, c.name)
	if err != nil {
		return nil, err
	}

	stmt := fmt.Sprintf("INSERT INTO %s (doc_id, payload, inserted_at) VALUES (?, ?, ?)", quoteIdent(tableName))
	now := time.Now().UTC().UnixNano()
	ids := make([]string, 0, len(payloads))
	for _, payload := range payloads {
		id, err := c.store.ids.NewID()
		if err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx, stmt, id, payload, now); err != nil {
			return nil, fmt.Errorf("insert document: %w", err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit insert: %w", err)
	}
	c.store.cacheTable(c.name, tableName)
	return ids, nil
}

func (c *collection) Find(ctx context.Context, filter domain.Document) ([]domain.Document, error) {
	tableName, found, err := c.store.lookupCollection(ctx, c.name)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	query := fmt.Sprintf("SELECT payload FROM %s ORDER BY seq", quoteIdent(tableName))
	rows, err := c.store.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		var doc domain.Document
		if err := json.Unmarshal(payload, &doc); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		if domain.Matches(doc, filter) {
			docs = append(docs, doc)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

func (s *Store) encode(ctx context.Context, doc domain.Document) ([]byte, error) {
	if doc == nil {
		doc = domain.Document{}
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	if s.canonicalizer == nil {
		return payload, nil
	}
	return s.canonicalizer.Canonicalize(ctx, payload)
}

func (s *Store) ensureCollection(ctx context.Context, tx *sql.Tx, name string) (string, error) {
	var tableName string
	err := tx.QueryRowContext(ctx, "SELECT table_name FROM collection_registry WHERE collection = ?", name).Scan(&tableName)
	if err == nil {
		return tableName, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("lookup collection: %w", err)
	}

	tableName = tableNameForCollection(name)
	stmt := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			doc_id TEXT NOT NULL UNIQUE,
			payload BLOB NOT NULL,
			inserted_at INTEGER NOT NULL
		)
	`, quoteIdent(tableName))
	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return "", fmt.Errorf("create collection table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO collection_registry (collection, table_name) VALUES (?, ?)", name, tableName); err != nil {
		return "", fmt.Errorf("register collection: %w", err)
	}
	return tableName, nil
}

func (s *Store) lookupCollection(ctx context.Context, name string) (string, bool, error) {
	s.mu.Lock()
	tableName, ok := s.tableCache[name]
	s.mu.Unlock()
	if ok {
		return tableName, true, nil
	}

	err := s.db.QueryRowContext(ctx, "SELECT table_name FROM collection_registry WHERE collection = ?", name).Scan(&tableName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("lookup collection: %w", err)
	}
	s.cacheTable(name, tableName)
	return tableName, true, nil
}

func (s *Store) cacheTable(name, tableName string) {
	s.mu.Lock()
	s.tableCache[name] = tableName
	s.mu.Unlock()
}

// tableNameForCollection hashes the name into lowercase hex. SQLite folds
// identifier case, so the raw name would let "Schemas" and "schemas" share a table.
func tableNameForCollection(collection string) string {
	sum := sha256.Sum256([]byte(collection))
	return "collection_" + hex.EncodeToString(sum[:16])
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func shouldCreateDir(path string) bool {
	if path == ":memory:" {
		return false
	}
	if strings.HasPrefix(path, "file:") {
		return false
	}
	return true
}
