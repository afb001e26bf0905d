package pgstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/osvaldoandrade/schemaver/internal/app/dbcontext"
	"github.com/osvaldoandrade/schemaver/internal/domain"
)

const documentsTable = "schemaver_documents"

// Config holds the connection settings for the networked store.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int32
}

func DefaultConfig() Config {
	return Config{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		DBName:   "schemaver",
		SSLMode:  "disable",
		MaxConns: 4,
	}
}

// DSN renders the config as a postgres URL.
func (c Config) DSN() string {
	dsn := url.URL{
		Scheme: "postgres",
		Host:   c.Host + ":" + strconv.Itoa(c.Port),
		Path:   "/" + c.DBName,
	}
	if c.Password != "" {
		dsn.User = url.UserPassword(c.User, c.Password)
	} else if c.User != "" {
		dsn.User = url.User(c.User)
	}
	query := url.Values{}
	if c.SSLMode != "" {
		query.Set("sslmode", c.SSLMode)
	}
	dsn.RawQuery = query.Encode()
	return dsn.String()
}

type IDGenerator interface {
	NewID() (string, error)
}

// Opener connects to postgres for every scoped handle.
type Opener struct {
	Config Config
	IDs    IDGenerator
	Logger *slog.Logger
}

func (o Opener) Open(ctx context.Context) (dbcontext.Handle, error) {
	return Connect(ctx, o.Config.DSN(), o.Config.MaxConns, o.IDs, o.Logger)
}

type Store struct {
	pool   *pgxpool.Pool
	ids    IDGenerator
	logger *slog.Logger
}

func Connect(ctx context.Context, dsn string, maxConns int32, ids IDGenerator, logger *slog.Logger) (*Store, error) {
	if ids == nil {
		return nil, errors.New("postgres id generator required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	if maxConns > 0 {
		poolConfig.MaxConns = maxConns
	}
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &Store{pool: pool, ids: ids, logger: logger}
	if err := store.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	logger.Debug("postgres store connected", slog.String("host", poolConfig.ConnConfig.Host))
	return store, nil
}

func (s *Store) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}

func (s *Store) Collection(name string) (dbcontext.Collection, error) {
	if !domain.IsValidCollectionName(name) {
		return nil, fmt.Errorf("%w: %q", dbcontext.ErrInvalidCollectionName, name)
	}
	return &collection{store: s, name: name}, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS `+documentsTable+` (
			seq BIGSERIAL PRIMARY KEY,
			doc_id TEXT NOT NULL UNIQUE,
			collection TEXT NOT NULL,
			payload JSONB NOT NULL,
			inserted_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`); err != nil {
		return fmt.Errorf("create documents table: %w", err)
	}
	if _, err := s.pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS `+documentsTable+`_collection_idx
		ON `+documentsTable+` (collection, seq)
	`); err != nil {
		return fmt.Errorf("create collection index: %w", err)
	}
	return nil
}

// withTx runs fn inside a transaction, rolling back on error or panic.
func (s *Store) withTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if err := tx.Rollback(ctx); err != nil {
				s.logger.Error("rollback transaction", slog.Any("error", err))
			}
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
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
		payload, err := encodePayload(doc)
		if err != nil {
			return nil, err
		}
		payloads = append(payloads, payload)
	}

	ids := make([]string, 0, len(payloads))
	err := c.store.withTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, payload := range payloads {
			id, err := c.store.ids.NewID()
			if err != nil {
				return err
			}
			batch.Queue(insertQuery(), id, c.name, string(payload))
			ids = append(ids, id)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return nil, fmt.Errorf("insert documents: %w", err)
	}
	return ids, nil
}

func (c *collection) Find(ctx context.Context, filter domain.Document) ([]domain.Document, error) {
	containment, err := encodePayload(filter)
	if err != nil {
		return nil, err
	}

	rows, err := c.store.pool.Query(ctx, findQuery(), c.name, string(containment))
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
		// Containment admits supersets of nested filter values; exact match is checked here.
		if domain.Matches(doc, filter) {
			docs = append(docs, doc)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

func insertQuery() string {
	return "INSERT INTO " + documentsTable + " (doc_id, collection, payload) VALUES ($1, $2, $3::jsonb)"
}

func findQuery() string {
	return "SELECT payload::text FROM " + documentsTable + " WHERE collection = $1 AND payload @> $2::jsonb ORDER BY seq"
}

func encodePayload(doc domain.Document) ([]byte, error) {
	if doc == nil {
		doc = domain.Document{}
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return payload, nil
}
