package schemaversdk

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/osvaldoandrade/schemaver/internal/app/dbcontext"
	latestapp "github.com/osvaldoandrade/schemaver/internal/app/latest"
	publishapp "github.com/osvaldoandrade/schemaver/internal/app/publish"
	"github.com/osvaldoandrade/schemaver/internal/infra/canonicaljson"
	"github.com/osvaldoandrade/schemaver/internal/infra/hash"
	"github.com/osvaldoandrade/schemaver/internal/infra/jsonpatch"
	"github.com/osvaldoandrade/schemaver/internal/infra/schema"
	"github.com/osvaldoandrade/schemaver/internal/infra/storage"
	"github.com/osvaldoandrade/schemaver/internal/platform"
)

// Handle is a store connection scoped to one Client.Do call.
type Handle = dbcontext.Handle

// Store is a named collection inside a Handle.
type Store = dbcontext.Collection

type PublishRequest struct {
	Name   string
	Group  string
	Schema Document
	DryRun bool
	// SkipValidation publishes documents that do not compile as JSON Schema.
	SkipValidation bool
}

type PublishResult struct {
	Severity        Update
	PreviousVersion string
	Version         string
	Changes         []Change
	MergePatch      []byte
	Fingerprint     string
	PublishedAt     time.Time
	Stored          bool
	ID              string
}

// Client runs schema operations against the configured document store.
type Client struct {
	collection string
	manager    *dbcontext.Manager
	latest     *latestapp.Service
	strict     *publishapp.Service
	lenient    *publishapp.Service

	mu     sync.Mutex
	closed bool
}

// Open resolves the backend from cfg and checks that a handle can be acquired.
func Open(ctx context.Context, cfg Config) (*Client, error) {
	resolved, err := normalizeConfig(cfg)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	storeLogger := platform.Component(logger, "store")
	opener, err := storage.NewOpener(resolved, storeLogger)
	if err != nil {
		return nil, err
	}

	collection := strings.TrimSpace(cfg.Collection)
	if collection == "" {
		collection = DefaultSchemaCollection
	}

	publishLogger := platform.Component(logger, "publish")
	differ := jsonpatch.Differ{}
	fingerprinter := hash.Fingerprinter{Canonicalizer: canonicaljson.Canonicalizer{}}
	client := &Client{
		collection: collection,
		manager:    dbcontext.NewManager(opener, storeLogger),
		latest:     latestapp.NewService(),
		strict:     publishapp.NewService(schema.JSONSchemaValidator{}, differ, fingerprinter, platform.RealClock{}, publishLogger),
		lenient:    publishapp.NewService(nil, differ, fingerprinter, platform.RealClock{}, publishLogger),
	}

	if err := client.manager.Do(ctx, func(Handle) error { return nil }); err != nil {
		return nil, err
	}
	return client, nil
}

// Close marks the client unusable. Handles are released by each call.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

// Do runs fn with a handle that is closed when fn returns or panics.
func (c *Client) Do(ctx context.Context, fn func(Handle) error) error {
	if err := c.ensureOpen(); err != nil {
		return err
	}
	return c.manager.Do(ctx, fn)
}

// WithCollection runs fn against one collection of a scoped handle.
func (c *Client) WithCollection(ctx context.Context, name string, fn func(Store) error) error {
	if err := c.ensureOpen(); err != nil {
		return err
	}
	return c.manager.WithCollection(ctx, name, fn)
}

func (c *Client) Insert(ctx context.Context, collection string, docs ...Document) ([]string, error) {
	var ids []string
	err := c.WithCollection(ctx, collection, func(store Store) error {
		var err error
		ids, err = store.Insert(ctx, docs...)
		return err
	})
	return ids, err
}

func (c *Client) Find(ctx context.Context, collection string, filter Document) ([]Document, error) {
	var docs []Document
	err := c.WithCollection(ctx, collection, func(store Store) error {
		var err error
		docs, err = store.Find(ctx, filter)
		return err
	})
	return docs, err
}

// FindOne returns the first match and whether there was one.
func (c *Client) FindOne(ctx context.Context, collection string, filter Document) (Document, bool, error) {
	var doc Document
	var found bool
	err := c.WithCollection(ctx, collection, func(store Store) error {
		var err error
		doc, found, err = dbcontext.FindOne(ctx, store, filter)
		return err
	})
	return doc, found, err
}

// Latest returns the highest stored version of name within group.
func (c *Client) Latest(ctx context.Context, name, group string) (Record, error) {
	var record Record
	err := c.WithCollection(ctx, c.collection, func(store Store) error {
		var err error
		record, err = c.latest.Fetch(ctx, name, group, store)
		return err
	})
	return record, err
}

// Publish stores req.Schema under the version its changes call for.
func (c *Client) Publish(ctx context.Context, req PublishRequest) (PublishResult, error) {
	service := c.strict
	if req.SkipValidation {
		service = c.lenient
	}

	var result publishapp.Result
	err := c.WithCollection(ctx, c.collection, func(store Store) error {
		var err error
		result, err = service.Publish(ctx, store, publishapp.Request{
			Name:   req.Name,
			Group:  req.Group,
			Schema: req.Schema,
			DryRun: req.DryRun,
		})
		return err
	})
	if err != nil {
		return PublishResult{}, err
	}
	return PublishResult{
		Severity:        result.Severity,
		PreviousVersion: result.PreviousVersion,
		Version:         result.Version,
		Changes:         result.Changes,
		MergePatch:      result.MergePatch,
		Fingerprint:     result.Fingerprint,
		PublishedAt:     result.PublishedAt,
		Stored:          result.Stored,
		ID:              result.ID,
	}, nil
}

func (c *Client) ensureOpen() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	return nil
}
