package records

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"sync"

	"record-sync/core/document"
	"record-sync/core/reconcile"
	"record-sync/core/store"
	"record-sync/core/storage"

	"go.uber.org/zap"
)

// ErrNoStorage is returned for object syncs when no storage client is configured.
var ErrNoStorage = errors.New("object storage is not configured")

// SyncOptions are the per-call overrides of a sync. Empty values fall back
// to the service Config.
type SyncOptions struct {
	LocalKey   string
	RemoteKey  string
	KeyType    string
	Coerce     bool
	Operations string
	// Scope is an expr-lang expression restricting the local records.
	Scope string
	// ScopeFields restricts the local records to rows whose column equals
	// the value. Digit values compare as integers and "null" as NULL.
	ScopeFields map[string]string
	// Fields overrides the remote field to column mapping.
	Fields map[string]string
	// DryRun computes the plan without writing anything.
	DryRun bool
}

// Service reconciles remote record documents into the local store.
// Calls for the same entity are serialized; different entities proceed in
// parallel.
type Service struct {
	store  store.Store
	client storage.Client
	bucket string
	cfg    Config
	logger *zap.Logger
	locks  entityLocks
}

// NewService creates a new records service. client may be nil when object
// storage is not used.
func NewService(st store.Store, client storage.Client, bucket string, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  st,
		client: client,
		bucket: bucket,
		cfg:    cfg,
		logger: logger,
		locks:  entityLocks{locks: make(map[string]*sync.Mutex)},
	}
}

// Request resolves the reconcile request of entity from opts and the defaults.
func (s *Service) Request(entity string, opts SyncOptions) (reconcile.Request, error) {
	keyType, err := reconcile.ParseKeyType(firstOf(opts.KeyType, s.cfg.KeyType))
	if err != nil {
		return reconcile.Request{}, err
	}
	ops, err := reconcile.ParseOperations(firstOf(opts.Operations, s.cfg.Operations))
	if err != nil {
		return reconcile.Request{}, err
	}

	var scopes []reconcile.Scope
	for _, field := range slices.Sorted(maps.Keys(opts.ScopeFields)) {
		scopes = append(scopes, reconcile.FieldEquals(field, scopeValue(opts.ScopeFields[field])))
	}
	if opts.Scope != "" {
		expr, err := reconcile.Expr(opts.Scope)
		if err != nil {
			return reconcile.Request{}, err
		}
		scopes = append(scopes, expr)
	}

	return reconcile.Request{
		Entity:    entity,
		LocalKey:  firstOf(opts.LocalKey, s.cfg.LocalKey, "remote_id"),
		RemoteKey: firstOf(opts.RemoteKey, s.cfg.RemoteKey, "id"),
		Key: reconcile.KeySpec{
			Type:   keyType,
			Coerce: opts.Coerce || s.cfg.Coerce,
		},
		Scope:      reconcile.And(scopes...),
		Operations: ops,
		Logger:     s.logger,
	}, nil
}

// Sync reconciles records into entity. Inserts and updates are written
// through the field mapper; unmatched local records are deleted when the
// operations allow it.
func (s *Service) Sync(ctx context.Context, entity string, records []reconcile.Record, opts SyncOptions) (*reconcile.Result, error) {
	req, err := s.Request(entity, opts)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(entity)
	defer unlock()

	log := s.logger.With(zap.String("entity", entity), zap.Bool("dry_run", opts.DryRun))

	if opts.DryRun {
		result, err := reconcile.Preview(ctx, s.store, records, req)
		if err != nil {
			return nil, err
		}
		logSummary(log, "Sync previewed", result)
		return result, nil
	}

	columns, err := s.store.Columns(ctx, entity)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect %s: %w", entity, err)
	}
	mapper := NewMapper(req.LocalKey, req.RemoteKey, firstOf(s.cfg.IDColumn, "id"), opts.Fields, columns)
	if !mapper.HasColumn(req.LocalKey) {
		return nil, fmt.Errorf("%w: %s has no column %s", reconcile.ErrInvalidRequest, entity, req.LocalKey)
	}

	callbacks := reconcile.Callbacks{
		OnInsert: func(ctx context.Context, ls reconcile.LocalStore, record reconcile.Record) error {
			w, err := writer(ls)
			if err != nil {
				return err
			}
			_, err = w.Insert(ctx, entity, mapper.Map(record))
			return err
		},
		OnUpdate: func(ctx context.Context, ls reconcile.LocalStore, record reconcile.Record, id reconcile.LocalID) error {
			w, err := writer(ls)
			if err != nil {
				return err
			}
			return w.Update(ctx, entity, id, mapper.Map(record))
		},
	}

	result, err := reconcile.Reconcile(ctx, s.store, records, req, callbacks)
	if err != nil {
		log.Error("Sync failed", zap.Error(err))
		return nil, err
	}
	logSummary(log, "Sync complete", result)
	return result, nil
}

// SyncObject fetches a record document from object storage and syncs it.
func (s *Service) SyncObject(ctx context.Context, entity, object, root string, opts SyncOptions) (*reconcile.Result, error) {
	if s.client == nil {
		return nil, ErrNoStorage
	}
	records, err := document.FetchObject(ctx, s.client, s.bucket, object, root)
	if err != nil {
		return nil, err
	}
	return s.Sync(ctx, entity, records, opts)
}

// Objects lists the record documents stored under prefix.
func (s *Service) Objects(ctx context.Context, prefix string) ([]string, error) {
	if s.client == nil {
		return nil, ErrNoStorage
	}
	return document.ListObjects(ctx, s.client, s.bucket, prefix)
}

// scopeValue types a textual scope value the way decoded keys are typed.
func scopeValue(v string) any {
	if v == "null" {
		return nil
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n
	}
	return v
}

func writer(ls reconcile.LocalStore) (store.Store, error) {
	w, ok := ls.(store.Store)
	if !ok {
		return nil, fmt.Errorf("store %T cannot write records", ls)
	}
	return w, nil
}

func logSummary(log *zap.Logger, msg string, result *reconcile.Result) {
	s := result.Summary
	log.Info(msg,
		zap.Int("remote", s.Remote),
		zap.Int("inserted", s.Inserted),
		zap.Int("updated", s.Updated),
		zap.Int("deleted", s.Deleted),
		zap.Int("skipped", s.Skipped),
		zap.Int("duplicates", s.Duplicates),
	)
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// entityLocks hands out one mutex per entity.
type entityLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (l *entityLocks) lock(entity string) func() {
	l.mu.Lock()
	m, ok := l.locks[entity]
	if !ok {
		m = &sync.Mutex{}
		l.locks[entity] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
