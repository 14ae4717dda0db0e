package inmemdb

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/whenitsdone1/capstone2024/core/milestone"
)

const timeLayout = "2006-01-02 15:04:05.000Z"

type (
	collection struct {
		meta    milestone.Collection
		records map[string]milestone.Record
	}

	// DB is an in-process stand-in for the hosted record backend.
	DB struct {
		mutex       sync.RWMutex
		identity    string
		password    string
		collections map[string]*collection // by name
		down        bool
		authCount   int // successful authentications
	}

	session struct {
		db *DB
	}
)

var (
	_ milestone.Backend = (*DB)(nil)
	_ milestone.Session = (*session)(nil)
)

// NewDB returns an empty store accepting the given admin credentials.
func NewDB(identity, password string) *DB {
	return &DB{
		identity:    identity,
		password:    password,
		collections: make(map[string]*collection),
	}
}

// SetDown makes every call fail as if the backend was unreachable.
func (db *DB) SetDown(down bool) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.down = down
}

// AuthCount returns the number of successful authentications.
func (db *DB) AuthCount() int {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	return db.authCount
}

func (db *DB) Health(_ context.Context) error {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	if db.down {
		return milestone.NewBackendError(503, "backend is down")
	}
	return nil
}

func (db *DB) Authenticate(ctx context.Context) (milestone.Session, error) {
	if err := db.Health(ctx); err != nil {
		return nil, err
	}
	db.mutex.Lock()
	defer db.mutex.Unlock()
	if db.identity == "" || db.password == "" {
		return nil, errors.Wrap(milestone.ErrAuthentication, "missing admin credentials")
	}
	db.authCount++
	return &session{db: db}, nil
}

// WithCredentials returns a backend view checking a different password against the same data.
func (db *DB) WithCredentials(identity, password string) milestone.Backend {
	return &credentialCheck{db: db, identity: identity, password: password}
}

type credentialCheck struct {
	db                 *DB
	identity, password string
}

func (c *credentialCheck) Health(ctx context.Context) error { return c.db.Health(ctx) }

func (c *credentialCheck) Authenticate(ctx context.Context) (milestone.Session, error) {
	if c.identity != c.db.identity || c.password != c.db.password {
		return nil, errors.Wrap(milestone.ErrAuthentication, "invalid credentials")
	}
	return c.db.Authenticate(ctx)
}

func now() string {
	return time.Now().UTC().Format(timeLayout)
}

func copyRecord(r milestone.Record) milestone.Record {
	out := make(milestone.Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func (s *session) ListCollections(_ context.Context) ([]milestone.Collection, error) {
	s.db.mutex.RLock()
	defer s.db.mutex.RUnlock()

	cols := make([]milestone.Collection, 0, len(s.db.collections))
	for _, c := range s.db.collections {
		cols = append(cols, c.meta)
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i].Name < cols[j].Name })
	return cols, nil
}

func (s *session) CreateCollection(_ context.Context, c milestone.Collection) (milestone.Collection, error) {
	s.db.mutex.Lock()
	defer s.db.mutex.Unlock()

	if _, ok := s.db.collections[c.Name]; ok {
		return milestone.Collection{}, milestone.NewBackendError(400, `{"name":{"code":"validation_collection_name_exists"}}`)
	}
	c.ID = uuid.New().String()
	s.db.collections[c.Name] = &collection{meta: c, records: make(map[string]milestone.Record)}
	return c, nil
}

func (s *session) UpdateCollection(_ context.Context, id string, c milestone.Collection) (milestone.Collection, error) {
	s.db.mutex.Lock()
	defer s.db.mutex.Unlock()

	for name, col := range s.db.collections {
		if col.meta.ID != id {
			continue
		}
		c.ID = id
		if c.Name == "" {
			c.Name = name
		}
		col.meta = c
		if c.Name != name {
			delete(s.db.collections, name)
			s.db.collections[c.Name] = col
		}
		return c, nil
	}
	return milestone.Collection{}, milestone.ErrNotFound
}

func (s *session) getCollection(name string) (*collection, error) {
	col, ok := s.db.collections[name]
	if !ok {
		return nil, milestone.ErrNotFound
	}
	return col, nil
}

// keep drops the keys outside the collection schema, as the hosted backend does.
func (col *collection) keep(data milestone.Record) milestone.Record {
	out := make(milestone.Record, len(data))
	for _, f := range col.meta.Schema {
		if v, ok := data[f.Name]; ok {
			out[f.Name] = v
		}
	}
	return out
}

func (s *session) CreateRecord(_ context.Context, name string, data milestone.Record) (milestone.Record, error) {
	s.db.mutex.Lock()
	defer s.db.mutex.Unlock()

	col, err := s.getCollection(name)
	if err != nil {
		return nil, err
	}
	for _, f := range col.meta.Schema {
		if f.Required {
			if v, ok := data[f.Name]; !ok || v == nil || v == "" {
				return nil, milestone.NewBackendError(400, `{"`+f.Name+`":{"code":"validation_required"}}`)
			}
		}
	}

	rec := col.keep(data)
	rec["id"] = strings.ReplaceAll(uuid.New().String(), "-", "")[:15]
	rec["collectionId"] = col.meta.ID
	rec["collectionName"] = col.meta.Name
	rec["created"] = now()
	rec["updated"] = rec["created"]
	col.records[rec.ID()] = rec
	return copyRecord(rec), nil
}

func (s *session) GetRecord(_ context.Context, name, id string) (milestone.Record, error) {
	s.db.mutex.RLock()
	defer s.db.mutex.RUnlock()

	col, err := s.getCollection(name)
	if err != nil {
		return nil, err
	}
	rec, ok := col.records[id]
	if !ok {
		return nil, milestone.ErrNotFound
	}
	return copyRecord(rec), nil
}

func (s *session) UpdateRecord(_ context.Context, name, id string, data milestone.Record) (milestone.Record, error) {
	s.db.mutex.Lock()
	defer s.db.mutex.Unlock()

	col, err := s.getCollection(name)
	if err != nil {
		return nil, err
	}
	rec, ok := col.records[id]
	if !ok {
		return nil, milestone.ErrNotFound
	}
	for k, v := range col.keep(data) {
		rec[k] = v
	}
	rec["updated"] = now()
	return copyRecord(rec), nil
}

func (s *session) DeleteRecord(_ context.Context, name, id string) error {
	s.db.mutex.Lock()
	defer s.db.mutex.Unlock()

	col, err := s.getCollection(name)
	if err != nil {
		return err
	}
	if _, ok := col.records[id]; !ok {
		return milestone.ErrNotFound
	}
	delete(col.records, id)
	return nil
}

func (s *session) ListRecords(_ context.Context, name string) ([]milestone.Record, error) {
	s.db.mutex.RLock()
	defer s.db.mutex.RUnlock()

	col, err := s.getCollection(name)
	if err != nil {
		return nil, err
	}
	recs := make([]milestone.Record, 0, len(col.records))
	for _, r := range col.records {
		recs = append(recs, copyRecord(r))
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].String("created") < recs[j].String("created") })
	return recs, nil
}
