package http

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/codetrack-hub/codetrack-backend/internal/domain/group"
	"github.com/codetrack-hub/codetrack-backend/internal/domain/notification"
	"github.com/codetrack-hub/codetrack-backend/internal/domain/shared"
	"github.com/codetrack-hub/codetrack-backend/internal/domain/student"
)

// memRegistry is an in-memory group.Registry. Sync times are recorded by the
// stats store on snapshot writes, so LastUpdatePerGroup reports nil ChangedAt
// for groups that were never synced, like the real repository does.
type memRegistry struct {
	mu     sync.Mutex
	groups map[string]*group.Group
	synced map[string]time.Time
}

func newMemRegistry() *memRegistry {
	return &memRegistry{
		groups: make(map[string]*group.Group),
		synced: make(map[string]time.Time),
	}
}

func (r *memRegistry) EnsureGroup(_ context.Context, name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.groups[name]; ok {
		return false, nil
	}
	r.groups[name] = &group.Group{Name: name, CreatedAt: time.Now().UTC()}
	return true, nil
}

func (r *memRegistry) EnsureStats(_ context.Context, name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[name]
	if !ok {
		t := time.Now().UTC()
		r.groups[name] = &group.Group{Name: name, CreatedAt: t, StatsEnabledAt: &t}
		return true, nil
	}
	if g.StatsEnabledAt != nil {
		return false, nil
	}
	t := time.Now().UTC()
	g.StatsEnabledAt = &t
	return true, nil
}

func (r *memRegistry) Get(_ context.Context, name string) (*group.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[name]
	if !ok {
		return nil, shared.ErrGroupNotFound
	}
	return g, nil
}

func (r *memRegistry) Exists(_ context.Context, name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.groups[name]
	return ok, nil
}

func (r *memRegistry) StatsEnabled(_ context.Context, name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[name]
	if !ok {
		return false, shared.ErrGroupNotFound
	}
	return g.StatsEnabledAt != nil, nil
}

func (r *memRegistry) ListNames(context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.groups))
	for n := range r.groups {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (r *memRegistry) LastUpdatePerGroup(context.Context) ([]group.LastUpdate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var updates []group.LastUpdate
	for _, g := range r.groups {
		if g.StatsEnabledAt == nil {
			continue
		}
		lu := group.LastUpdate{GroupName: g.Name}
		if t, ok := r.synced[g.Name]; ok {
			cp := t
			lu.ChangedAt = &cp
		}
		updates = append(updates, lu)
	}
	return updates, nil
}

func (r *memRegistry) markSynced(groupName string, t time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.After(r.synced[groupName]) {
		r.synced[groupName] = t
	}
}

// memDirectory is an in-memory student.Directory. A roster write against an
// unregistered group fails the way the foreign key does in Postgres.
type memDirectory struct {
	mu       sync.Mutex
	registry *memRegistry
	records  map[string]map[int64]*student.Record
}

func newMemDirectory(registry *memRegistry) *memDirectory {
	return &memDirectory{
		registry: registry,
		records:  make(map[string]map[int64]*student.Record),
	}
}

func (d *memDirectory) Upsert(ctx context.Context, rec *student.Record) (*student.Record, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	exists, _ := d.registry.Exists(ctx, rec.GroupName)
	if !exists {
		return nil, shared.ErrGroupNotFound
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.records[rec.GroupName] == nil {
		d.records[rec.GroupName] = make(map[int64]*student.Record)
	}
	cp := *rec
	d.records[rec.GroupName][rec.RollNumber] = &cp
	return &cp, nil
}

func (d *memDirectory) GetAll(_ context.Context, groupName string) ([]*student.Record, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*student.Record, 0)
	for _, rec := range d.records[groupName] {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RollNumber < out[j].RollNumber })
	return out, nil
}

func (d *memDirectory) GetByRoll(_ context.Context, groupName string, roll int64) (*student.Record, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rec, ok := d.records[groupName][roll]
	if !ok {
		return nil, shared.ErrStudentNotFound
	}
	return rec, nil
}

// memStatsStore is an in-memory student.StatsStore backed by the directory.
type memStatsStore struct {
	mu        sync.Mutex
	directory *memDirectory
	snapshots map[string]map[int64]*student.Stats
}

func newMemStatsStore(directory *memDirectory) *memStatsStore {
	return &memStatsStore{
		directory: directory,
		snapshots: make(map[string]map[int64]*student.Stats),
	}
}

func (s *memStatsStore) UpsertBatch(_ context.Context, groupName string, batch []*student.Stats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshots[groupName] == nil {
		s.snapshots[groupName] = make(map[int64]*student.Stats)
	}
	now := time.Now().UTC()
	for _, snap := range batch {
		cp := *snap
		cp.LastFetched = now
		s.snapshots[groupName][snap.RollNumber] = &cp
	}
	s.directory.registry.markSynced(groupName, now)
	return nil
}

func (s *memStatsStore) CombinedByGroup(ctx context.Context, groupName string) ([]*student.Combined, error) {
	roster, err := s.directory.GetAll(ctx, groupName)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*student.Combined, 0, len(roster))
	for _, rec := range roster {
		c := &student.Combined{Record: *rec}
		if snap, ok := s.snapshots[groupName][rec.RollNumber]; ok {
			cp := *snap
			c.Stats = &cp
		}
		c.DeriveLastCommitDay()
		out = append(out, c)
	}
	return out, nil
}

// memLedger is an in-memory notification.Ledger.
type memLedger struct {
	mu    sync.Mutex
	flags map[string]*notification.Notification
}

func newMemLedger() *memLedger {
	return &memLedger{flags: make(map[string]*notification.Notification)}
}

func flagKey(groupName string, roll int64) string {
	return fmt.Sprintf("%s/%d", groupName, roll)
}

func (l *memLedger) Upsert(_ context.Context, n *notification.Notification) error {
	if err := notification.ValidateReason(n.Reason); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	cp := *n
	cp.CreatedAt = time.Now().UTC()
	l.flags[flagKey(n.GroupName, n.RollNumber)] = &cp
	return nil
}

func (l *memLedger) Remove(_ context.Context, groupName string, roll int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := flagKey(groupName, roll)
	if _, ok := l.flags[key]; !ok {
		return 0, nil
	}
	delete(l.flags, key)
	return 1, nil
}

func (l *memLedger) RemoveWithReason(_ context.Context, groupName string, roll int64, reason string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := flagKey(groupName, roll)
	n, ok := l.flags[key]
	if !ok || n.Reason != reason {
		return 0, nil
	}
	delete(l.flags, key)
	return 1, nil
}

func (l *memLedger) List(context.Context) ([]*notification.Notification, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*notification.Notification, 0, len(l.flags))
	for _, n := range l.flags {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].GroupName != out[j].GroupName {
			return out[i].GroupName < out[j].GroupName
		}
		return out[i].RollNumber < out[j].RollNumber
	})
	return out, nil
}

// stubProvider returns an empty snapshot for every student.
type stubProvider struct{}

func (stubProvider) Fetch(_ context.Context, rec *student.Record) (*student.Stats, error) {
	return &student.Stats{RollNumber: rec.RollNumber, LastFetched: time.Now().UTC()}, nil
}
