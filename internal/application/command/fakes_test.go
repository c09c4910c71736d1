package command

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

type fakeRegistry struct {
	mu      sync.Mutex
	groups  map[string]*group.Group
	failAll error
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{groups: make(map[string]*group.Group)}
}

func (r *fakeRegistry) addGroup(name string, stats bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g := &group.Group{Name: name, CreatedAt: time.Now().UTC()}
	if stats {
		t := time.Now().UTC()
		g.StatsEnabledAt = &t
	}
	r.groups[name] = g
}

func (r *fakeRegistry) EnsureGroup(_ context.Context, name string) (bool, error) {
	if r.failAll != nil {
		return false, r.failAll
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.groups[name]; ok {
		return false, nil
	}
	r.groups[name] = &group.Group{Name: name, CreatedAt: time.Now().UTC()}
	return true, nil
}

func (r *fakeRegistry) EnsureStats(_ context.Context, name string) (bool, error) {
	if r.failAll != nil {
		return false, r.failAll
	}
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

func (r *fakeRegistry) Get(_ context.Context, name string) (*group.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[name]
	if !ok {
		return nil, shared.ErrGroupNotFound
	}
	return g, nil
}

func (r *fakeRegistry) Exists(_ context.Context, name string) (bool, error) {
	if r.failAll != nil {
		return false, r.failAll
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.groups[name]
	return ok, nil
}

func (r *fakeRegistry) StatsEnabled(_ context.Context, name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[name]
	if !ok {
		return false, shared.ErrGroupNotFound
	}
	return g.StatsEnabledAt != nil, nil
}

func (r *fakeRegistry) ListNames(context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.groups))
	for n := range r.groups {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (r *fakeRegistry) LastUpdatePerGroup(context.Context) ([]group.LastUpdate, error) {
	return nil, nil
}

type fakeDirectory struct {
	mu      sync.Mutex
	records map[string]map[int64]*student.Record
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{records: make(map[string]map[int64]*student.Record)}
}

func (d *fakeDirectory) put(rec *student.Record) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.records[rec.GroupName] == nil {
		d.records[rec.GroupName] = make(map[int64]*student.Record)
	}
	cp := *rec
	d.records[rec.GroupName][rec.RollNumber] = &cp
}

func (d *fakeDirectory) Upsert(_ context.Context, rec *student.Record) (*student.Record, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	d.put(rec)
	cp := *rec
	return &cp, nil
}

func (d *fakeDirectory) GetAll(_ context.Context, groupName string) ([]*student.Record, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*student.Record, 0)
	for _, rec := range d.records[groupName] {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RollNumber < out[j].RollNumber })
	return out, nil
}

func (d *fakeDirectory) GetByRoll(_ context.Context, groupName string, roll int64) (*student.Record, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rec, ok := d.records[groupName][roll]
	if !ok {
		return nil, shared.ErrStudentNotFound
	}
	return rec, nil
}

type fakeStatsStore struct {
	mu        sync.Mutex
	snapshots map[string]map[int64]*student.Stats
	directory *fakeDirectory
	upsertErr error
}

func newFakeStatsStore(directory *fakeDirectory) *fakeStatsStore {
	return &fakeStatsStore{
		snapshots: make(map[string]map[int64]*student.Stats),
		directory: directory,
	}
}

func (s *fakeStatsStore) UpsertBatch(_ context.Context, groupName string, batch []*student.Stats) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshots[groupName] == nil {
		s.snapshots[groupName] = make(map[int64]*student.Stats)
	}
	for _, snap := range batch {
		cp := *snap
		s.snapshots[groupName][snap.RollNumber] = &cp
	}
	return nil
}

func (s *fakeStatsStore) CombinedByGroup(ctx context.Context, groupName string) ([]*student.Combined, error) {
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

type fakeLedger struct {
	mu    sync.Mutex
	flags map[string]*notification.Notification
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{flags: make(map[string]*notification.Notification)}
}

func ledgerKey(groupName string, roll int64) string {
	return fmt.Sprintf("%s/%d", groupName, roll)
}

func (l *fakeLedger) Upsert(_ context.Context, n *notification.Notification) error {
	if err := notification.ValidateReason(n.Reason); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	cp := *n
	cp.CreatedAt = time.Now().UTC()
	l.flags[ledgerKey(n.GroupName, n.RollNumber)] = &cp
	return nil
}

func (l *fakeLedger) Remove(_ context.Context, groupName string, roll int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := ledgerKey(groupName, roll)
	if _, ok := l.flags[key]; !ok {
		return 0, nil
	}
	delete(l.flags, key)
	return 1, nil
}

func (l *fakeLedger) RemoveWithReason(_ context.Context, groupName string, roll int64, reason string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := ledgerKey(groupName, roll)
	n, ok := l.flags[key]
	if !ok || n.Reason != reason {
		return 0, nil
	}
	delete(l.flags, key)
	return 1, nil
}

func (l *fakeLedger) List(context.Context) ([]*notification.Notification, error) {
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

// fakeProvider returns canned snapshots or errors per roll number.
type fakeProvider struct {
	mu        sync.Mutex
	snapshots map[int64]*student.Stats
	failures  map[int64]error
	calls     []int64
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		snapshots: make(map[int64]*student.Stats),
		failures:  make(map[int64]error),
	}
}

func (p *fakeProvider) Fetch(_ context.Context, rec *student.Record) (*student.Stats, error) {
	p.mu.Lock()
	p.calls = append(p.calls, rec.RollNumber)
	p.mu.Unlock()
	if err, ok := p.failures[rec.RollNumber]; ok {
		return nil, err
	}
	if snap, ok := p.snapshots[rec.RollNumber]; ok {
		cp := *snap
		cp.RollNumber = rec.RollNumber
		return &cp, nil
	}
	return &student.Stats{RollNumber: rec.RollNumber, LastFetched: time.Now().UTC()}, nil
}

type fakeInvalidator struct {
	mu     sync.Mutex
	groups []string
}

func (f *fakeInvalidator) Invalidate(_ context.Context, groupName string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.groups = append(f.groups, groupName)
}

type fakeLocker struct {
	mu       sync.Mutex
	held     map[string]bool
	unlocked []string
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: make(map[string]bool)}
}

func (l *fakeLocker) TryLock(_ context.Context, groupName string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[groupName] {
		return false, nil
	}
	l.held[groupName] = true
	return true, nil
}

func (l *fakeLocker) Unlock(_ context.Context, groupName string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, groupName)
	l.unlocked = append(l.unlocked, groupName)
	return nil
}
