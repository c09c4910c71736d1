package query

import (
	"context"
	"sort"

	"github.com/codetrack-hub/codetrack-backend/internal/domain/group"
	"github.com/codetrack-hub/codetrack-backend/internal/domain/notification"
	"github.com/codetrack-hub/codetrack-backend/internal/domain/shared"
	"github.com/codetrack-hub/codetrack-backend/internal/domain/student"
)

type stubRegistry struct {
	groups  map[string]bool // name -> stats enabled
	updates []group.LastUpdate
}

func newStubRegistry() *stubRegistry {
	return &stubRegistry{groups: make(map[string]bool)}
}

func (r *stubRegistry) EnsureGroup(_ context.Context, name string) (bool, error) {
	if _, ok := r.groups[name]; ok {
		return false, nil
	}
	r.groups[name] = false
	return true, nil
}

func (r *stubRegistry) EnsureStats(_ context.Context, name string) (bool, error) {
	enabled := r.groups[name]
	r.groups[name] = true
	return !enabled, nil
}

func (r *stubRegistry) Get(_ context.Context, name string) (*group.Group, error) {
	if _, ok := r.groups[name]; !ok {
		return nil, shared.ErrGroupNotFound
	}
	return &group.Group{Name: name}, nil
}

func (r *stubRegistry) Exists(_ context.Context, name string) (bool, error) {
	_, ok := r.groups[name]
	return ok, nil
}

func (r *stubRegistry) StatsEnabled(_ context.Context, name string) (bool, error) {
	enabled, ok := r.groups[name]
	if !ok {
		return false, shared.ErrGroupNotFound
	}
	return enabled, nil
}

func (r *stubRegistry) ListNames(context.Context) ([]string, error) {
	names := make([]string, 0, len(r.groups))
	for n := range r.groups {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (r *stubRegistry) LastUpdatePerGroup(context.Context) ([]group.LastUpdate, error) {
	return r.updates, nil
}

type stubStatsStore struct {
	combined map[string][]*student.Combined
	calls    int
}

func newStubStatsStore() *stubStatsStore {
	return &stubStatsStore{combined: make(map[string][]*student.Combined)}
}

func (s *stubStatsStore) UpsertBatch(context.Context, string, []*student.Stats) error {
	return nil
}

func (s *stubStatsStore) CombinedByGroup(_ context.Context, groupName string) ([]*student.Combined, error) {
	s.calls++
	return s.combined[groupName], nil
}

// memViewCache is a map-backed ViewCache for exercising the hit path.
type memViewCache struct {
	views map[string][]GroupDataRow
	puts  int
}

func newMemViewCache() *memViewCache {
	return &memViewCache{views: make(map[string][]GroupDataRow)}
}

func (c *memViewCache) GetView(_ context.Context, groupName string, dest any) bool {
	rows, ok := c.views[groupName]
	if !ok {
		return false
	}
	*dest.(*[]GroupDataRow) = rows
	return true
}

func (c *memViewCache) PutView(_ context.Context, groupName string, view any) {
	c.puts++
	c.views[groupName] = view.([]GroupDataRow)
}

type stubLedger struct {
	list []*notification.Notification
	err  error
}

func (l *stubLedger) Upsert(context.Context, *notification.Notification) error { return nil }

func (l *stubLedger) Remove(context.Context, string, int64) (int64, error) { return 0, nil }

func (l *stubLedger) RemoveWithReason(context.Context, string, int64, string) (int64, error) {
	return 0, nil
}

func (l *stubLedger) List(context.Context) ([]*notification.Notification, error) {
	return l.list, l.err
}
