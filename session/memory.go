package session

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

const defaultRetention = 24 * time.Hour

// Memory is an in-process [Store] backed by a TTL cache. It is local to the
// process that created it by construction, so no cross-context sharing or
// coordination is possible — the analogue of per-tab storage.
//
// The cache TTL only bounds memory held by abandoned records; expiry
// decisions are made lazily by readers via [Record.Expired].
type Memory struct {
	cache     *ttlcache.Cache[string, Record]
	key       string
	retention time.Duration
}

// NewMemory creates an in-process store. retention caps how long an
// untouched record is kept; <= 0 selects a 24h default.
func NewMemory(retention time.Duration) *Memory {
	if retention <= 0 {
		retention = defaultRetention
	}

	cache := ttlcache.New(
		ttlcache.WithTTL[string, Record](retention),
		ttlcache.WithDisableTouchOnHit[string, Record](),
	)

	return &Memory{
		cache:     cache,
		key:       DefaultStorageKey,
		retention: retention,
	}
}

// Read implements [Store]. It never returns an error; an evicted or missing
// record reads as absent.
func (m *Memory) Read(context.Context) (*Record, error) {
	item := m.cache.Get(m.key)
	if item == nil {
		return nil, nil
	}

	rec := item.Value()
	return &rec, nil
}

// Write implements [Store]. The patch is merged into the current record
// under last-write-wins semantics.
func (m *Memory) Write(_ context.Context, patch Patch) error {
	var base *Record
	if item := m.cache.Get(m.key); item != nil {
		current := item.Value()
		base = &current
	}

	merged := Merge(base, patch)
	m.cache.Set(m.key, merged, m.retention)
	return nil
}

// Clear implements [Store].
func (m *Memory) Clear(context.Context) error {
	m.cache.Delete(m.key)
	return nil
}
