package useragent

import (
	"sync"

	"github.com/mtprotogo/tgcore/query"
)

// activeEntry pairs an active Query with the DC number it was sent
// through, so a Connection teardown can find exactly the Queries it owns
// without every caller of addActive threading that lookup through by
// hand.
type activeEntry struct {
	query *query.Query
	dc    int
}

// queryRegistry tracks a set of in-flight Query pointers under one
// RWMutex, the same mu+map shape node.go's sessions registry uses
// (storeSession/removeSession/findSession), generalized from a single
// int64-keyed map to the two query.UserAgent needs: active queries keyed
// by msg_id, and retry queries keyed by identity since a retrying query
// has no stable msg_id yet.
type queryRegistry struct {
	mu     sync.RWMutex
	active map[int64]activeEntry
	retry  map[*query.Query]struct{}
}

func newQueryRegistry() *queryRegistry {
	return &queryRegistry{
		active: make(map[int64]activeEntry),
		retry:  make(map[*query.Query]struct{}),
	}
}

func (r *queryRegistry) addActive(q *query.Query, dc int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active[q.MsgID()] = activeEntry{query: q, dc: dc}
}

func (r *queryRegistry) removeActive(q *query.Query) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, q.MsgID())
}

func (r *queryRegistry) findActive(msgID int64) *query.Query {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.active[msgID]
	if !ok {
		return nil
	}
	return e.query
}

// activeForConnection returns every active Query last sent through dc,
// used by a Connection's teardown to cancel exactly the Queries it owns
// (spec.md §5) instead of leaving them to their own timers.
func (r *queryRegistry) activeForConnection(dc int) []*query.Query {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*query.Query
	for _, e := range r.active {
		if e.dc == dc {
			out = append(out, e.query)
		}
	}
	return out
}

func (r *queryRegistry) addRetry(q *query.Query) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retry[q] = struct{}{}
}

func (r *queryRegistry) removeRetry(q *query.Query) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.retry, q)
}

// activeSnapshot returns every active Query, used by Shutdown to cancel
// what is still outstanding.
func (r *queryRegistry) activeSnapshot() []*query.Query {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*query.Query, 0, len(r.active))
	for _, e := range r.active {
		out = append(out, e.query)
	}
	return out
}
