// Package pool holds the Waiting Pool: the ordered collection of clients
// currently looking for a partner. Callers are responsible for serializing
// access (the Waiting Pool is one of the structures session.Core guards
// with a single mutex) — Pool itself performs no locking.
package pool

// Entry is a single waiting client: its declared interests and the
// monotonic time it joined the pool, used for FIFO tie-break in the
// Matcher.
type Entry struct {
	ClientID      string
	Interests     []string
	JoinedAtNanos int64
}

// Pool is the ordered sequence of Entry values described in spec.md §3.
// Insertion order corresponds to non-decreasing JoinedAtNanos, and at most
// one Entry exists per ClientID.
type Pool struct {
	entries []Entry
	index   map[string]int // ClientID -> position in entries
}

// New returns an empty Pool ready for use.
func New() *Pool {
	return &Pool{
		index: make(map[string]int),
	}
}

// Insert appends entry to the pool. The caller guarantees entry.ClientID is
// not already present.
func (p *Pool) Insert(entry Entry) {
	p.index[entry.ClientID] = len(p.entries)
	p.entries = append(p.entries, entry)
}

// RemoveByID removes the entry for clientID, if any, preserving the
// relative order of the remaining entries. It is idempotent and reports
// whether an entry existed.
func (p *Pool) RemoveByID(clientID string) bool {
	i, ok := p.index[clientID]
	if !ok {
		return false
	}

	p.entries = append(p.entries[:i], p.entries[i+1:]...)
	delete(p.index, clientID)
	for id, pos := range p.index {
		if pos > i {
			p.index[id] = pos - 1
		}
	}
	return true
}

// Iter returns a snapshot of all entries in insertion order. The returned
// slice is safe to range over without holding any external lock — it is a
// copy, not a view.
func (p *Pool) Iter() []Entry {
	out := make([]Entry, len(p.entries))
	copy(out, p.entries)
	return out
}

// Len returns the current number of waiting entries.
func (p *Pool) Len() int {
	return len(p.entries)
}
