// Package registry owns the ordered name->Record collection that represents
// what the supervisor believes is running. All mutation goes through the
// supervision engine so that every change is followed by a persistence write.
package registry

import "sync"

// Registry is an ordered collection of process records keyed by unique name.
// Put on an existing name replaces the record in place; a new name appends.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	records map[string]Record
}

func New() *Registry {
	return &Registry{records: make(map[string]Record)}
}

// Put inserts or replaces the record for rec.Name. Replacement keeps the
// original position so status listings stay stable.
func (r *Registry) Put(rec Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[rec.Name]; !ok {
		r.order = append(r.order, rec.Name)
	}
	r.records[rec.Name] = rec.Clone()
}

// Get returns a copy of the record for name.
func (r *Registry) Get(name string) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[name]
	if !ok {
		return Record{}, false
	}
	return rec.Clone(), true
}

// Delete removes the record for name, reporting whether it existed.
func (r *Registry) Delete(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[name]; !ok {
		return false
	}
	delete(r.records, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Names returns the record names in insertion order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// All returns copies of all records in insertion order.
func (r *Registry) All() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Record, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.records[name].Clone())
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
