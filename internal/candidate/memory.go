package candidate

import (
	"context"
	"slices"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// Thread-safe via RWMutex.
type InMemoryRepository struct {
	mu      sync.RWMutex
	records map[Kind]map[int64]*Record
	nextID  int64
}

// NewInMemoryRepository creates a new in-memory candidate repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		records: map[Kind]map[int64]*Record{
			KindMentor:  make(map[int64]*Record),
			KindStudent: make(map[int64]*Record),
		},
	}
}

// Put stores a copy of rec, assigning an id when rec.ID is zero.
// Existing records with the same kind and id are replaced.
func (r *InMemoryRepository) Put(rec *Record) *Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec.ID == 0 {
		r.nextID++
		rec.ID = r.nextID
	} else if rec.ID > r.nextID {
		r.nextID = rec.ID
	}

	if r.records[rec.Kind] == nil {
		r.records[rec.Kind] = make(map[int64]*Record)
	}
	recCopy := *rec
	recCopy.TargetUniversities = slices.Clone(rec.TargetUniversities)
	r.records[rec.Kind][rec.ID] = &recCopy
	return rec
}

// List returns active profiles of kind matching filter, ordered by id.
func (r *InMemoryRepository) List(ctx context.Context, kind Kind, filter *Filter, limit int) ([]*Record, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*Record
	for _, rec := range r.records[kind] {
		if !rec.IsActive || !matches(rec, kind, filter) {
			continue
		}
		recCopy := *rec
		matched = append(matched, &recCopy)
	}

	slices.SortFunc(matched, func(a, b *Record) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})

	total := len(matched)
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

// GetByLogin returns the profile of kind with the given login.
func (r *InMemoryRepository) GetByLogin(ctx context.Context, kind Kind, login string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rec := range r.records[kind] {
		if rec.Login == login {
			recCopy := *rec
			return &recCopy, nil
		}
	}
	return nil, ErrNotFound
}
