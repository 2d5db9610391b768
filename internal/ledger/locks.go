package ledger

import (
	"slices"
	"sync"
)

// accountLocks hands out one mutex per account id.
type accountLocks struct {
	locks map[int64]*sync.Mutex
	mu    sync.Mutex
}

func newAccountLocks() *accountLocks {
	return &accountLocks{locks: make(map[int64]*sync.Mutex)}
}

// lock acquires every listed account in ascending id order and returns the
// matching unlock. Duplicates are locked once.
func (l *accountLocks) lock(ids ...int64) func() {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	held := make([]*sync.Mutex, 0, len(sorted))
	for _, id := range sorted {
		m := l.get(id)
		m.Lock()
		held = append(held, m)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

func (l *accountLocks) get(id int64) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	return m
}
