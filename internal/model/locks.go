package model

import "sort"

// LockSet holds the ids of rows pinned at their current amount.
type LockSet map[string]struct{}

// NewLockSet returns a lock set containing ids.
func NewLockSet(ids ...string) LockSet {
	ls := make(LockSet, len(ids))
	for _, id := range ids {
		ls[id] = struct{}{}
	}
	return ls
}

// Has reports whether id is locked. A nil set locks nothing.
func (ls LockSet) Has(id string) bool {
	_, ok := ls[id]
	return ok
}

// Toggle flips the lock state of id and reports the new state.
func (ls LockSet) Toggle(id string) bool {
	if ls.Has(id) {
		delete(ls, id)
		return false
	}
	ls[id] = struct{}{}
	return true
}

// Clone returns an independent copy.
func (ls LockSet) Clone() LockSet {
	cp := make(LockSet, len(ls))
	for id := range ls {
		cp[id] = struct{}{}
	}
	return cp
}

// Sorted returns the locked ids in lexical order.
func (ls LockSet) Sorted() []string {
	ids := make([]string, 0, len(ls))
	for id := range ls {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
