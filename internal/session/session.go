// Package session holds the mutable state a user works against: the live
// row set, the lock set, the budget and the last warning.
package session

import (
	"github.com/theirongolddev/payplan/internal/allocation"
	"github.com/theirongolddev/payplan/internal/model"
)

// Session mediates user actions over one allocation set. It is not safe for
// concurrent use; callers that share a session must serialize access.
type Session struct {
	label         string
	originalLabel string
	original      model.AllocationSet
	set           model.AllocationSet
	locks         model.LockSet
	defaultBudget int64
	budget        int64
	total         int64
	warning       string
}

// State is a point-in-time copy of a session.
type State struct {
	Label         string
	Set           model.AllocationSet
	Locks         model.LockSet
	Budget        int64
	Total         int64
	Warning       string
	OverAllocated bool
}

// New returns an empty session whose budget resets to defaultBudget on
// every load.
func New(defaultBudget int64) *Session {
	if defaultBudget < 0 {
		defaultBudget = 0
	}
	return &Session{
		locks:         model.LockSet{},
		defaultBudget: defaultBudget,
		budget:        defaultBudget,
	}
}

// Load imports a new set. Locks, budget and warning are reset and the set
// is remembered as the original for ResetToOriginal.
func (s *Session) Load(set model.AllocationSet, label string) {
	s.label = label
	s.originalLabel = label
	s.original = set.Clone()
	s.replace(set.Clone())
}

// Replace swaps in a saved scenario. It resets locks, budget and warning
// like Load but keeps the imported set as the original. With nothing
// imported yet, the scenario becomes the original.
func (s *Session) Replace(set model.AllocationSet, label string) {
	if s.original.Len() == 0 {
		s.Load(set, label)
		return
	}
	s.label = label
	s.replace(set.Clone())
}

// ResetToOriginal restores the set as it was when last imported.
func (s *Session) ResetToOriginal() {
	s.label = s.originalLabel
	s.replace(s.original.Clone())
}

func (s *Session) replace(set model.AllocationSet) {
	s.set = set
	s.locks = model.LockSet{}
	s.budget = s.defaultBudget
	s.total = set.Total()
	s.warning = ""
}

// ToggleLock flips the lock on one row and reports the new state.
func (s *Session) ToggleLock(id string) (bool, error) {
	if s.set.IndexOf(id) < 0 {
		return false, s.fail(&allocation.ValidationError{Msg: "unknown obligation " + id})
	}
	return s.locks.Toggle(id), nil
}

// SetBudget stores a new budget. Allocations are not recomputed.
func (s *Session) SetBudget(v int64) error {
	if v < 0 {
		return s.fail(&allocation.ValidationError{Msg: "negative budget"})
	}
	s.budget = v
	return nil
}

// RequestInitialDistribution splits the budget evenly over all rows.
func (s *Session) RequestInitialDistribution() {
	s.set, s.total = allocation.DistributeInitial(s.set, s.budget)
	s.warning = ""
}

// RequestRedistribution splits the unlocked budget by remaining liability.
func (s *Session) RequestRedistribution() {
	s.set = allocation.RedistributeProportional(s.set, s.locks, s.budget)
	s.total = s.set.Total()
	s.warning = ""
}

// EditCell sets one row's amount. Locked rows are refused.
func (s *Session) EditCell(id string, amount int64) error {
	if s.locks.Has(id) {
		return s.fail(&allocation.ValidationError{Msg: "row " + id + " is locked"})
	}
	set, err := allocation.EditCell(s.set, id, amount)
	if err != nil {
		return s.fail(err)
	}
	s.set = set
	s.total = set.Total()
	s.warning = ""
	return nil
}

// EditGroupTotal sets the combined amount of a group's unlocked rows.
func (s *Session) EditGroupTotal(key, value string, total int64) error {
	set, err := allocation.EditGroupTotal(s.set, s.locks, key, value, total)
	if err != nil {
		return s.fail(err)
	}
	s.set = set
	s.total = set.Total()
	s.warning = ""
	return nil
}

// SelectAll locks every row, or unlocks every row if all are already locked.
// It returns the resulting lock state.
func (s *Session) SelectAll() bool {
	return s.setUniform(s.set.IDs())
}

// SelectAllInGroup is SelectAll restricted to rows whose key equals value.
func (s *Session) SelectAllInGroup(key, value string) bool {
	idx := s.set.GroupMembers(key, value)
	ids := make([]string, len(idx))
	for i, j := range idx {
		ids[i] = s.set.Obligations[j].ID
	}
	return s.setUniform(ids)
}

func (s *Session) setUniform(ids []string) bool {
	if len(ids) == 0 {
		return false
	}
	allLocked := true
	for _, id := range ids {
		if !s.locks.Has(id) {
			allLocked = false
			break
		}
	}
	for _, id := range ids {
		if allLocked {
			delete(s.locks, id)
		} else {
			s.locks[id] = struct{}{}
		}
	}
	return !allLocked
}

func (s *Session) fail(err error) error {
	s.warning = err.Error()
	return err
}

// Label returns the name the current set was loaded under.
func (s *Session) Label() string { return s.label }

// Budget returns the current budget.
func (s *Session) Budget() int64 { return s.budget }

// Total returns the distributed total.
func (s *Session) Total() int64 { return s.total }

// Warning returns the last validation message, or "".
func (s *Session) Warning() string { return s.warning }

// IsLocked reports whether the row with id is locked.
func (s *Session) IsLocked(id string) bool { return s.locks.Has(id) }

// OverAllocated reports whether more is distributed than budgeted.
func (s *Session) OverAllocated() bool { return s.total > s.budget }

// Set returns a copy of the live set.
func (s *Session) Set() model.AllocationSet { return s.set.Clone() }

// View returns the live set without copying. Callers must not modify it.
func (s *Session) View() model.AllocationSet { return s.set }

// Locks returns a copy of the lock set.
func (s *Session) Locks() model.LockSet { return s.locks.Clone() }

// Snapshot returns a copy of the whole session state.
func (s *Session) Snapshot() State {
	return State{
		Label:         s.label,
		Set:           s.set.Clone(),
		Locks:         s.locks.Clone(),
		Budget:        s.budget,
		Total:         s.total,
		Warning:       s.warning,
		OverAllocated: s.OverAllocated(),
	}
}
