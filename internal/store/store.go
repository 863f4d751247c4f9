// Package store persists named scenarios: deep copies of allocation sets
// that can be reloaded later.
package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/payplan/internal/model"
)

// ErrNotFound is returned when no scenario has the requested name.
var ErrNotFound = errors.New("scenario not found")

// Scenario is a named snapshot. List leaves Set empty.
type Scenario struct {
	ID        string
	Name      string
	CreatedAt time.Time
	Rows      int
	Total     int64
	Set       model.AllocationSet
}

// Store saves and retrieves scenarios. Implementations copy on the way in
// and on the way out, so a loaded scenario can be edited freely.
type Store interface {
	// Save stores set under name, replacing any scenario with that name.
	Save(ctx context.Context, name string, set model.AllocationSet) (Scenario, error)
	Get(ctx context.Context, name string) (Scenario, error)
	// List returns scenario headers, newest first.
	List(ctx context.Context) ([]Scenario, error)
	Delete(ctx context.Context, name string) error
	Close() error
}

func newScenario(name string, set model.AllocationSet) Scenario {
	return Scenario{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
		Rows:      set.Len(),
		Total:     set.Total(),
		Set:       set.Clone(),
	}
}

// Memory is a process-local Store.
type Memory struct {
	mu        sync.Mutex
	scenarios map[string]Scenario
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{scenarios: make(map[string]Scenario)}
}

func (m *Memory) Save(_ context.Context, name string, set model.AllocationSet) (Scenario, error) {
	sc := newScenario(name, set)
	m.mu.Lock()
	m.scenarios[name] = sc
	m.mu.Unlock()

	out := sc
	out.Set = sc.Set.Clone()
	return out, nil
}

func (m *Memory) Get(_ context.Context, name string) (Scenario, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sc, ok := m.scenarios[name]
	if !ok {
		return Scenario{}, ErrNotFound
	}
	sc.Set = sc.Set.Clone()
	return sc, nil
}

func (m *Memory) List(_ context.Context) ([]Scenario, error) {
	m.mu.Lock()
	out := make([]Scenario, 0, len(m.scenarios))
	for _, sc := range m.scenarios {
		sc.Set = model.AllocationSet{}
		out = append(out, sc)
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m *Memory) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.scenarios[name]; !ok {
		return ErrNotFound
	}
	delete(m.scenarios, name)
	return nil
}

func (m *Memory) Close() error { return nil }
