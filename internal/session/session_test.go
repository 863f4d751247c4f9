package session

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/payplan/internal/allocation"
	"github.com/theirongolddev/payplan/internal/model"
)

func sampleSet() model.AllocationSet {
	rows := []struct {
		id, project string
		liability   int64
		amount      int64
	}{
		{"a", "north", 100, 0},
		{"b", "north", 200, 0},
		{"c", "south", 300, 0},
	}
	set := model.AllocationSet{Columns: []string{"project"}}
	for _, r := range rows {
		set.Obligations = append(set.Obligations, model.Obligation{
			ID:                 r.id,
			RemainingLiability: decimal.NewFromInt(r.liability),
			Attributes:         map[string]string{"project": r.project},
			AllocatedAmount:    r.amount,
		})
	}
	return set
}

func amounts(s *Session) []int64 {
	var out []int64
	for _, o := range s.View().Obligations {
		out = append(out, o.AllocatedAmount)
	}
	return out
}

func TestLoadResetsState(t *testing.T) {
	s := New(600)
	s.Load(sampleSet(), "march")

	require.NoError(t, s.SetBudget(900))
	_, err := s.ToggleLock("a")
	require.NoError(t, err)
	require.Error(t, s.EditCell("b", -1))

	s.Load(sampleSet(), "april")
	assert.Equal(t, int64(600), s.Budget())
	assert.False(t, s.IsLocked("a"))
	assert.Empty(t, s.Warning())
	assert.Equal(t, "april", s.Label())
}

func TestRedistributeWithLock(t *testing.T) {
	s := New(600)
	s.Load(sampleSet(), "")

	require.NoError(t, s.EditCell("b", 50))
	locked, err := s.ToggleLock("b")
	require.NoError(t, err)
	require.True(t, locked)

	s.RequestRedistribution()
	assert.Equal(t, []int64{137, 50, 413}, amounts(s))
	assert.Equal(t, int64(600), s.Total())
	assert.False(t, s.OverAllocated())
}

func TestEditCellNegativeSetsWarning(t *testing.T) {
	s := New(100)
	s.Load(sampleSet(), "")
	s.RequestInitialDistribution()
	before := amounts(s)

	err := s.EditCell("a", -5)
	require.Error(t, err)
	assert.True(t, allocation.IsValidation(err))
	assert.Equal(t, "negative amount", s.Warning())
	assert.Equal(t, before, amounts(s))
}

func TestEditLockedRowRefused(t *testing.T) {
	s := New(100)
	s.Load(sampleSet(), "")
	_, _ = s.ToggleLock("c")

	err := s.EditCell("c", 10)
	assert.True(t, allocation.IsValidation(err))
	assert.Contains(t, s.Warning(), "locked")
	assert.Equal(t, int64(0), s.View().Obligations[2].AllocatedAmount)
}

func TestSetBudget(t *testing.T) {
	s := New(100)
	s.Load(sampleSet(), "")
	s.RequestInitialDistribution()

	require.Error(t, s.SetBudget(-1))
	assert.Equal(t, int64(100), s.Budget())
	assert.Equal(t, "negative budget", s.Warning())

	require.NoError(t, s.SetBudget(10))
	// no recompute until asked
	assert.Equal(t, int64(99), s.Total())
	assert.True(t, s.OverAllocated())

	s.RequestRedistribution()
	assert.Equal(t, int64(10), s.Total())
	assert.Empty(t, s.Warning())
}

func TestSelectAll(t *testing.T) {
	s := New(0)
	s.Load(sampleSet(), "")
	_, _ = s.ToggleLock("a")

	assert.True(t, s.SelectAll())
	assert.Len(t, s.Locks(), 3)

	assert.False(t, s.SelectAll())
	assert.Empty(t, s.Locks())
}

func TestSelectAllInGroup(t *testing.T) {
	s := New(0)
	s.Load(sampleSet(), "")

	assert.True(t, s.SelectAllInGroup("project", "north"))
	assert.True(t, s.IsLocked("a"))
	assert.True(t, s.IsLocked("b"))
	assert.False(t, s.IsLocked("c"))

	assert.False(t, s.SelectAllInGroup("project", "north"))
	assert.Empty(t, s.Locks())
}

func TestEditGroupTotal(t *testing.T) {
	s := New(0)
	s.Load(sampleSet(), "")

	require.NoError(t, s.EditGroupTotal("project", "north", 11))
	assert.Equal(t, []int64{6, 5, 0}, amounts(s))
	assert.Equal(t, int64(11), s.Total())

	require.Error(t, s.EditGroupTotal("project", "north", -3))
	assert.Equal(t, "negative group total", s.Warning())
	assert.Equal(t, []int64{6, 5, 0}, amounts(s))
}

func TestResetToOriginal(t *testing.T) {
	s := New(300)
	s.Load(sampleSet(), "")
	s.RequestRedistribution()
	_, _ = s.ToggleLock("a")

	s.ResetToOriginal()
	assert.Equal(t, []int64{0, 0, 0}, amounts(s))
	assert.Empty(t, s.Locks())
}

func TestResetAfterScenarioReturnsToImport(t *testing.T) {
	s := New(300)
	s.Load(sampleSet(), "march.xlsx")

	scenario := sampleSet()
	scenario.Obligations[0].AllocatedAmount = 40
	scenario.Obligations[2].AllocatedAmount = 60
	s.Replace(scenario, "plan b")
	_, _ = s.ToggleLock("c")
	assert.Equal(t, "plan b", s.Label())
	assert.Equal(t, []int64{40, 0, 60}, amounts(s))

	s.ResetToOriginal()
	assert.Equal(t, "march.xlsx", s.Label())
	assert.Equal(t, []int64{0, 0, 0}, amounts(s))
	assert.Empty(t, s.Locks())
	assert.Equal(t, int64(0), s.Total())
}

func TestReplaceWithoutImportSetsOriginal(t *testing.T) {
	s := New(0)
	scenario := sampleSet()
	scenario.Obligations[1].AllocatedAmount = 25
	s.Replace(scenario, "saved")

	require.NoError(t, s.EditCell("b", 90))
	s.ResetToOriginal()
	assert.Equal(t, []int64{0, 25, 0}, amounts(s))
	assert.Equal(t, "saved", s.Label())
}

func TestSnapshotIsACopy(t *testing.T) {
	s := New(300)
	s.Load(sampleSet(), "")
	snap := s.Snapshot()
	snap.Set.Obligations[0].AllocatedAmount = 999
	snap.Locks["a"] = struct{}{}

	assert.Equal(t, int64(0), s.View().Obligations[0].AllocatedAmount)
	assert.False(t, s.IsLocked("a"))
}

func TestToggleUnknownRow(t *testing.T) {
	s := New(0)
	s.Load(sampleSet(), "")
	_, err := s.ToggleLock("zzz")
	assert.True(t, allocation.IsValidation(err))
}
