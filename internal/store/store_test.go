package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/payplan/internal/model"
)

func sampleSet() model.AllocationSet {
	return model.AllocationSet{
		Columns: []string{"Project", "Company"},
		Obligations: []model.Obligation{
			{
				ID:                 "T-1",
				RemainingLiability: decimal.RequireFromString("1000.75"),
				Attributes:         map[string]string{"Project": "Bridge", "Company": "Acme"},
				AllocatedAmount:    250,
			},
			{
				ID:                 "T-2",
				RemainingLiability: decimal.NewFromInt(400),
				Attributes:         map[string]string{"Project": "Tunnel", "Company": "Bolt"},
				AllocatedAmount:    50,
			},
		},
	}
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "scenarios.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": db,
	}
}

func TestSaveGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			saved, err := st.Save(ctx, "march", sampleSet())
			require.NoError(t, err)
			assert.NotEmpty(t, saved.ID)
			assert.Equal(t, 2, saved.Rows)
			assert.Equal(t, int64(300), saved.Total)

			got, err := st.Get(ctx, "march")
			require.NoError(t, err)
			assert.Equal(t, saved.ID, got.ID)
			assert.Equal(t, []string{"Project", "Company"}, got.Set.Columns)
			require.Len(t, got.Set.Obligations, 2)
			assert.Equal(t, "T-1", got.Set.Obligations[0].ID)
			assert.Equal(t, int64(250), got.Set.Obligations[0].AllocatedAmount)
			assert.True(t, got.Set.Obligations[0].RemainingLiability.Equal(decimal.RequireFromString("1000.75")))
			assert.Equal(t, "Bolt", got.Set.Obligations[1].Attr("Company"))
		})
	}
}

func TestGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			set := sampleSet()
			_, err := st.Save(ctx, "base", set)
			require.NoError(t, err)

			// mutating the saved input must not leak in
			set.Obligations[0].AllocatedAmount = 9999

			first, err := st.Get(ctx, "base")
			require.NoError(t, err)
			first.Set.Obligations[0].AllocatedAmount = 1
			first.Set.Obligations[0].Attributes["Project"] = "changed"

			second, err := st.Get(ctx, "base")
			require.NoError(t, err)
			assert.Equal(t, int64(250), second.Set.Obligations[0].AllocatedAmount)
			assert.Equal(t, "Bridge", second.Set.Obligations[0].Attr("Project"))
		})
	}
}

func TestSaveReplacesByName(t *testing.T) {
	ctx := context.Background()
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := st.Save(ctx, "plan", sampleSet())
			require.NoError(t, err)

			smaller := sampleSet()
			smaller.Obligations = smaller.Obligations[:1]
			_, err = st.Save(ctx, "plan", smaller)
			require.NoError(t, err)

			got, err := st.Get(ctx, "plan")
			require.NoError(t, err)
			assert.Len(t, got.Set.Obligations, 1)

			list, err := st.List(ctx)
			require.NoError(t, err)
			assert.Len(t, list, 1)
		})
	}
}

func TestListNewestFirst(t *testing.T) {
	ctx := context.Background()
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := st.Save(ctx, "older", sampleSet())
			require.NoError(t, err)
			time.Sleep(5 * time.Millisecond)
			_, err = st.Save(ctx, "newer", sampleSet())
			require.NoError(t, err)

			list, err := st.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "newer", list[0].Name)
			assert.Equal(t, "older", list[1].Name)
			assert.Empty(t, list[0].Set.Obligations)
		})
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := st.Save(ctx, "gone", sampleSet())
			require.NoError(t, err)

			require.NoError(t, st.Delete(ctx, "gone"))
			_, err = st.Get(ctx, "gone")
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, st.Delete(ctx, "gone"), ErrNotFound)
		})
	}
}

func TestSQLiteCascade(t *testing.T) {
	ctx := context.Background()
	db, err := Open(filepath.Join(t.TempDir(), "s.db"))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	_, err = db.Save(ctx, "x", sampleSet())
	require.NoError(t, err)
	require.NoError(t, db.Delete(ctx, "x"))

	var rows, attrs int
	require.NoError(t, db.db.QueryRow("SELECT COUNT(*) FROM scenario_rows").Scan(&rows))
	require.NoError(t, db.db.QueryRow("SELECT COUNT(*) FROM scenario_attributes").Scan(&attrs))
	assert.Zero(t, rows)
	assert.Zero(t, attrs)
}
