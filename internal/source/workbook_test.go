package source

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/payplan/internal/model"
)

func exportSet() model.AllocationSet {
	return model.AllocationSet{
		Columns: []string{"Project", "Company"},
		Obligations: []model.Obligation{
			{
				ID:                 "T-1",
				RemainingLiability: decimal.RequireFromString("1500.25"),
				Attributes:         map[string]string{"Project": "Bridge", "Company": "Acme"},
				AllocatedAmount:    400,
			},
			{
				ID:                 "T-2",
				RemainingLiability: decimal.NewFromInt(300),
				Attributes:         map[string]string{"Project": "Tunnel", "Company": "Bolt"},
				AllocatedAmount:    100,
			},
		},
	}
}

func TestExportLoadRoundTrip(t *testing.T) {
	for _, ext := range []string{".xlsx", ".csv"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out", "march"+ext)
			require.NoError(t, Export(path, "March: final", exportSet(), testCols))

			got, err := Load(path, testCols)
			require.NoError(t, err)

			assert.Equal(t, []string{"Project", "Company"}, got.Columns)
			require.Equal(t, 2, got.Len())
			assert.Equal(t, "T-1", got.Obligations[0].ID)
			assert.Equal(t, int64(400), got.Obligations[0].AllocatedAmount)
			assert.True(t, got.Obligations[0].RemainingLiability.Equal(decimal.RequireFromString("1500.25")),
				"liability = %s", got.Obligations[0].RemainingLiability)
			assert.Equal(t, "Bolt", got.Obligations[1].Attr("Company"))
		})
	}
}

func TestExportUnsupported(t *testing.T) {
	err := Export(filepath.Join(t.TempDir(), "x.pdf"), "x", exportSet(), testCols)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "March_ final", sheetName("March: final"))
	assert.Equal(t, "Allocation", sheetName("  "))
	assert.Len(t, []rune(sheetName("a very long scenario name that exceeds the limit")), 31)
}

func TestScanDir(t *testing.T) {
	dir := t.TempDir()
	write := func(rel string, age time.Duration) {
		p := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o600))
		ts := time.Now().Add(-age)
		require.NoError(t, os.Chtimes(p, ts, ts))
	}
	write("old.csv", 2*time.Hour)
	write("sub/new.xlsx", time.Minute)
	write("notes.txt", 0)
	write("~$new.xlsx", 0)
	write(".hidden/skip.csv", 0)

	files, err := ScanDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "new", files[0].Name)
	assert.Equal(t, "old", files[1].Name)

	missing, err := ScanDir(filepath.Join(dir, "nope"))
	assert.NoError(t, err)
	assert.Empty(t, missing)
}
