package cmd

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/payplan/internal/model"
)

func TestParseCellEdit(t *testing.T) {
	tests := []struct {
		in      string
		want    cellEdit
		wantErr bool
	}{
		{"7=1,250", cellEdit{id: "7", amount: 1250}, false},
		{"PT=01=300", cellEdit{id: "PT=01", amount: 300}, false},
		{"7=-5", cellEdit{id: "7", amount: -5}, false},
		{"=5", cellEdit{}, true},
		{"7", cellEdit{}, true},
		{"7=abc", cellEdit{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseCellEdit(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseGroupEdit(t *testing.T) {
	got, err := parseGroupEdit("Project=Bridge=5000")
	require.NoError(t, err)
	assert.Equal(t, groupEdit{key: "Project", value: "Bridge", total: 5000}, got)

	got, err = parseGroupEdit("Project==0")
	require.NoError(t, err)
	assert.Equal(t, groupEdit{key: "Project", value: "", total: 0}, got)

	got, err = parseGroupEdit("Company=A=B Ltd=10")
	require.NoError(t, err)
	assert.Equal(t, "A=B Ltd", got.value)

	_, err = parseGroupEdit("Project=5000")
	assert.Error(t, err)
}

func TestDisplayOrder(t *testing.T) {
	mk := func(id, project string, liability int64) model.Obligation {
		return model.Obligation{
			ID:                 id,
			RemainingLiability: decimal.NewFromInt(liability),
			Attributes:         map[string]string{"Project": project},
		}
	}
	set := model.AllocationSet{
		Columns: []string{"Project"},
		Obligations: []model.Obligation{
			mk("1", "Bridge", 100),
			mk("2", "Tunnel", 300),
			mk("3", "Bridge", 200),
		},
	}

	order, err := displayOrder(set, "Project", "", false)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 1}, order)

	order, err = displayOrder(set, "", "liability", true)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 0}, order)

	_, err = displayOrder(set, "Company", "", false)
	assert.Error(t, err)
	_, err = displayOrder(set, "", "colour", false)
	assert.Error(t, err)

	assert.Equal(t, []int{2, 0}, keepMatching([]int{2, 1, 0}, []int{0, 2}))
}
