package source

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var testCols = ColumnMap{
	ID:        "Tracking No",
	Liability: "Remaining Liability",
	Amount:    "Amount This Period",
}

// writeTempCSV creates a temp CSV file from lines and returns its path.
func writeTempCSV(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "obligations.csv")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseRows_Basic(t *testing.T) {
	rows := [][]string{
		{"Project", "Company", "Tracking No", "Remaining Liability", "Amount This Period"},
		{"Bridge", "Acme", "T-1", "1000.50", "200"},
		{"Tunnel", "Bolt", "T-2", "300", ""},
	}

	set, err := ParseRows(rows, testCols)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(set.Obligations) != 2 {
		t.Fatalf("rows = %d, want 2", len(set.Obligations))
	}
	if got := strings.Join(set.Columns, ","); got != "Project,Company" {
		t.Errorf("Columns = %q, want Project,Company", got)
	}

	first := set.Obligations[0]
	if first.ID != "T-1" {
		t.Errorf("ID = %q, want T-1", first.ID)
	}
	if first.RemainingLiability.String() != "1000.5" {
		t.Errorf("RemainingLiability = %s, want 1000.5", first.RemainingLiability)
	}
	if first.AllocatedAmount != 200 {
		t.Errorf("AllocatedAmount = %d, want 200", first.AllocatedAmount)
	}
	if first.Attr("Company") != "Acme" {
		t.Errorf("Company = %q, want Acme", first.Attr("Company"))
	}
	if set.Obligations[1].AllocatedAmount != 0 {
		t.Errorf("empty amount = %d, want 0", set.Obligations[1].AllocatedAmount)
	}
}

func TestParseRows_SequentialIDs(t *testing.T) {
	rows := [][]string{
		{"Project", "Remaining Liability"},
		{"A", "1"},
		{"", ""},
		{"B", "2"},
	}

	set, err := ParseRows(rows, ColumnMap{Liability: "remaining liability"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(set.Obligations) != 2 {
		t.Fatalf("rows = %d, want 2 (blank skipped)", len(set.Obligations))
	}
	if set.Obligations[0].ID != "1" || set.Obligations[1].ID != "2" {
		t.Errorf("IDs = %v, want [1 2]", set.IDs())
	}
}

func TestParseRows_AmountRoundsHalfUp(t *testing.T) {
	rows := [][]string{
		{"Remaining Liability", "Amount This Period"},
		{"10", "2.5"},
		{"10", "2.49"},
	}
	set, err := ParseRows(rows, testCols)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.Obligations[0].AllocatedAmount != 3 {
		t.Errorf("2.5 rounded = %d, want 3", set.Obligations[0].AllocatedAmount)
	}
	if set.Obligations[1].AllocatedAmount != 2 {
		t.Errorf("2.49 rounded = %d, want 2", set.Obligations[1].AllocatedAmount)
	}
}

func TestParseRows_Errors(t *testing.T) {
	tests := []struct {
		name    string
		rows    [][]string
		wantIs  error
		wantRow int
	}{
		{
			name:   "no header",
			rows:   nil,
			wantIs: ErrMissingColumn,
		},
		{
			name:   "missing liability column",
			rows:   [][]string{{"Project"}, {"A"}},
			wantIs: ErrMissingColumn,
		},
		{
			name:    "negative liability",
			rows:    [][]string{{"Remaining Liability"}, {"5"}, {"-1"}},
			wantRow: 3,
		},
		{
			name:    "non numeric amount",
			rows:    [][]string{{"Remaining Liability", "Amount This Period"}, {"5", "abc"}},
			wantRow: 2,
		},
		{
			name:   "duplicate id",
			rows:   [][]string{{"Tracking No", "Remaining Liability"}, {"X", "1"}, {"X", "2"}},
			wantIs: ErrDuplicateID,
		},
		{
			name:    "empty id",
			rows:    [][]string{{"Tracking No", "Remaining Liability"}, {"", "1"}},
			wantRow: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRows(tt.rows, testCols)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
				t.Errorf("err = %v, want %v", err, tt.wantIs)
			}
			if tt.wantRow > 0 {
				var re *RowError
				if !errors.As(err, &re) {
					t.Fatalf("err = %v, want *RowError", err)
				}
				if re.Row != tt.wantRow {
					t.Errorf("Row = %d, want %d", re.Row, tt.wantRow)
				}
			}
		})
	}
}

func TestLoad_CSV(t *testing.T) {
	path := writeTempCSV(t,
		"\ufeffProject,Tracking No,Remaining Liability",
		"Bridge,T-1,100",
		"Tunnel,T-2,300",
	)

	set, err := Load(path, testCols)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.Len() != 2 {
		t.Fatalf("rows = %d, want 2", set.Len())
	}
	if set.Columns[0] != "Project" {
		t.Errorf("first column = %q, want Project (BOM stripped)", set.Columns[0])
	}
}

func TestLoad_Unsupported(t *testing.T) {
	_, err := Load("plan.ods", testCols)
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("err = %v, want ErrUnsupported", err)
	}
}

func FuzzParseRows(f *testing.F) {
	f.Add("Remaining Liability,Project\n100,A\n200,B")
	f.Add("Tracking No,Remaining Liability\nX,1\nX,2")
	f.Add("Remaining Liability\n-5")
	f.Add("")

	f.Fuzz(func(t *testing.T, data string) {
		rows, err := parseCSV(strings.NewReader(data))
		if err != nil {
			return
		}
		set, err := ParseRows(rows, testCols)
		if err != nil {
			return
		}
		seen := make(map[string]bool)
		for _, o := range set.Obligations {
			if o.RemainingLiability.IsNegative() {
				t.Fatalf("negative liability for %s", o.ID)
			}
			if o.AllocatedAmount < 0 {
				t.Fatalf("negative amount for %s", o.ID)
			}
			if seen[o.ID] {
				t.Fatalf("duplicate id %s", o.ID)
			}
			seen[o.ID] = true
		}
	})
}
