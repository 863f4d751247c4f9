// Package source imports obligations from spreadsheets and exports
// allocation sets back to them.
package source

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/payplan/internal/model"
)

// ParseRows turns a header row plus data rows into an allocation set.
//
// Blank rows are skipped. Liability and amount cells must be non-negative
// numbers; an empty liability counts as 0 and an empty amount as 0.
// Amounts are rounded half-up to whole units.
func ParseRows(rows [][]string, cols ColumnMap) (model.AllocationSet, error) {
	var set model.AllocationSet
	if len(rows) == 0 {
		return set, fmt.Errorf("%w: %q (no header row)", ErrMissingColumn, cols.Liability)
	}

	header := rows[0]
	find := func(name string) int {
		if name == "" {
			return -1
		}
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(name)) {
				return i
			}
		}
		return -1
	}

	liabIdx := find(cols.Liability)
	if liabIdx < 0 {
		return set, fmt.Errorf("%w: %q", ErrMissingColumn, cols.Liability)
	}
	idIdx := find(cols.ID)
	amtIdx := find(cols.Amount)

	type attrCol struct {
		idx  int
		name string
	}
	var attrs []attrCol
	for i, h := range header {
		if i == liabIdx || i == idIdx || i == amtIdx {
			continue
		}
		name := strings.TrimSpace(h)
		if name == "" {
			name = "column " + strconv.Itoa(i+1)
		}
		attrs = append(attrs, attrCol{idx: i, name: name})
		set.Columns = append(set.Columns, name)
	}

	seen := make(map[string]int)
	for r, row := range rows[1:] {
		lineNo := r + 2
		if blank(row) {
			continue
		}

		liab, err := parseNonNegative(cell(row, liabIdx))
		if err != nil {
			return model.AllocationSet{}, &RowError{Row: lineNo, Column: header[liabIdx], Value: cell(row, liabIdx), Reason: err.Error()}
		}

		var amount int64
		if amtIdx >= 0 {
			d, err := parseNonNegative(cell(row, amtIdx))
			if err != nil {
				return model.AllocationSet{}, &RowError{Row: lineNo, Column: header[amtIdx], Value: cell(row, amtIdx), Reason: err.Error()}
			}
			if d.GreaterThan(maxAmount) {
				return model.AllocationSet{}, &RowError{Row: lineNo, Column: header[amtIdx], Value: cell(row, amtIdx), Reason: "too large"}
			}
			amount = d.Round(0).IntPart()
		}

		id := strconv.Itoa(len(set.Obligations) + 1)
		if idIdx >= 0 {
			id = strings.TrimSpace(cell(row, idIdx))
			if id == "" {
				return model.AllocationSet{}, &RowError{Row: lineNo, Column: header[idIdx], Reason: "empty id"}
			}
		}
		if prev, ok := seen[id]; ok {
			return model.AllocationSet{}, fmt.Errorf("%w: %q on rows %d and %d", ErrDuplicateID, id, prev, lineNo)
		}
		seen[id] = lineNo

		o := model.Obligation{
			ID:                 id,
			RemainingLiability: liab,
			AllocatedAmount:    amount,
			Attributes:         make(map[string]string, len(attrs)),
		}
		for _, a := range attrs {
			o.Attributes[a.name] = strings.TrimSpace(cell(row, a.idx))
		}
		set.Obligations = append(set.Obligations, o)
	}

	return set, nil
}

var maxAmount = decimal.NewFromInt(math.MaxInt64 / 2)

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseNonNegative(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errors.New("not a number")
	}
	if d.IsNegative() {
		return decimal.Zero, errors.New("negative value")
	}
	return d, nil
}
