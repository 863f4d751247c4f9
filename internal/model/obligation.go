// Package model defines domain types for payplan obligations and allocations.
package model

import "github.com/shopspring/decimal"

// Obligation is one payable row: a remaining liability and the amount
// allocated to it for the current period.
type Obligation struct {
	// ID is assigned at import and never changes for the row's lifetime.
	ID                 string
	RemainingLiability decimal.Decimal
	// Attributes holds display-only columns (project, counterparty, ...)
	// keyed by column name. The engine never reads them except for group edits.
	Attributes      map[string]string
	AllocatedAmount int64
}

// Attr returns the attribute value for key, or "" if unset.
func (o Obligation) Attr(key string) string {
	if o.Attributes == nil {
		return ""
	}
	return o.Attributes[key]
}

// Clone returns a deep copy of the obligation.
func (o Obligation) Clone() Obligation {
	cp := o
	if o.Attributes != nil {
		cp.Attributes = make(map[string]string, len(o.Attributes))
		for k, v := range o.Attributes {
			cp.Attributes[k] = v
		}
	}
	return cp
}

// AllocationSet is the ordered row set of one session. Order is import order
// and is never changed by sorting or grouping for display.
type AllocationSet struct {
	// Columns lists the attribute column names in source order.
	Columns     []string
	Obligations []Obligation
}

// Len returns the number of rows.
func (s AllocationSet) Len() int {
	return len(s.Obligations)
}

// Clone returns a deep copy that shares no memory with s.
func (s AllocationSet) Clone() AllocationSet {
	cp := AllocationSet{
		Columns:     append([]string(nil), s.Columns...),
		Obligations: make([]Obligation, len(s.Obligations)),
	}
	for i, o := range s.Obligations {
		cp.Obligations[i] = o.Clone()
	}
	return cp
}

// Total returns the distributed total: the sum of all allocated amounts.
func (s AllocationSet) Total() int64 {
	var total int64
	for _, o := range s.Obligations {
		total += o.AllocatedAmount
	}
	return total
}

// TotalLiability returns the sum of all remaining liabilities.
func (s AllocationSet) TotalLiability() decimal.Decimal {
	total := decimal.Zero
	for _, o := range s.Obligations {
		total = total.Add(o.RemainingLiability)
	}
	return total
}

// IndexOf returns the position of the row with the given id, or -1.
func (s AllocationSet) IndexOf(id string) int {
	for i, o := range s.Obligations {
		if o.ID == id {
			return i
		}
	}
	return -1
}

// IDs returns all row ids in row order.
func (s AllocationSet) IDs() []string {
	ids := make([]string, len(s.Obligations))
	for i, o := range s.Obligations {
		ids[i] = o.ID
	}
	return ids
}

// GroupMembers returns the row indexes whose attribute key equals value,
// in row order.
func (s AllocationSet) GroupMembers(key, value string) []int {
	var idx []int
	for i, o := range s.Obligations {
		if o.Attr(key) == value {
			idx = append(idx, i)
		}
	}
	return idx
}

// HasColumn reports whether name is one of the set's attribute columns.
func (s AllocationSet) HasColumn(name string) bool {
	for _, c := range s.Columns {
		if c == name {
			return true
		}
	}
	return false
}
