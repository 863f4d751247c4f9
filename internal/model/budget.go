package model

import "github.com/shopspring/decimal"

// BudgetStats summarizes a set against its budget.
type BudgetStats struct {
	Budget           int64
	DistributedTotal int64
	Remaining        int64 // Budget - DistributedTotal, negative when over
	TotalLiability   decimal.Decimal
	Rows             int
	LockedRows       int
	LockedAmount     int64
	BudgetUsedPct    float64
}

// OverBudget reports whether more has been distributed than budgeted.
func (b BudgetStats) OverBudget() bool {
	return b.DistributedTotal > b.Budget
}

// GroupStats aggregates the rows sharing one attribute value.
type GroupStats struct {
	Key         string
	Value       string
	Members     []string // row ids in row order
	Amount      int64
	Liability   decimal.Decimal
	LockedCount int
}

// AllLocked reports whether every member of the group is locked.
func (g GroupStats) AllLocked() bool {
	return len(g.Members) > 0 && g.LockedCount == len(g.Members)
}
