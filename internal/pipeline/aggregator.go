// Package pipeline derives display views and aggregates from allocation sets.
// Nothing here mutates the set it is given.
package pipeline

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/payplan/internal/model"
)

// Built-in sort keys. Any attribute column name is also a valid key.
const (
	SortByID        = "id"
	SortByLiability = "liability"
	SortByAmount    = "amount"
)

// SortView returns row indexes of set in display order. The sort is stable,
// so rows with equal keys keep import order. An empty key yields import order.
func SortView(set model.AllocationSet, key string, desc bool) []int {
	idx := make([]int, len(set.Obligations))
	for i := range idx {
		idx[i] = i
	}
	if key == "" {
		return idx
	}

	obs := set.Obligations
	var cmp func(a, b model.Obligation) int
	switch key {
	case SortByID:
		cmp = func(a, b model.Obligation) int { return compareText(a.ID, b.ID) }
	case SortByLiability:
		cmp = func(a, b model.Obligation) int { return a.RemainingLiability.Cmp(b.RemainingLiability) }
	case SortByAmount:
		cmp = func(a, b model.Obligation) int { return compareInt(a.AllocatedAmount, b.AllocatedAmount) }
	default:
		cmp = func(a, b model.Obligation) int { return compareText(a.Attr(key), b.Attr(key)) }
	}

	sort.SliceStable(idx, func(i, j int) bool {
		c := cmp(obs[idx[i]], obs[idx[j]])
		if desc {
			return c > 0
		}
		return c < 0
	})
	return idx
}

// OrderByGroup stably reorders idx so rows sharing a value of attribute key
// are adjacent, groups in first-seen order. Within a group idx order is kept.
func OrderByGroup(set model.AllocationSet, key string, idx []int) []int {
	out := append([]int(nil), idx...)
	if key == "" {
		return out
	}
	rank := make(map[string]int)
	for _, i := range idx {
		v := set.Obligations[i].Attr(key)
		if _, ok := rank[v]; !ok {
			rank[v] = len(rank)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return rank[set.Obligations[out[i]].Attr(key)] < rank[set.Obligations[out[j]].Attr(key)]
	})
	return out
}

// SortKeys lists the keys SortView accepts for set, attributes first.
func SortKeys(set model.AllocationSet) []string {
	keys := append([]string(nil), set.Columns...)
	return append(keys, SortByID, SortByLiability, SortByAmount)
}

// GroupValues returns the distinct values of attribute key in first-seen order.
func GroupValues(set model.AllocationSet, key string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, o := range set.Obligations {
		v := o.Attr(key)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// GroupTotals aggregates set by attribute key, in first-seen order.
func GroupTotals(set model.AllocationSet, locks model.LockSet, key string) []model.GroupStats {
	groups := make(map[string]*model.GroupStats)
	var order []string

	for _, o := range set.Obligations {
		v := o.Attr(key)
		g, ok := groups[v]
		if !ok {
			g = &model.GroupStats{Key: key, Value: v, Liability: decimal.Zero}
			groups[v] = g
			order = append(order, v)
		}
		g.Members = append(g.Members, o.ID)
		g.Amount += o.AllocatedAmount
		g.Liability = g.Liability.Add(o.RemainingLiability)
		if locks.Has(o.ID) {
			g.LockedCount++
		}
	}

	out := make([]model.GroupStats, 0, len(order))
	for _, v := range order {
		out = append(out, *groups[v])
	}
	return out
}

// SortGroups orders groups by amount, largest first, keeping first-seen
// order for ties.
func SortGroups(groups []model.GroupStats) []model.GroupStats {
	out := append([]model.GroupStats(nil), groups...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount > out[j].Amount
	})
	return out
}

// Summarize computes budget statistics for set.
func Summarize(set model.AllocationSet, locks model.LockSet, budget int64) model.BudgetStats {
	stats := model.BudgetStats{
		Budget:         budget,
		TotalLiability: decimal.Zero,
		Rows:           len(set.Obligations),
	}
	for _, o := range set.Obligations {
		stats.DistributedTotal += o.AllocatedAmount
		stats.TotalLiability = stats.TotalLiability.Add(o.RemainingLiability)
		if locks.Has(o.ID) {
			stats.LockedRows++
			stats.LockedAmount += o.AllocatedAmount
		}
	}
	stats.Remaining = budget - stats.DistributedTotal
	if budget > 0 {
		stats.BudgetUsedPct = float64(stats.DistributedTotal) / float64(budget) * 100
	}
	return stats
}

// FilterByText keeps the rows where any attribute or the id contains substr,
// ignoring case. It returns row indexes.
func FilterByText(set model.AllocationSet, substr string) []int {
	var out []int
	for i, o := range set.Obligations {
		if substr == "" || containsIgnoreCase(o.ID, substr) {
			out = append(out, i)
			continue
		}
		for _, c := range set.Columns {
			if containsIgnoreCase(o.Attr(c), substr) {
				out = append(out, i)
				break
			}
		}
	}
	return out
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func compareText(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
