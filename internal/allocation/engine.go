// Package allocation computes per-row payment amounts from a budget.
//
// Every function is pure: it copies the input set, works on the copy and
// returns it. Callers never observe a partially updated set.
package allocation

import (
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/payplan/internal/model"
)

// DistributeInitial gives every row round(budget / N), ignoring locks.
// It returns the new set and its distributed total, which may differ from
// budget by rounding.
func DistributeInitial(set model.AllocationSet, budget int64) (model.AllocationSet, int64) {
	out := set.Clone()
	n := len(out.Obligations)
	if n == 0 {
		return out, 0
	}

	each := roundHalfUp(decimal.NewFromInt(budget).Div(decimal.NewFromInt(int64(n))))
	if each < 0 {
		each = 0
	}
	for i := range out.Obligations {
		out.Obligations[i].AllocatedAmount = each
	}
	return out, out.Total()
}

// RedistributeProportional splits what is left of budget after locked rows
// across the free rows in proportion to their remaining liability.
//
// Locked rows keep their amount. When the locked rows alone exceed budget,
// or the free rows carry no liability, every free row gets 0. Otherwise the
// free rows sum to exactly budget minus the locked amount: rounding residue
// is handed out one unit at a time, cycling over the free rows in row order.
func RedistributeProportional(set model.AllocationSet, locks model.LockSet, budget int64) model.AllocationSet {
	out := set.Clone()
	obs := out.Obligations

	var free []int
	var reserved int64
	for i, o := range obs {
		if locks.Has(o.ID) {
			reserved += o.AllocatedAmount
			continue
		}
		free = append(free, i)
	}
	if len(free) == 0 {
		return out
	}

	remaining := budget - reserved
	totalWeight := decimal.Zero
	for _, i := range free {
		if w := obs[i].RemainingLiability; w.IsPositive() {
			totalWeight = totalWeight.Add(w)
		}
	}

	if remaining <= 0 || totalWeight.IsZero() {
		for _, i := range free {
			obs[i].AllocatedAmount = 0
		}
		return out
	}

	pool := decimal.NewFromInt(remaining)
	residual := remaining
	for _, i := range free {
		share := roundHalfUp(obs[i].RemainingLiability.Mul(pool).Div(totalWeight))
		if share < 0 {
			share = 0
		}
		obs[i].AllocatedAmount = share
		residual -= share
	}

	spreadResidue(obs, free, residual)
	return out
}

// EditCell sets one row's amount. It does not consult locks or the budget:
// going over budget is reported by the caller, not refused here.
func EditCell(set model.AllocationSet, targetID string, newAmount int64) (model.AllocationSet, error) {
	if newAmount < 0 {
		return set, validationf("negative amount")
	}
	idx := set.IndexOf(targetID)
	if idx < 0 {
		return set, validationf("unknown obligation %q", targetID)
	}

	out := set.Clone()
	out.Obligations[idx].AllocatedAmount = newAmount
	return out, nil
}

// EditGroupTotal rescales the unlocked rows whose attribute key equals value
// so their combined amount comes to newTotal.
//
// Locked members keep their amount and are left out of the scaling base.
// A group whose unlocked members currently sum to 0 is split evenly, with
// the remainder going one unit each to the first members. Otherwise every
// unlocked member becomes round(old * newTotal / oldTotal); rounding may
// leave the group a few units off newTotal.
func EditGroupTotal(set model.AllocationSet, locks model.LockSet, key, value string, newTotal int64) (model.AllocationSet, error) {
	if newTotal < 0 {
		return set, validationf("negative group total")
	}
	members := set.GroupMembers(key, value)
	if len(members) == 0 {
		return set, validationf("no rows where %s = %q", key, value)
	}

	out := set.Clone()
	obs := out.Obligations

	var unlocked []int
	var oldTotal int64
	for _, i := range members {
		if locks.Has(obs[i].ID) {
			continue
		}
		unlocked = append(unlocked, i)
		oldTotal += obs[i].AllocatedAmount
	}
	if len(unlocked) == 0 {
		return out, nil
	}

	switch {
	case newTotal == 0:
		for _, i := range unlocked {
			obs[i].AllocatedAmount = 0
		}

	case oldTotal == 0:
		count := int64(len(unlocked))
		base, extra := newTotal/count, newTotal%count
		for k, i := range unlocked {
			obs[i].AllocatedAmount = base
			if int64(k) < extra {
				obs[i].AllocatedAmount++
			}
		}

	default:
		scale := decimal.NewFromInt(newTotal)
		base := decimal.NewFromInt(oldTotal)
		for _, i := range unlocked {
			old := decimal.NewFromInt(obs[i].AllocatedAmount)
			obs[i].AllocatedAmount = roundHalfUp(old.Mul(scale).Div(base))
		}
	}

	return out, nil
}

// spreadResidue adds residue to the rows at idx one unit at a time, in
// order, wrapping around until it is used up. Negative residue takes units
// away and skips rows already at 0. It stops early if a full pass makes no
// progress.
func spreadResidue(obs []model.Obligation, idx []int, residue int64) {
	if len(idx) == 0 {
		return
	}
	step := int64(1)
	if residue < 0 {
		step = -1
	}
	for residue != 0 {
		moved := false
		for _, i := range idx {
			if residue == 0 {
				break
			}
			if step < 0 && obs[i].AllocatedAmount == 0 {
				continue
			}
			obs[i].AllocatedAmount += step
			residue -= step
			moved = true
		}
		if !moved {
			return
		}
	}
}

// roundHalfUp rounds d to the nearest integer, halves away from zero.
func roundHalfUp(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}
