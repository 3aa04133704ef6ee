package distribution

import (
	"github.com/holiman/uint256"
)

// allocationPhases lists the slot kinds in the order claims consume them.
// Lump sums are drained before vested amounts.
var allocationPhases = []SlotKind{SlotLumpSum, SlotLinearVesting}

// AllocateClaim distributes amount across the slots that have something
// claimable in fresh. Each phase walks slots of one kind in ascending index,
// taking at most the slot's fresh amount, until amount is exhausted. It
// returns the per-slot draws and whatever could not be placed.
func AllocateClaim(slots []DistributionSlot, fresh ClaimRecord, amount *uint256.Int) ([]SlotAllocation, *uint256.Int) {
	remaining := cloneAmount(amount)
	draws := make([]SlotAllocation, 0, len(fresh))
	for _, kind := range allocationPhases {
		for idx, slot := range slots {
			if remaining.IsZero() {
				return draws, remaining
			}
			if slot.Kind != kind {
				continue
			}
			available, ok := fresh[idx]
			if !ok || available.Amount == nil || available.Amount.IsZero() {
				continue
			}
			take := minUint(remaining, available.Amount)
			draws = append(draws, SlotAllocation{Slot: idx, Amount: take})
			remaining = new(uint256.Int).Sub(remaining, take)
		}
	}
	return draws, remaining
}
