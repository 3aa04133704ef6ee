package distribution

import (
	"github.com/holiman/uint256"
)

// slotsTerminal reports whether every slot has reached its final accrual:
// lump sums have started and vesting windows have ended.
func slotsTerminal(campaign *Campaign, now int64) bool {
	for _, slot := range campaign.Slots {
		switch slot.Kind {
		case SlotLumpSum:
			if now < slot.StartTime {
				return false
			}
		case SlotLinearVesting:
			if now < slot.EndTime {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// ReconcileDust returns the rounding residual that becomes claimable once all
// slots are terminal and the slot it is attributed to. The residual is the
// entitlement minus everything claimed before and within this invocation. It
// is attributed to the highest slot index stamped with now in fresh, or slot 0
// when nothing was claimed in this invocation.
func ReconcileDust(campaign *Campaign, now int64, entitlement *uint256.Int, previous, fresh ClaimRecord) (*uint256.Int, int, error) {
	if campaign == nil || !slotsTerminal(campaign, now) {
		return new(uint256.Int), 0, nil
	}
	claimed := new(uint256.Int)
	for idx := range campaign.Slots {
		var err error
		claimed, err = checkedAdd("dust total", claimed, previous.Claimed(idx))
		if err != nil {
			return nil, 0, err
		}
		claimed, err = checkedAdd("dust total", claimed, fresh.Claimed(idx))
		if err != nil {
			return nil, 0, err
		}
	}
	dust := saturatingSub(entitlement, claimed)
	if dust.IsZero() {
		return dust, 0, nil
	}
	target := 0
	for _, idx := range fresh.Slots() {
		if fresh[idx].LastClaimedAt == now {
			target = idx
		}
	}
	return dust, target, nil
}

// computeMaxClaimable runs the calculator and folds any dust into the
// breakdown.
func computeMaxClaimable(campaign *Campaign, now int64, entitlement *uint256.Int, record ClaimRecord) (*uint256.Int, ClaimRecord, *uint256.Int, error) {
	total, fresh, err := ComputeClaimable(campaign, now, entitlement, record)
	if err != nil {
		return nil, nil, nil, err
	}
	dust, target, err := ReconcileDust(campaign, now, entitlement, record, fresh)
	if err != nil {
		return nil, nil, nil, err
	}
	if dust.IsZero() {
		return total, fresh, dust, nil
	}
	slotAmount, err := checkedAdd("dust slot", fresh.Claimed(target), dust)
	if err != nil {
		return nil, nil, nil, err
	}
	fresh[target] = SlotClaim{Amount: slotAmount, LastClaimedAt: now}
	total, err = checkedAdd("dust total", total, dust)
	if err != nil {
		return nil, nil, nil, err
	}
	return total, fresh, dust, nil
}
