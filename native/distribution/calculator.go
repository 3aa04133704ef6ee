package distribution

import (
	"github.com/holiman/uint256"
)

// ComputeClaimable returns the amount newly claimable by an address with the
// given entitlement and claim history at time now, together with the per-slot
// breakdown. Each breakdown entry is stamped with now. Slots with nothing new
// are omitted.
func ComputeClaimable(campaign *Campaign, now int64, entitlement *uint256.Int, record ClaimRecord) (*uint256.Int, ClaimRecord, error) {
	if campaign == nil {
		return nil, nil, newError(ErrNoCampaign)
	}
	if !campaign.HasStarted(now) {
		return nil, nil, newError(ErrCampaignNotStarted).withDetail("starts at %d, now %d", campaign.StartTime, now)
	}
	total := new(uint256.Int)
	fresh := make(ClaimRecord)
	for idx, slot := range campaign.Slots {
		if now < slot.StartTime {
			continue
		}
		var (
			due *uint256.Int
			err error
		)
		switch slot.Kind {
		case SlotLumpSum:
			due, err = lumpSumDue(slot, entitlement)
		case SlotLinearVesting:
			if slot.CliffDuration > 0 && now < slot.StartTime+slot.CliffDuration {
				continue
			}
			due, err = linearVested(slot, now, entitlement)
		default:
			err = newError(ErrUnsupportedSlot).withDetail("slot %d has kind %s", idx, slot.Kind)
		}
		if err != nil {
			return nil, nil, err
		}
		amount := saturatingSub(due, record.Claimed(idx))
		if amount.IsZero() {
			continue
		}
		total, err = checkedAdd("claimable total", total, amount)
		if err != nil {
			return nil, nil, err
		}
		fresh[idx] = SlotClaim{Amount: amount, LastClaimedAt: now}
	}
	return total, fresh, nil
}

func slotEntitlement(slot DistributionSlot, entitlement *uint256.Int) (*uint256.Int, error) {
	return applyPercentage(zeroIfNil(entitlement), slot.Percentage)
}

func lumpSumDue(slot DistributionSlot, entitlement *uint256.Int) (*uint256.Int, error) {
	return slotEntitlement(slot, entitlement)
}

// linearVested is floor(slotEntitlement * elapsed / duration) with elapsed
// capped at the slot window.
func linearVested(slot DistributionSlot, now int64, entitlement *uint256.Int) (*uint256.Int, error) {
	if slot.EndTime <= slot.StartTime {
		return nil, arithmeticError("vesting ratio", "slot has a zero-length vesting window")
	}
	share, err := slotEntitlement(slot, entitlement)
	if err != nil {
		return nil, err
	}
	duration := uint64(slot.EndTime - slot.StartTime)
	elapsed := uint64(now - slot.StartTime)
	if elapsed > duration {
		elapsed = duration
	}
	return mulDivFloor("vesting ratio", share, uint256.NewInt(elapsed), uint256.NewInt(duration))
}
