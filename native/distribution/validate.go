package distribution

import (
	"strings"
	"unicode/utf8"

	"github.com/holiman/uint256"
)

const (
	MaxNameLength        = 200
	MaxDescriptionLength = 2000
	MaxSlots             = 2
)

// CampaignParams describes a campaign to be created.
type CampaignParams struct {
	Name        string
	Description string
	RewardAsset string
	TotalReward *uint256.Int
	Slots       []DistributionSlot
	StartTime   int64
	EndTime     int64
}

func invalid(format string, args ...any) error {
	return newError(ErrInvalidCampaign).withDetail(format, args...)
}

// ValidateCampaignParams checks the schedule invariants the calculator relies
// on. now is used to reject campaigns starting in the past.
func ValidateCampaignParams(p CampaignParams, now int64) error {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return invalid("name required")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return invalid("name longer than %d characters", MaxNameLength)
	}
	if utf8.RuneCountInString(p.Description) > MaxDescriptionLength {
		return invalid("description longer than %d characters", MaxDescriptionLength)
	}
	if strings.TrimSpace(p.RewardAsset) == "" {
		return invalid("reward asset required")
	}
	if p.TotalReward == nil || p.TotalReward.IsZero() {
		return invalid("total reward must be positive")
	}
	if p.StartTime < 0 || p.StartTime >= p.EndTime {
		return invalid("start time %d must precede end time %d", p.StartTime, p.EndTime)
	}
	if p.StartTime < now {
		return invalid("start time %d is in the past", p.StartTime)
	}
	if len(p.Slots) == 0 || len(p.Slots) > MaxSlots {
		return invalid("campaign needs between 1 and %d distribution slots, got %d", MaxSlots, len(p.Slots))
	}
	sum := new(uint256.Int)
	for idx, slot := range p.Slots {
		if err := validateSlot(idx, slot, p.StartTime, p.EndTime); err != nil {
			return err
		}
		next, overflow := new(uint256.Int).AddOverflow(sum, &slot.Percentage.atomics)
		if overflow {
			return invalid("slot percentages overflow")
		}
		sum = next
	}
	if sum.Cmp(percentageUnit) != 0 {
		return invalid("slot percentages sum to %s, expected 1", PercentageFromAtomics(sum).String())
	}
	return nil
}

func validateSlot(idx int, slot DistributionSlot, start, end int64) error {
	if slot.Percentage.IsZero() {
		return invalid("slot %d has a zero percentage", idx)
	}
	if slot.StartTime < start || slot.StartTime >= end {
		return invalid("slot %d starts at %d outside the campaign window [%d, %d)", idx, slot.StartTime, start, end)
	}
	switch slot.Kind {
	case SlotLumpSum:
		return nil
	case SlotLinearVesting:
		if slot.EndTime <= slot.StartTime {
			return invalid("slot %d vesting end %d must follow its start %d", idx, slot.EndTime, slot.StartTime)
		}
		if slot.EndTime > end {
			return invalid("slot %d vesting end %d exceeds campaign end %d", idx, slot.EndTime, end)
		}
		if slot.CliffDuration < 0 || slot.CliffDuration >= slot.EndTime-slot.StartTime {
			return invalid("slot %d cliff %d must be shorter than the vesting window", idx, slot.CliffDuration)
		}
		return nil
	case SlotPeriodicVesting:
		return newError(ErrUnsupportedSlot).withDetail("slot %d uses periodic vesting", idx)
	default:
		return newError(ErrUnsupportedSlot).withDetail("slot %d has unknown kind %d", idx, slot.Kind)
	}
}
