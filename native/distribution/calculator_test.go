package distribution_test

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"tokendrop/native/distribution"
)

const (
	day = int64(24 * 60 * 60)
	t0  = int64(1_800_000_000)
)

func lumpSum(pct string, start int64) distribution.DistributionSlot {
	return distribution.DistributionSlot{Kind: distribution.SlotLumpSum, Percentage: distribution.MustPercentage(pct), StartTime: start}
}

func linear(pct string, start, end, cliff int64) distribution.DistributionSlot {
	return distribution.DistributionSlot{
		Kind:          distribution.SlotLinearVesting,
		Percentage:    distribution.MustPercentage(pct),
		StartTime:     start,
		EndTime:       end,
		CliffDuration: cliff,
	}
}

func campaignWith(slots ...distribution.DistributionSlot) *distribution.Campaign {
	return &distribution.Campaign{
		RewardAsset: "DROP",
		TotalReward: uint256.NewInt(1_000_000),
		Claimed:     new(uint256.Int),
		Slots:       slots,
		StartTime:   t0,
		EndTime:     t0 + 90*day,
	}
}

func TestComputeClaimableMixedSchedule(t *testing.T) {
	c := campaignWith(lumpSum("0.25", t0), linear("0.75", t0+7*day, t0+14*day, 0))
	entitlement := uint256.NewInt(10_000)

	total, fresh, err := distribution.ComputeClaimable(c, t0+day, entitlement, nil)
	require.NoError(t, err)
	require.Equal(t, uint64(2_500), total.Uint64())
	require.Len(t, fresh, 1)
	require.Equal(t, t0+day, fresh[0].LastClaimedAt)

	total, fresh, err = distribution.ComputeClaimable(c, t0+9*day, entitlement, nil)
	require.NoError(t, err)
	require.Equal(t, uint64(2_500+2_142), total.Uint64())
	require.Equal(t, uint64(2_142), fresh[1].Amount.Uint64())

	history := distribution.ClaimRecord{
		0: {Amount: uint256.NewInt(2_500), LastClaimedAt: t0 + day},
		1: {Amount: uint256.NewInt(2_142), LastClaimedAt: t0 + 9*day},
	}
	total, fresh, err = distribution.ComputeClaimable(c, t0+9*day, entitlement, history)
	require.NoError(t, err)
	require.True(t, total.IsZero())
	require.Empty(t, fresh)

	total, _, err = distribution.ComputeClaimable(c, t0+60*day, entitlement, history)
	require.NoError(t, err)
	require.Equal(t, uint64(7_500-2_142), total.Uint64(), "elapsed time is capped at the vesting window")
}

func TestComputeClaimableCliff(t *testing.T) {
	c := campaignWith(linear("1", t0, t0+100*day, 10*day))
	entitlement := uint256.NewInt(1_000)

	total, _, err := distribution.ComputeClaimable(c, t0+10*day-1, entitlement, nil)
	require.NoError(t, err)
	require.True(t, total.IsZero())

	total, _, err = distribution.ComputeClaimable(c, t0+10*day, entitlement, nil)
	require.NoError(t, err)
	require.Equal(t, uint64(100), total.Uint64(), "accrual since the start is released at the cliff")
}

func TestComputeClaimableSaturatesOverclaimedSlot(t *testing.T) {
	c := campaignWith(lumpSum("1", t0))
	history := distribution.ClaimRecord{0: {Amount: uint256.NewInt(500), LastClaimedAt: t0}}

	total, fresh, err := distribution.ComputeClaimable(c, t0, uint256.NewInt(100), history)
	require.NoError(t, err)
	require.True(t, total.IsZero())
	require.Empty(t, fresh)
}

func TestComputeClaimableFailures(t *testing.T) {
	c := campaignWith(lumpSum("1", t0))
	_, _, err := distribution.ComputeClaimable(c, t0-1, uint256.NewInt(1), nil)
	require.ErrorIs(t, err, distribution.ErrCampaignNotStarted)
	require.Equal(t, distribution.KindState, distribution.KindOf(err))

	periodic := campaignWith(distribution.DistributionSlot{
		Kind:           distribution.SlotPeriodicVesting,
		Percentage:     distribution.MustPercentage("1"),
		StartTime:      t0,
		EndTime:        t0 + day,
		UnlockInterval: 3600,
	})
	_, _, err = distribution.ComputeClaimable(periodic, t0+1, uint256.NewInt(1), nil)
	require.ErrorIs(t, err, distribution.ErrUnsupportedSlot)

	zeroWindow := campaignWith(linear("1", t0, t0, 0))
	_, _, err = distribution.ComputeClaimable(zeroWindow, t0+1, uint256.NewInt(1), nil)
	require.ErrorIs(t, err, distribution.ErrArithmeticOverflow)
	require.Equal(t, distribution.KindArithmetic, distribution.KindOf(err))
}

func TestComputeClaimableExtremeEntitlement(t *testing.T) {
	c := campaignWith(lumpSum("0.5", t0), linear("0.5", t0, t0+day, 0))
	max := new(uint256.Int).SetAllOne()

	total, fresh, err := distribution.ComputeClaimable(c, t0+day, max, nil)
	require.NoError(t, err)
	half := new(uint256.Int).Rsh(max, 1)
	require.Equal(t, half, fresh[0].Amount)
	require.Equal(t, half, fresh[1].Amount)
	require.Equal(t, new(uint256.Int).Sub(max, uint256.NewInt(1)), total)
}

func TestReconcileDust(t *testing.T) {
	c := campaignWith(lumpSum("0.333333333333333333", t0), linear("0.666666666666666667", t0, t0+10*day, 0))
	entitlement := uint256.NewInt(100)

	total, fresh, err := distribution.ComputeClaimable(c, t0+5*day, entitlement, nil)
	require.NoError(t, err)
	dust, _, err := distribution.ReconcileDust(c, t0+5*day, entitlement, nil, fresh)
	require.NoError(t, err)
	require.True(t, dust.IsZero(), "no dust before every slot is terminal")
	require.Equal(t, uint64(33+33), total.Uint64())

	total, fresh, err = distribution.ComputeClaimable(c, t0+10*day, entitlement, nil)
	require.NoError(t, err)
	require.Equal(t, uint64(99), total.Uint64())
	dust, target, err := distribution.ReconcileDust(c, t0+10*day, entitlement, nil, fresh)
	require.NoError(t, err)
	require.Equal(t, uint64(1), dust.Uint64())
	require.Equal(t, 1, target, "dust goes to the highest slot claimed in this invocation")

	drained := distribution.ClaimRecord{
		0: {Amount: uint256.NewInt(33), LastClaimedAt: t0},
		1: {Amount: uint256.NewInt(66), LastClaimedAt: t0 + 10*day},
	}
	dust, target, err = distribution.ReconcileDust(c, t0+11*day, entitlement, drained, distribution.ClaimRecord{})
	require.NoError(t, err)
	require.Equal(t, uint64(1), dust.Uint64())
	require.Equal(t, 0, target, "falls back to slot 0 when nothing else was claimed")
}

func TestAllocateClaimPriority(t *testing.T) {
	// The linear slot sits first but lump sums are still drained first.
	slots := []distribution.DistributionSlot{
		linear("0.75", t0, t0+10*day, 0),
		lumpSum("0.25", t0),
	}
	fresh := distribution.ClaimRecord{
		0: {Amount: uint256.NewInt(300), LastClaimedAt: t0},
		1: {Amount: uint256.NewInt(250), LastClaimedAt: t0},
	}

	draws, rest := distribution.AllocateClaim(slots, fresh, uint256.NewInt(100))
	require.True(t, rest.IsZero())
	require.Len(t, draws, 1)
	require.Equal(t, 1, draws[0].Slot)
	require.Equal(t, uint64(100), draws[0].Amount.Uint64())

	draws, rest = distribution.AllocateClaim(slots, fresh, uint256.NewInt(400))
	require.True(t, rest.IsZero())
	require.Len(t, draws, 2)
	require.Equal(t, 1, draws[0].Slot)
	require.Equal(t, uint64(250), draws[0].Amount.Uint64())
	require.Equal(t, 0, draws[1].Slot)
	require.Equal(t, uint64(150), draws[1].Amount.Uint64())

	draws, rest = distribution.AllocateClaim(slots, fresh, uint256.NewInt(600))
	require.Len(t, draws, 2)
	require.Equal(t, uint64(50), rest.Uint64())
}

func TestAllocateClaimSkipsSlotsWithoutEntries(t *testing.T) {
	slots := []distribution.DistributionSlot{lumpSum("0.5", t0), lumpSum("0.5", t0+day)}
	fresh := distribution.ClaimRecord{1: {Amount: uint256.NewInt(7), LastClaimedAt: t0 + day}}

	draws, rest := distribution.AllocateClaim(slots, fresh, uint256.NewInt(7))
	require.True(t, rest.IsZero())
	require.Equal(t, []distribution.SlotAllocation{{Slot: 1, Amount: uint256.NewInt(7)}}, draws)
}
