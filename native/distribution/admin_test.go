package distribution_test

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"tokendrop/native/distribution"
)

func TestCreateCampaignOnlyOnce(t *testing.T) {
	h := newHarness(t)
	h.create(t, 100, lumpSum("1", t0))

	pool, err := h.state.DistributionPoolBalance("DROP")
	require.NoError(t, err)
	require.Equal(t, uint64(100), pool.Uint64())

	_, err = h.engine.CreateCampaign(t0-day, h.owner, distribution.CampaignParams{
		Name:        "again",
		RewardAsset: "DROP",
		TotalReward: uint256.NewInt(1),
		Slots:       []distribution.DistributionSlot{lumpSum("1", t0)},
		StartTime:   t0,
		EndTime:     t0 + day,
	})
	require.ErrorIs(t, err, distribution.ErrCampaignExists)
}

func TestCreateCampaignRejectsInvalidInput(t *testing.T) {
	h := newHarness(t)
	params := distribution.CampaignParams{
		Name:        "drop",
		RewardAsset: "DROP",
		TotalReward: uint256.NewInt(1),
		Slots:       []distribution.DistributionSlot{lumpSum("0.5", t0)},
		StartTime:   t0,
		EndTime:     t0 + day,
	}
	_, err := h.engine.CreateCampaign(t0-day, h.owner, params)
	require.ErrorIs(t, err, distribution.ErrInvalidCampaign)
	require.Equal(t, distribution.KindValidation, distribution.KindOf(err))

	params.Slots = []distribution.DistributionSlot{lumpSum("1", t0)}
	_, err = h.engine.CreateCampaign(t0-day, "bogus", params)
	require.ErrorIs(t, err, distribution.ErrInvalidAddress)

	_, err = h.engine.QueryCampaign()
	require.ErrorIs(t, err, distribution.ErrNoCampaign)
}

func TestTopUp(t *testing.T) {
	h := newHarness(t)
	h.create(t, 100, lumpSum("1", t0))

	_, err := h.engine.TopUp(t0, testAddr(t, 0x21), uint256.NewInt(5))
	require.ErrorIs(t, err, distribution.ErrUnauthorized)
	require.Equal(t, distribution.KindAuthorization, distribution.KindOf(err))

	_, err = h.engine.TopUp(t0, h.owner, new(uint256.Int))
	require.ErrorIs(t, err, distribution.ErrZeroAmount)

	campaign, err := h.engine.TopUp(t0, h.owner, uint256.NewInt(50))
	require.NoError(t, err)
	require.Equal(t, uint64(150), campaign.TotalReward.Uint64())

	pool, err := h.state.DistributionPoolBalance("DROP")
	require.NoError(t, err)
	require.Equal(t, uint64(150), pool.Uint64())
	require.Contains(t, h.emitter.Types(), distribution.EventTypeCampaignToppedUp)
}

func TestCloseCampaignRefundsOwner(t *testing.T) {
	h := newHarness(t)
	h.create(t, 100, lumpSum("1", t0))
	user := testAddr(t, 0x22)
	h.allocate(t, distribution.AllocationEntry{Address: user, Amount: uint256.NewInt(30)})

	_, err := h.engine.Claim(t0, user, "", nil)
	require.NoError(t, err)

	_, err = h.engine.CloseCampaign(t0+day, user)
	require.ErrorIs(t, err, distribution.ErrUnauthorized)

	refund, err := h.engine.CloseCampaign(t0+day, h.owner)
	require.NoError(t, err)
	require.Equal(t, uint64(70), refund.Uint64())

	paid, err := h.state.PayoutBalance(h.owner, "DROP")
	require.NoError(t, err)
	require.Equal(t, uint64(70), paid.Uint64())
	pool, err := h.state.DistributionPoolBalance("DROP")
	require.NoError(t, err)
	require.True(t, pool.IsZero())

	campaign, err := h.engine.QueryCampaign()
	require.NoError(t, err)
	require.True(t, campaign.IsClosed())
	require.Equal(t, t0+day, *campaign.ClosedAt)

	_, err = h.engine.CloseCampaign(t0+2*day, h.owner)
	require.ErrorIs(t, err, distribution.ErrCampaignClosed)
	_, err = h.engine.TopUp(t0+2*day, h.owner, uint256.NewInt(1))
	require.ErrorIs(t, err, distribution.ErrCampaignClosed)

	rewards, err := h.engine.QueryRewards(t0+2*day, user)
	require.NoError(t, err)
	require.True(t, rewards.AvailableToClaim.IsZero())
	require.Equal(t, uint64(30), rewards.Claimed.Uint64())
}

func TestAddAllocations(t *testing.T) {
	h := newHarness(t)
	h.create(t, 100, lumpSum("1", t0))
	a, b := testAddr(t, 0x23), testAddr(t, 0x24)

	err := h.engine.AddAllocations(t0-day, h.owner, []distribution.AllocationEntry{
		{Address: a, Amount: uint256.NewInt(1)},
		{Address: a, Amount: uint256.NewInt(2)},
	})
	require.ErrorIs(t, err, distribution.ErrAllocationExists)
	_, err = h.engine.QueryAllocation(a)
	require.ErrorIs(t, err, distribution.ErrNoAllocation, "a rejected upload writes nothing")

	err = h.engine.AddAllocations(t0-day, h.owner, []distribution.AllocationEntry{{Address: a, Amount: new(uint256.Int)}})
	require.ErrorIs(t, err, distribution.ErrZeroAmount)

	err = h.engine.AddAllocations(t0-day, testAddr(t, 0x25), []distribution.AllocationEntry{{Address: a, Amount: uint256.NewInt(1)}})
	require.ErrorIs(t, err, distribution.ErrUnauthorized)

	h.allocate(t, distribution.AllocationEntry{Address: a, Amount: uint256.NewInt(10)})
	err = h.engine.AddAllocations(t0-day, h.owner, []distribution.AllocationEntry{{Address: a, Amount: uint256.NewInt(1)}})
	require.ErrorIs(t, err, distribution.ErrAllocationExists)

	err = h.engine.AddAllocations(t0, h.owner, []distribution.AllocationEntry{{Address: b, Amount: uint256.NewInt(1)}})
	require.ErrorIs(t, err, distribution.ErrCampaignStarted)

	amount, err := h.engine.QueryAllocation(a)
	require.NoError(t, err)
	require.Equal(t, uint64(10), amount.Uint64())
}

func TestReplaceAddressMovesHistory(t *testing.T) {
	h := newHarness(t)
	h.create(t, 1_000, lumpSum("0.5", t0), linear("0.5", t0, t0+10*day, 0))
	oldAddr, newAddr := testAddr(t, 0x26), testAddr(t, 0x27)
	h.allocate(t, distribution.AllocationEntry{Address: oldAddr, Amount: uint256.NewInt(1_000)})

	_, err := h.engine.Claim(t0+2*day, oldAddr, "", nil)
	require.NoError(t, err)
	require.NoError(t, h.engine.Blacklist(h.owner, oldAddr, true))

	require.ErrorIs(t, h.engine.ReplaceAddress(t0+3*day, h.owner, oldAddr, oldAddr), distribution.ErrInvalidAddress)
	require.NoError(t, h.engine.ReplaceAddress(t0+3*day, h.owner, oldAddr, newAddr))

	_, err = h.engine.QueryAllocation(oldAddr)
	require.ErrorIs(t, err, distribution.ErrNoAllocation)
	require.Equal(t, uint64(600), h.ledgerTotal(t, newAddr))
	require.Zero(t, h.ledgerTotal(t, oldAddr))

	_, err = h.engine.Claim(t0+4*day, newAddr, "", nil)
	require.ErrorIs(t, err, distribution.ErrBlacklisted, "blacklist flag follows the allocation")

	require.NoError(t, h.engine.Blacklist(h.owner, newAddr, false))
	res, err := h.engine.Claim(t0+4*day, newAddr, "", nil)
	require.NoError(t, err)
	require.Equal(t, uint64(100), res.Amount.Uint64())

	audit, err := h.engine.AuditClaimedTotal()
	require.NoError(t, err)
	require.True(t, audit.Consistent)
	require.Equal(t, uint64(700), audit.Cached.Uint64())
}

func TestBlacklistRequiresOwner(t *testing.T) {
	h := newHarness(t)
	h.create(t, 100, lumpSum("1", t0))
	user := testAddr(t, 0x28)

	err := h.engine.Blacklist(user, user, true)
	require.ErrorIs(t, err, distribution.ErrUnauthorized)
	blocked, err := h.state.DistributionBlacklisted(user)
	require.NoError(t, err)
	require.False(t, blocked)
}
