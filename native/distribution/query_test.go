package distribution_test

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"tokendrop/native/distribution"
)

func TestQueryRewardsBeforeStart(t *testing.T) {
	h := newHarness(t)
	h.create(t, 100, lumpSum("1", t0))
	user := testAddr(t, 0x31)
	h.allocate(t, distribution.AllocationEntry{Address: user, Amount: uint256.NewInt(40)})

	rewards, err := h.engine.QueryRewards(t0-1, user)
	require.NoError(t, err)
	require.True(t, rewards.Claimed.IsZero())
	require.Equal(t, uint64(40), rewards.Pending.Uint64())
	require.True(t, rewards.AvailableToClaim.IsZero())

	_, err = h.engine.QueryRewards(t0, testAddr(t, 0x32))
	require.ErrorIs(t, err, distribution.ErrNoAllocation)
}

func TestQueryClaimedPagination(t *testing.T) {
	h := newHarness(t)
	h.create(t, 1_000, lumpSum("1", t0))
	var entries []distribution.AllocationEntry
	for b := byte(0x40); b < 0x45; b++ {
		entries = append(entries, distribution.AllocationEntry{Address: testAddr(t, b), Amount: uint256.NewInt(uint64(b))})
	}
	h.allocate(t, entries...)
	for _, entry := range entries {
		_, err := h.engine.Claim(t0, entry.Address, "", nil)
		require.NoError(t, err)
	}

	first, err := h.engine.QueryClaimed("", "", 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.True(t, first[0].Address < first[1].Address)

	rest, err := h.engine.QueryClaimed("", first[1].Address, 0)
	require.NoError(t, err)
	require.Len(t, rest, 3)
	require.True(t, first[1].Address < rest[0].Address)

	var sum uint64
	for _, entry := range append(first, rest...) {
		sum += entry.Claimed.Uint64()
	}
	require.Equal(t, uint64(0x40+0x41+0x42+0x43+0x44), sum)

	single, err := h.engine.QueryClaimed(entries[2].Address, "", 0)
	require.NoError(t, err)
	require.Equal(t, []distribution.ClaimedEntry{{Address: entries[2].Address, Claimed: uint256.NewInt(0x42)}}, single)

	never, err := h.engine.QueryClaimed(testAddr(t, 0x50), "", 0)
	require.NoError(t, err)
	require.True(t, never[0].Claimed.IsZero())

	_, err = h.engine.QueryClaimed("nope", "", 0)
	require.ErrorIs(t, err, distribution.ErrInvalidAddress)
}

func TestAuditClaimedTotal(t *testing.T) {
	h := newHarness(t)
	_, err := h.engine.AuditClaimedTotal()
	require.ErrorIs(t, err, distribution.ErrNoCampaign)

	h.create(t, 1_000, lumpSum("1", t0))
	a, b := testAddr(t, 0x33), testAddr(t, 0x34)
	h.allocate(t,
		distribution.AllocationEntry{Address: a, Amount: uint256.NewInt(10)},
		distribution.AllocationEntry{Address: b, Amount: uint256.NewInt(20)},
	)
	_, err = h.engine.Claim(t0, a, "", nil)
	require.NoError(t, err)
	_, err = h.engine.Claim(t0, b, "", uint256.NewInt(5))
	require.NoError(t, err)

	audit, err := h.engine.AuditClaimedTotal()
	require.NoError(t, err)
	require.True(t, audit.Consistent)
	require.Equal(t, uint64(15), audit.LedgerSum.Uint64())
}
