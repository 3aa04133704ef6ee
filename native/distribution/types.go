package distribution

import (
	"fmt"
	"sort"
	"strings"

	"github.com/holiman/uint256"
)

// SlotKind identifies the schedule rule of a distribution slot.
type SlotKind uint8

const (
	SlotLumpSum SlotKind = iota
	SlotLinearVesting
	// SlotPeriodicVesting is recognised by the decoder but has no accrual
	// rule; campaigns using it are rejected.
	SlotPeriodicVesting
)

func (k SlotKind) String() string {
	switch k {
	case SlotLumpSum:
		return "lump_sum"
	case SlotLinearVesting:
		return "linear_vesting"
	case SlotPeriodicVesting:
		return "periodic_vesting"
	default:
		return "unknown"
	}
}

// ParseSlotKind maps the textual slot type used in genesis files.
func ParseSlotKind(value string) (SlotKind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "lump_sum", "lumpsum":
		return SlotLumpSum, nil
	case "linear_vesting", "linear":
		return SlotLinearVesting, nil
	case "periodic_vesting", "periodic":
		return SlotPeriodicVesting, nil
	default:
		return 0, fmt.Errorf("distribution: unknown slot type %q", value)
	}
}

// DistributionSlot is one schedule segment. Its position in Campaign.Slots is
// its index and its allocation priority within its kind.
type DistributionSlot struct {
	Kind       SlotKind
	Percentage Percentage
	StartTime  int64
	// EndTime applies to vesting slots.
	EndTime int64
	// CliffDuration in seconds; zero means no cliff.
	CliffDuration int64
	// UnlockInterval only exists for periodic slots.
	UnlockInterval int64
}

// Campaign holds the schedule configuration and the running totals of the
// single distribution campaign.
type Campaign struct {
	Owner       string
	Name        string
	Description string
	RewardAsset string
	TotalReward *uint256.Int
	Claimed     *uint256.Int
	Slots       []DistributionSlot
	StartTime   int64
	EndTime     int64
	// ClosedAt is nil while the campaign is active.
	ClosedAt *int64
}

// Clone returns a deep copy of the campaign.
func (c *Campaign) Clone() *Campaign {
	if c == nil {
		return nil
	}
	clone := *c
	clone.TotalReward = cloneAmount(c.TotalReward)
	clone.Claimed = cloneAmount(c.Claimed)
	clone.Slots = append([]DistributionSlot(nil), c.Slots...)
	if c.ClosedAt != nil {
		closed := *c.ClosedAt
		clone.ClosedAt = &closed
	}
	return &clone
}

func (c *Campaign) HasStarted(now int64) bool { return now >= c.StartTime }

func (c *Campaign) IsClosed() bool { return c.ClosedAt != nil }

// SlotClaim is the cumulative amount claimed from one slot and when it last
// changed.
type SlotClaim struct {
	Amount        *uint256.Int
	LastClaimedAt int64
}

// ClaimRecord is an address's claim history keyed by slot index.
type ClaimRecord map[int]SlotClaim

// Clone returns a deep copy of the record.
func (r ClaimRecord) Clone() ClaimRecord {
	out := make(ClaimRecord, len(r))
	for slot, claim := range r {
		out[slot] = SlotClaim{Amount: cloneAmount(claim.Amount), LastClaimedAt: claim.LastClaimedAt}
	}
	return out
}

// Claimed returns the amount recorded for a slot, zero when absent.
func (r ClaimRecord) Claimed(slot int) *uint256.Int {
	if claim, ok := r[slot]; ok {
		return cloneAmount(claim.Amount)
	}
	return new(uint256.Int)
}

// Total sums the amounts across all slots.
func (r ClaimRecord) Total() (*uint256.Int, error) {
	total := new(uint256.Int)
	for _, slot := range r.Slots() {
		next, err := checkedAdd("ledger total", total, r[slot].Amount)
		if err != nil {
			return nil, err
		}
		total = next
	}
	return total, nil
}

// Slots returns the populated slot indices in ascending order.
func (r ClaimRecord) Slots() []int {
	slots := make([]int, 0, len(r))
	for slot := range r {
		slots = append(slots, slot)
	}
	sort.Ints(slots)
	return slots
}

// AllocationEntry pairs an address with its total entitlement.
type AllocationEntry struct {
	Address string
	Amount  *uint256.Int
}

// SlotAllocation is the share of a claim drawn from a single slot.
type SlotAllocation struct {
	Slot   int
	Amount *uint256.Int
}

// ClaimResult reports a settled claim. Amount is what must be transferred to
// Receiver.
type ClaimResult struct {
	Receiver    string
	Asset       string
	Amount      *uint256.Int
	Dust        *uint256.Int
	Allocations []SlotAllocation
}

// Rewards summarises an address's position.
type Rewards struct {
	Claimed          *uint256.Int
	Pending          *uint256.Int
	AvailableToClaim *uint256.Int
}

// ClaimedEntry is one row of the claimed-totals listing.
type ClaimedEntry struct {
	Address string
	Claimed *uint256.Int
}

// Payout credits an address with an amount of an asset.
type Payout struct {
	Address string
	Asset   string
	Amount  *uint256.Int
}

// Changeset buffers every mutation of a single operation. The state backend
// applies it in one atomic write.
type Changeset struct {
	Campaign          *Campaign
	Allocations       map[string]*uint256.Int
	DeleteAllocations []string
	Claims            map[string]ClaimRecord
	DeleteClaims      []string
	Blacklist         map[string]bool
	// PoolBalances holds the new absolute balance per asset.
	PoolBalances map[string]*uint256.Int
	Payouts      []Payout
}

func newChangeset() *Changeset {
	return &Changeset{
		Allocations:  make(map[string]*uint256.Int),
		Claims:       make(map[string]ClaimRecord),
		Blacklist:    make(map[string]bool),
		PoolBalances: make(map[string]*uint256.Int),
	}
}
