package state

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/holiman/uint256"

	"tokendrop/native/distribution"
)

func prefixedKey(prefix []byte, parts ...string) []byte {
	key := append([]byte(nil), prefix...)
	key = append(key, strings.Join(parts, "/")...)
	return key
}

type storedSlot struct {
	Kind           uint8
	Percentage     *big.Int
	StartTime      uint64
	EndTime        uint64
	CliffDuration  uint64
	UnlockInterval uint64
}

type storedCampaign struct {
	Owner       string
	Name        string
	Description string
	RewardAsset string
	TotalReward *big.Int
	Claimed     *big.Int
	Slots       []storedSlot
	StartTime   uint64
	EndTime     uint64
	Closed      bool
	ClosedAt    uint64
}

type storedSlotClaim struct {
	Slot          uint64
	Amount        *big.Int
	LastClaimedAt uint64
}

type storedClaimRecord struct {
	Slots []storedSlotClaim
}

type storedAmount struct {
	Amount *big.Int
}

func toUnsigned(field string, v int64) (uint64, error) {
	if v < 0 {
		return 0, fmt.Errorf("state: %s must not be negative (got %d)", field, v)
	}
	return uint64(v), nil
}

func toSigned(field string, v uint64) (int64, error) {
	if v > 1<<63-1 {
		return 0, fmt.Errorf("state: %s out of range (got %d)", field, v)
	}
	return int64(v), nil
}

func bigFromAmount(v *uint256.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v.ToBig()
}

func amountFromBig(field string, v *big.Int) (*uint256.Int, error) {
	if v == nil {
		return new(uint256.Int), nil
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("state: %s must not be negative", field)
	}
	out, overflow := uint256.FromBig(v)
	if overflow {
		return nil, fmt.Errorf("state: %s exceeds 256 bits", field)
	}
	return out, nil
}

func newStoredCampaign(c *distribution.Campaign) (*storedCampaign, error) {
	out := &storedCampaign{
		Owner:       c.Owner,
		Name:        c.Name,
		Description: c.Description,
		RewardAsset: c.RewardAsset,
		TotalReward: bigFromAmount(c.TotalReward),
		Claimed:     bigFromAmount(c.Claimed),
		Slots:       make([]storedSlot, len(c.Slots)),
	}
	var err error
	if out.StartTime, err = toUnsigned("start time", c.StartTime); err != nil {
		return nil, err
	}
	if out.EndTime, err = toUnsigned("end time", c.EndTime); err != nil {
		return nil, err
	}
	if c.ClosedAt != nil {
		out.Closed = true
		if out.ClosedAt, err = toUnsigned("closed at", *c.ClosedAt); err != nil {
			return nil, err
		}
	}
	for i, slot := range c.Slots {
		stored := storedSlot{Kind: uint8(slot.Kind), Percentage: slot.Percentage.Atomics().ToBig()}
		if stored.StartTime, err = toUnsigned("slot start time", slot.StartTime); err != nil {
			return nil, err
		}
		if stored.EndTime, err = toUnsigned("slot end time", slot.EndTime); err != nil {
			return nil, err
		}
		if stored.CliffDuration, err = toUnsigned("slot cliff", slot.CliffDuration); err != nil {
			return nil, err
		}
		if stored.UnlockInterval, err = toUnsigned("slot unlock interval", slot.UnlockInterval); err != nil {
			return nil, err
		}
		out.Slots[i] = stored
	}
	return out, nil
}

func (s *storedCampaign) toCampaign() (*distribution.Campaign, error) {
	out := &distribution.Campaign{
		Owner:       s.Owner,
		Name:        s.Name,
		Description: s.Description,
		RewardAsset: s.RewardAsset,
		Slots:       make([]distribution.DistributionSlot, len(s.Slots)),
	}
	var err error
	if out.TotalReward, err = amountFromBig("total reward", s.TotalReward); err != nil {
		return nil, err
	}
	if out.Claimed, err = amountFromBig("claimed", s.Claimed); err != nil {
		return nil, err
	}
	if out.StartTime, err = toSigned("start time", s.StartTime); err != nil {
		return nil, err
	}
	if out.EndTime, err = toSigned("end time", s.EndTime); err != nil {
		return nil, err
	}
	if s.Closed {
		closedAt, err := toSigned("closed at", s.ClosedAt)
		if err != nil {
			return nil, err
		}
		out.ClosedAt = &closedAt
	}
	for i, stored := range s.Slots {
		pct, err := amountFromBig("slot percentage", stored.Percentage)
		if err != nil {
			return nil, err
		}
		slot := distribution.DistributionSlot{
			Kind:       distribution.SlotKind(stored.Kind),
			Percentage: distribution.PercentageFromAtomics(pct),
		}
		if slot.StartTime, err = toSigned("slot start time", stored.StartTime); err != nil {
			return nil, err
		}
		if slot.EndTime, err = toSigned("slot end time", stored.EndTime); err != nil {
			return nil, err
		}
		if slot.CliffDuration, err = toSigned("slot cliff", stored.CliffDuration); err != nil {
			return nil, err
		}
		if slot.UnlockInterval, err = toSigned("slot unlock interval", stored.UnlockInterval); err != nil {
			return nil, err
		}
		out.Slots[i] = slot
	}
	return out, nil
}

func newStoredClaimRecord(r distribution.ClaimRecord) (*storedClaimRecord, error) {
	out := &storedClaimRecord{Slots: make([]storedSlotClaim, 0, len(r))}
	for _, slot := range r.Slots() {
		claim := r[slot]
		ts, err := toUnsigned("last claimed at", claim.LastClaimedAt)
		if err != nil {
			return nil, err
		}
		out.Slots = append(out.Slots, storedSlotClaim{
			Slot:          uint64(slot),
			Amount:        bigFromAmount(claim.Amount),
			LastClaimedAt: ts,
		})
	}
	return out, nil
}

func (s *storedClaimRecord) toRecord() (distribution.ClaimRecord, error) {
	out := make(distribution.ClaimRecord, len(s.Slots))
	for _, stored := range s.Slots {
		amount, err := amountFromBig("slot claim", stored.Amount)
		if err != nil {
			return nil, err
		}
		ts, err := toSigned("last claimed at", stored.LastClaimedAt)
		if err != nil {
			return nil, err
		}
		out[int(stored.Slot)] = distribution.SlotClaim{Amount: amount, LastClaimedAt: ts}
	}
	return out, nil
}

// DistributionCampaignGet loads the campaign record.
func (m *Manager) DistributionCampaignGet() (*distribution.Campaign, bool, error) {
	var stored storedCampaign
	ok, err := m.loadRLP(distributionCampaignKey, &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	campaign, err := stored.toCampaign()
	if err != nil {
		return nil, false, err
	}
	return campaign, true, nil
}

// DistributionAllocationGet returns the entitlement stored for addr.
func (m *Manager) DistributionAllocationGet(addr string) (*uint256.Int, bool, error) {
	var stored storedAmount
	ok, err := m.loadRLP(prefixedKey(distributionAllocationPrefix, addr), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	amount, err := amountFromBig("allocation", stored.Amount)
	if err != nil {
		return nil, false, err
	}
	return amount, true, nil
}

// DistributionClaimsGet returns the claim record for addr.
func (m *Manager) DistributionClaimsGet(addr string) (distribution.ClaimRecord, bool, error) {
	var stored storedClaimRecord
	ok, err := m.loadRLP(prefixedKey(distributionClaimsPrefix, addr), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	record, err := stored.toRecord()
	if err != nil {
		return nil, false, err
	}
	return record, true, nil
}

// DistributionClaimsIterate walks claim records in ascending address order,
// starting strictly after startAfter.
func (m *Manager) DistributionClaimsIterate(startAfter string, fn func(addr string, record distribution.ClaimRecord) (bool, error)) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("state: database not configured")
	}
	var start []byte
	if startAfter != "" {
		start = append(prefixedKey(distributionClaimsPrefix, startAfter), 0x00)
	}
	return m.db.Iterate(distributionClaimsPrefix, start, func(key, value []byte) (bool, error) {
		addr := string(key[len(distributionClaimsPrefix):])
		var stored storedClaimRecord
		if err := decodeRLP(value, &stored); err != nil {
			return false, fmt.Errorf("state: decode claims for %s: %w", addr, err)
		}
		record, err := stored.toRecord()
		if err != nil {
			return false, err
		}
		return fn(addr, record)
	})
}

// DistributionAllocationsIterate walks the allocation table in ascending
// address order.
func (m *Manager) DistributionAllocationsIterate(fn func(addr string, amount *uint256.Int) (bool, error)) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("state: database not configured")
	}
	return m.db.Iterate(distributionAllocationPrefix, nil, func(key, value []byte) (bool, error) {
		addr := string(key[len(distributionAllocationPrefix):])
		var stored storedAmount
		if err := decodeRLP(value, &stored); err != nil {
			return false, fmt.Errorf("state: decode allocation for %s: %w", addr, err)
		}
		amount, err := amountFromBig("allocation", stored.Amount)
		if err != nil {
			return false, err
		}
		return fn(addr, amount)
	})
}

// DistributionBlacklisted reports whether addr is blocked from claiming.
func (m *Manager) DistributionBlacklisted(addr string) (bool, error) {
	if m == nil || m.db == nil {
		return false, fmt.Errorf("state: database not configured")
	}
	return m.db.Has(prefixedKey(distributionBlacklistPrefix, addr))
}

// DistributionPoolBalance returns the spendable reward balance for asset.
func (m *Manager) DistributionPoolBalance(asset string) (*uint256.Int, error) {
	var stored storedAmount
	ok, err := m.loadRLP(prefixedKey(distributionPoolPrefix, asset), &stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return new(uint256.Int), nil
	}
	return amountFromBig("pool balance", stored.Amount)
}

// PayoutBalance returns the cumulative amount of asset paid out to addr.
func (m *Manager) PayoutBalance(addr, asset string) (*uint256.Int, error) {
	var stored storedAmount
	ok, err := m.loadRLP(prefixedKey(distributionPayoutPrefix, addr, asset), &stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return new(uint256.Int), nil
	}
	return amountFromBig("payout balance", stored.Amount)
}

// DistributionCommit applies a changeset in a single batch write. Nothing is
// written when any part of it fails to encode.
func (m *Manager) DistributionCommit(cs *distribution.Changeset) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("state: database not configured")
	}
	if cs == nil {
		return nil
	}
	batch := m.db.NewBatch()
	if cs.Campaign != nil {
		stored, err := newStoredCampaign(cs.Campaign)
		if err != nil {
			return err
		}
		if err := putRLP(batch, distributionCampaignKey, stored); err != nil {
			return err
		}
	}
	for _, addr := range cs.DeleteAllocations {
		batch.Delete(prefixedKey(distributionAllocationPrefix, addr))
	}
	for _, addr := range sortedKeys(cs.Allocations) {
		if err := putRLP(batch, prefixedKey(distributionAllocationPrefix, addr), &storedAmount{Amount: bigFromAmount(cs.Allocations[addr])}); err != nil {
			return err
		}
	}
	for _, addr := range cs.DeleteClaims {
		batch.Delete(prefixedKey(distributionClaimsPrefix, addr))
	}
	for _, addr := range sortedKeys(cs.Claims) {
		stored, err := newStoredClaimRecord(cs.Claims[addr])
		if err != nil {
			return err
		}
		if err := putRLP(batch, prefixedKey(distributionClaimsPrefix, addr), stored); err != nil {
			return err
		}
	}
	for _, addr := range sortedKeys(cs.Blacklist) {
		key := prefixedKey(distributionBlacklistPrefix, addr)
		if cs.Blacklist[addr] {
			batch.Put(key, []byte{1})
		} else {
			batch.Delete(key)
		}
	}
	for _, asset := range sortedKeys(cs.PoolBalances) {
		if err := putRLP(batch, prefixedKey(distributionPoolPrefix, asset), &storedAmount{Amount: bigFromAmount(cs.PoolBalances[asset])}); err != nil {
			return err
		}
	}
	credited := make(map[string]*uint256.Int)
	for _, payout := range cs.Payouts {
		if payout.Amount == nil || payout.Amount.IsZero() {
			continue
		}
		key := string(prefixedKey(distributionPayoutPrefix, payout.Address, payout.Asset))
		balance, ok := credited[key]
		if !ok {
			current, err := m.PayoutBalance(payout.Address, payout.Asset)
			if err != nil {
				return err
			}
			balance = current
		}
		next, overflow := new(uint256.Int).AddOverflow(balance, payout.Amount)
		if overflow {
			return fmt.Errorf("state: payout balance for %s overflows", payout.Address)
		}
		credited[key] = next
	}
	for _, key := range sortedKeys(credited) {
		if err := putRLP(batch, []byte(key), &storedAmount{Amount: credited[key].ToBig()}); err != nil {
			return err
		}
	}
	return batch.Write()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
