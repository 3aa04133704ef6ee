package distribution

import (
	"strings"

	"github.com/holiman/uint256"
)

func (e *Engine) requireOwner(campaign *Campaign, caller string) (string, error) {
	addr, err := e.validAddress(caller)
	if err != nil {
		return "", err
	}
	if addr != campaign.Owner {
		return "", newError(ErrUnauthorized).withAddress(addr)
	}
	return addr, nil
}

func (e *Engine) commit(operation string, cs *Changeset) error {
	if err := e.state.DistributionCommit(cs); err != nil {
		return e.fail(operation, err)
	}
	e.telemetry.ObserveAdmin(operation)
	for asset, balance := range cs.PoolBalances {
		e.telemetry.SetPoolBalance(asset, balance.ToBig())
	}
	return nil
}

// CreateCampaign registers the campaign owned by owner and deposits its total
// reward into the pool. Only one campaign may ever exist.
func (e *Engine) CreateCampaign(now int64, owner string, params CampaignParams) (*Campaign, error) {
	if e == nil || e.state == nil {
		return nil, newError(ErrNilState)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok, err := e.state.DistributionCampaignGet(); err != nil {
		return nil, e.fail("create", err)
	} else if ok {
		return nil, e.fail("create", newError(ErrCampaignExists))
	}
	ownerAddr, err := e.validAddress(owner)
	if err != nil {
		return nil, e.fail("create", err)
	}
	if err := ValidateCampaignParams(params, now); err != nil {
		return nil, e.fail("create", err)
	}
	campaign := &Campaign{
		Owner:       ownerAddr,
		Name:        strings.TrimSpace(params.Name),
		Description: strings.TrimSpace(params.Description),
		RewardAsset: normalizeAsset(params.RewardAsset),
		TotalReward: cloneAmount(params.TotalReward),
		Claimed:     new(uint256.Int),
		Slots:       append([]DistributionSlot(nil), params.Slots...),
		StartTime:   params.StartTime,
		EndTime:     params.EndTime,
	}
	balance, err := e.state.DistributionPoolBalance(campaign.RewardAsset)
	if err != nil {
		return nil, e.fail("create", err)
	}
	funded, err := checkedAdd("pool deposit", balance, campaign.TotalReward)
	if err != nil {
		return nil, e.fail("create", err)
	}
	cs := newChangeset()
	cs.Campaign = campaign
	cs.PoolBalances[campaign.RewardAsset] = funded
	if err := e.commit("create", cs); err != nil {
		return nil, err
	}
	e.emit(CampaignCreatedEvent(campaign))
	return campaign.Clone(), nil
}

// TopUp increases the reward pool of an open campaign.
func (e *Engine) TopUp(now int64, caller string, amount *uint256.Int) (*Campaign, error) {
	if e == nil {
		return nil, newError(ErrNilState)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	campaign, err := e.loadCampaign()
	if err != nil {
		return nil, e.fail("top_up", err)
	}
	if _, err := e.requireOwner(campaign, caller); err != nil {
		return nil, e.fail("top_up", err)
	}
	if campaign.IsClosed() {
		return nil, e.fail("top_up", newError(ErrCampaignClosed))
	}
	if amount == nil || amount.IsZero() {
		return nil, e.fail("top_up", newError(ErrZeroAmount))
	}
	next := campaign.Clone()
	if next.TotalReward, err = checkedAdd("total reward", campaign.TotalReward, amount); err != nil {
		return nil, e.fail("top_up", err)
	}
	balance, err := e.state.DistributionPoolBalance(campaign.RewardAsset)
	if err != nil {
		return nil, e.fail("top_up", err)
	}
	funded, err := checkedAdd("pool deposit", balance, amount)
	if err != nil {
		return nil, e.fail("top_up", err)
	}
	cs := newChangeset()
	cs.Campaign = next
	cs.PoolBalances[campaign.RewardAsset] = funded
	if err := e.commit("top_up", cs); err != nil {
		return nil, err
	}
	e.emit(CampaignToppedUpEvent(next.RewardAsset, amount, next.TotalReward))
	return next.Clone(), nil
}

// CloseCampaign ends the campaign at now and refunds the remaining pool to
// the owner. The refund amount is returned.
func (e *Engine) CloseCampaign(now int64, caller string) (*uint256.Int, error) {
	if e == nil {
		return nil, newError(ErrNilState)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	campaign, err := e.loadCampaign()
	if err != nil {
		return nil, e.fail("close", err)
	}
	owner, err := e.requireOwner(campaign, caller)
	if err != nil {
		return nil, e.fail("close", err)
	}
	if campaign.IsClosed() {
		return nil, e.fail("close", newError(ErrCampaignClosed))
	}
	refund, err := e.state.DistributionPoolBalance(campaign.RewardAsset)
	if err != nil {
		return nil, e.fail("close", err)
	}
	next := campaign.Clone()
	closedAt := now
	next.ClosedAt = &closedAt

	cs := newChangeset()
	cs.Campaign = next
	cs.PoolBalances[campaign.RewardAsset] = new(uint256.Int)
	if !refund.IsZero() {
		cs.Payouts = append(cs.Payouts, Payout{Address: owner, Asset: campaign.RewardAsset, Amount: cloneAmount(refund)})
	}
	if err := e.commit("close", cs); err != nil {
		return nil, err
	}
	e.emit(CampaignClosedEvent(owner, campaign.RewardAsset, refund, now))
	return cloneAmount(refund), nil
}

// AddAllocations uploads entitlements before the campaign starts. Addresses
// already present, repeated within the batch, or carrying zero amounts are
// rejected and nothing is written.
func (e *Engine) AddAllocations(now int64, caller string, entries []AllocationEntry) error {
	if e == nil {
		return newError(ErrNilState)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	campaign, err := e.loadCampaign()
	if err != nil {
		return e.fail("allocate", err)
	}
	if _, err := e.requireOwner(campaign, caller); err != nil {
		return e.fail("allocate", err)
	}
	if campaign.IsClosed() {
		return e.fail("allocate", newError(ErrCampaignClosed))
	}
	if campaign.HasStarted(now) {
		return e.fail("allocate", newError(ErrCampaignStarted))
	}
	cs := newChangeset()
	total := new(uint256.Int)
	for _, entry := range entries {
		addr, err := e.validAddress(entry.Address)
		if err != nil {
			return e.fail("allocate", err)
		}
		if entry.Amount == nil || entry.Amount.IsZero() {
			return e.fail("allocate", newError(ErrZeroAmount).withAddress(addr))
		}
		if _, dup := cs.Allocations[addr]; dup {
			return e.fail("allocate", newError(ErrAllocationExists).withAddress(addr).withDetail("duplicated in upload"))
		}
		if _, ok, err := e.state.DistributionAllocationGet(addr); err != nil {
			return e.fail("allocate", err)
		} else if ok {
			return e.fail("allocate", newError(ErrAllocationExists).withAddress(addr))
		}
		cs.Allocations[addr] = cloneAmount(entry.Amount)
		if total, err = checkedAdd("allocation total", total, entry.Amount); err != nil {
			return e.fail("allocate", err)
		}
	}
	if len(cs.Allocations) == 0 {
		return nil
	}
	if err := e.commit("allocate", cs); err != nil {
		return err
	}
	e.emit(AllocationsAddedEvent(len(cs.Allocations), total))
	return nil
}

// ReplaceAddress moves the allocation, claim history and blacklist flag of
// oldAddr to newAddr. The ledger entry moves verbatim so the campaign's
// claimed counter stays equal to the ledger sum.
func (e *Engine) ReplaceAddress(now int64, caller, oldAddr, newAddr string) error {
	if e == nil {
		return newError(ErrNilState)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	campaign, err := e.loadCampaign()
	if err != nil {
		return e.fail("replace", err)
	}
	if _, err := e.requireOwner(campaign, caller); err != nil {
		return e.fail("replace", err)
	}
	from, err := e.validAddress(oldAddr)
	if err != nil {
		return e.fail("replace", err)
	}
	to, err := e.validAddress(newAddr)
	if err != nil {
		return e.fail("replace", err)
	}
	if from == to {
		return e.fail("replace", newError(ErrInvalidAddress).withAddress(to).withDetail("replacement must differ"))
	}
	amount, ok, err := e.state.DistributionAllocationGet(from)
	if err != nil {
		return e.fail("replace", err)
	}
	if !ok {
		return e.fail("replace", newError(ErrNoAllocation).withAddress(from))
	}
	if _, exists, err := e.state.DistributionAllocationGet(to); err != nil {
		return e.fail("replace", err)
	} else if exists {
		return e.fail("replace", newError(ErrAllocationExists).withAddress(to))
	}
	record, hasRecord, err := e.state.DistributionClaimsGet(from)
	if err != nil {
		return e.fail("replace", err)
	}
	blocked, err := e.state.DistributionBlacklisted(from)
	if err != nil {
		return e.fail("replace", err)
	}

	cs := newChangeset()
	cs.Allocations[to] = cloneAmount(amount)
	cs.DeleteAllocations = append(cs.DeleteAllocations, from)
	if hasRecord {
		cs.Claims[to] = record.Clone()
		cs.DeleteClaims = append(cs.DeleteClaims, from)
	}
	if blocked {
		cs.Blacklist[from] = false
		cs.Blacklist[to] = true
	}
	if err := e.commit("replace", cs); err != nil {
		return err
	}
	e.emit(AddressReplacedEvent(from, to))
	e.logger.Info("distribution address replaced", "old", from, "new", to, "at", now)
	return nil
}

// Blacklist blocks or unblocks addr from claiming.
func (e *Engine) Blacklist(caller, addr string, blocked bool) error {
	if e == nil {
		return newError(ErrNilState)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	campaign, err := e.loadCampaign()
	if err != nil {
		return e.fail("blacklist", err)
	}
	if _, err := e.requireOwner(campaign, caller); err != nil {
		return e.fail("blacklist", err)
	}
	target, err := e.validAddress(addr)
	if err != nil {
		return e.fail("blacklist", err)
	}
	cs := newChangeset()
	cs.Blacklist[target] = blocked
	if err := e.commit("blacklist", cs); err != nil {
		return err
	}
	e.emit(BlacklistUpdatedEvent(target, blocked))
	return nil
}

func normalizeAsset(asset string) string {
	return strings.ToUpper(strings.TrimSpace(asset))
}
