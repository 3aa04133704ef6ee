package distribution

import (
	"strings"

	"github.com/holiman/uint256"
)

const (
	DefaultQueryLimit = 10
	MaxQueryLimit     = 100
)

// QueryCampaign returns a copy of the campaign record.
func (e *Engine) QueryCampaign() (*Campaign, error) {
	if e == nil {
		return nil, newError(ErrNilState)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	campaign, err := e.loadCampaign()
	if err != nil {
		return nil, err
	}
	return campaign.Clone(), nil
}

// QueryAllocation returns the entitlement registered for addr.
func (e *Engine) QueryAllocation(addr string) (*uint256.Int, error) {
	if e == nil || e.state == nil {
		return nil, newError(ErrNilState)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	canonical, err := e.validAddress(addr)
	if err != nil {
		return nil, err
	}
	amount, ok, err := e.state.DistributionAllocationGet(canonical)
	if err != nil {
		return nil, err
	}
	if !ok || amount == nil {
		return nil, newError(ErrNoAllocation).withAddress(canonical)
	}
	return cloneAmount(amount), nil
}

// QueryRewards re-runs the claim computation for addr at time now without
// mutating anything. AvailableToClaim is zero before the start and after the
// close.
func (e *Engine) QueryRewards(now int64, addr string) (*Rewards, error) {
	if e == nil {
		return nil, newError(ErrNilState)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	campaign, err := e.loadCampaign()
	if err != nil {
		return nil, err
	}
	canonical, err := e.validAddress(addr)
	if err != nil {
		return nil, err
	}
	entitlement, ok, err := e.state.DistributionAllocationGet(canonical)
	if err != nil {
		return nil, err
	}
	if !ok || entitlement == nil {
		return nil, newError(ErrNoAllocation).withAddress(canonical)
	}
	record, err := e.loadRecord(canonical)
	if err != nil {
		return nil, err
	}
	claimed, err := record.Total()
	if err != nil {
		return nil, err
	}
	available := new(uint256.Int)
	if campaign.HasStarted(now) && !campaign.IsClosed() {
		available, _, _, err = computeMaxClaimable(campaign, now, entitlement, record)
		if err != nil {
			return nil, err
		}
	}
	return &Rewards{
		Claimed:          claimed,
		Pending:          saturatingSub(entitlement, claimed),
		AvailableToClaim: available,
	}, nil
}

// QueryClaimed lists claimed totals in ascending address order. When addr is
// set only that address is reported (with zero if it never claimed).
// Pagination resumes strictly after startAfter.
func (e *Engine) QueryClaimed(addr, startAfter string, limit int) ([]ClaimedEntry, error) {
	if e == nil || e.state == nil {
		return nil, newError(ErrNilState)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if strings.TrimSpace(addr) != "" {
		canonical, err := e.validAddress(addr)
		if err != nil {
			return nil, err
		}
		record, err := e.loadRecord(canonical)
		if err != nil {
			return nil, err
		}
		total, err := record.Total()
		if err != nil {
			return nil, err
		}
		return []ClaimedEntry{{Address: canonical, Claimed: total}}, nil
	}

	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	if limit > MaxQueryLimit {
		limit = MaxQueryLimit
	}
	entries := make([]ClaimedEntry, 0, limit)
	err := e.state.DistributionClaimsIterate(strings.TrimSpace(startAfter), func(address string, record ClaimRecord) (bool, error) {
		total, err := record.Total()
		if err != nil {
			return false, err
		}
		entries = append(entries, ClaimedEntry{Address: address, Claimed: total})
		return len(entries) < limit, nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// ClaimedAudit compares the cached campaign counter with the ledger sum.
type ClaimedAudit struct {
	Cached     *uint256.Int
	LedgerSum  *uint256.Int
	Consistent bool
}

// AuditClaimedTotal derives the claimed total from the full ledger.
func (e *Engine) AuditClaimedTotal() (*ClaimedAudit, error) {
	if e == nil {
		return nil, newError(ErrNilState)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	campaign, err := e.loadCampaign()
	if err != nil {
		return nil, err
	}
	sum := new(uint256.Int)
	err = e.state.DistributionClaimsIterate("", func(_ string, record ClaimRecord) (bool, error) {
		total, err := record.Total()
		if err != nil {
			return false, err
		}
		sum, err = checkedAdd("ledger sum", sum, total)
		return err == nil, err
	})
	if err != nil {
		return nil, err
	}
	cached := cloneAmount(campaign.Claimed)
	return &ClaimedAudit{Cached: cached, LedgerSum: sum, Consistent: cached.Cmp(sum) == 0}, nil
}
