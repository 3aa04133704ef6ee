// core/genesis/loader.go
package genesis

import (
	"fmt"

	"tokendrop/native/distribution"
)

// AllocationChunkSize bounds the number of entries written per allocation
// batch during import.
const AllocationChunkSize = 1000

// Summary reports what an import wrote.
type Summary struct {
	Campaign    *distribution.Campaign
	Allocations int
	Blacklisted int
}

// Apply creates the campaign described by spec, uploads its allocations and
// applies the initial blacklist. now must precede the campaign start.
func Apply(engine *distribution.Engine, spec *Spec, now int64) (*Summary, error) {
	if spec == nil {
		return nil, fmt.Errorf("genesis spec must not be nil")
	}
	if engine == nil {
		return nil, fmt.Errorf("engine must not be nil")
	}
	campaign, err := engine.CreateCampaign(now, spec.Owner, spec.Params())
	if err != nil {
		return nil, fmt.Errorf("create campaign: %w", err)
	}
	summary := &Summary{Campaign: campaign}

	entries := spec.AllocationEntries()
	for start := 0; start < len(entries); start += AllocationChunkSize {
		end := start + AllocationChunkSize
		if end > len(entries) {
			end = len(entries)
		}
		if err := engine.AddAllocations(now, campaign.Owner, entries[start:end]); err != nil {
			return summary, fmt.Errorf("allocations %d-%d: %w", start, end-1, err)
		}
		summary.Allocations = end
	}

	for _, addr := range spec.Blacklist {
		if err := engine.Blacklist(campaign.Owner, addr, true); err != nil {
			return summary, fmt.Errorf("blacklist %s: %w", addr, err)
		}
		summary.Blacklisted++
	}
	return summary, nil
}
