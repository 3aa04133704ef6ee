// core/genesis/spec.go
package genesis

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"tokendrop/native/distribution"
)

// Spec is the YAML document that seeds a campaign: the campaign itself, the
// allocation table and any addresses blocked from the start.
type Spec struct {
	Owner       string            `yaml:"owner"`
	Campaign    CampaignSpec      `yaml:"campaign"`
	Allocations map[string]string `yaml:"allocations"` // addr -> amount
	Blacklist   []string          `yaml:"blacklist"`

	params      distribution.CampaignParams
	allocations []distribution.AllocationEntry
}

type CampaignSpec struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	RewardAsset string     `yaml:"rewardAsset"`
	TotalReward string     `yaml:"totalReward"`
	StartTime   string     `yaml:"startTime"`
	EndTime     string     `yaml:"endTime"`
	Slots       []SlotSpec `yaml:"slots"`
}

type SlotSpec struct {
	Type       string        `yaml:"type"`
	Percentage string        `yaml:"percentage"`
	StartTime  string        `yaml:"startTime"`
	EndTime    string        `yaml:"endTime,omitempty"`
	Cliff      time.Duration `yaml:"cliff,omitempty"`
}

// LoadSpec reads and validates a genesis document. Unknown fields are
// rejected.
func LoadSpec(path string) (*Spec, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("genesis spec path must be provided")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read genesis spec %q: %w", path, err)
	}
	spec, err := ParseSpec(raw)
	if err != nil {
		return nil, fmt.Errorf("genesis spec %q: %w", path, err)
	}
	return spec, nil
}

// ParseSpec decodes and validates a genesis document held in memory.
func ParseSpec(raw []byte) (*Spec, error) {
	var spec Spec
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := spec.validate(); err != nil {
		return nil, fmt.Errorf("invalid: %w", err)
	}
	return &spec, nil
}

// Params returns the campaign parameters parsed from the document.
func (s *Spec) Params() distribution.CampaignParams { return s.params }

// AllocationEntries returns the allocation table ordered by address.
func (s *Spec) AllocationEntries() []distribution.AllocationEntry {
	return append([]distribution.AllocationEntry(nil), s.allocations...)
}

func (s *Spec) validate() error {
	if strings.TrimSpace(s.Owner) == "" {
		return fmt.Errorf("owner must be provided")
	}
	c := s.Campaign
	total, err := distribution.ParseAmount(c.TotalReward)
	if err != nil {
		return fmt.Errorf("campaign.totalReward: %w", err)
	}
	start, err := parseTime("campaign.startTime", c.StartTime)
	if err != nil {
		return err
	}
	end, err := parseTime("campaign.endTime", c.EndTime)
	if err != nil {
		return err
	}
	slots := make([]distribution.DistributionSlot, 0, len(c.Slots))
	for i, raw := range c.Slots {
		slot, err := raw.toSlot()
		if err != nil {
			return fmt.Errorf("campaign.slots[%d]: %w", i, err)
		}
		slots = append(slots, slot)
	}
	s.params = distribution.CampaignParams{
		Name:        c.Name,
		Description: c.Description,
		RewardAsset: c.RewardAsset,
		TotalReward: total,
		Slots:       slots,
		StartTime:   start,
		EndTime:     end,
	}

	addrs := make([]string, 0, len(s.Allocations))
	for addr := range s.Allocations {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)
	s.allocations = make([]distribution.AllocationEntry, 0, len(addrs))
	for _, addr := range addrs {
		amount, err := distribution.ParseAmount(s.Allocations[addr])
		if err != nil {
			return fmt.Errorf("allocations[%s]: %w", addr, err)
		}
		s.allocations = append(s.allocations, distribution.AllocationEntry{Address: addr, Amount: amount})
	}
	return nil
}

func (s SlotSpec) toSlot() (distribution.DistributionSlot, error) {
	var slot distribution.DistributionSlot
	kind, err := distribution.ParseSlotKind(s.Type)
	if err != nil {
		return slot, err
	}
	pct, err := distribution.ParsePercentage(s.Percentage)
	if err != nil {
		return slot, fmt.Errorf("percentage: %w", err)
	}
	start, err := parseTime("startTime", s.StartTime)
	if err != nil {
		return slot, err
	}
	slot = distribution.DistributionSlot{
		Kind:          kind,
		Percentage:    pct,
		StartTime:     start,
		CliffDuration: int64(s.Cliff / time.Second),
	}
	if strings.TrimSpace(s.EndTime) != "" {
		if slot.EndTime, err = parseTime("endTime", s.EndTime); err != nil {
			return slot, err
		}
	}
	return slot, nil
}

func parseTime(field, value string) (int64, error) {
	if strings.TrimSpace(value) == "" {
		return 0, fmt.Errorf("%s must be provided", field)
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts.Unix(), nil
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts.Unix(), nil
	}
	return 0, fmt.Errorf("invalid %s %q", field, value)
}
