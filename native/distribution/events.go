package distribution

import (
	"strconv"

	"github.com/holiman/uint256"

	"tokendrop/core/events"
	"tokendrop/core/types"
)

const (
	// EventTypeCampaignCreated is emitted when the campaign is registered.
	EventTypeCampaignCreated = "distribution.campaign.created"
	// EventTypeCampaignToppedUp is emitted when the reward pool is increased.
	EventTypeCampaignToppedUp = "distribution.campaign.topped_up"
	// EventTypeCampaignClosed is emitted when the owner closes the campaign.
	EventTypeCampaignClosed = "distribution.campaign.closed"
	// EventTypeAllocationsAdded is emitted after a bulk allocation upload.
	EventTypeAllocationsAdded = "distribution.allocations.added"
	// EventTypeAddressReplaced is emitted when an allocation moves to a new address.
	EventTypeAddressReplaced = "distribution.address.replaced"
	// EventTypeBlacklistUpdated is emitted when an address is blocked or unblocked.
	EventTypeBlacklistUpdated = "distribution.blacklist.updated"
	// EventTypeClaimed is emitted for every settled claim.
	EventTypeClaimed = "distribution.claimed"
)

type eventEnvelope struct {
	evt *types.Event
}

func (e eventEnvelope) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e eventEnvelope) Event() *types.Event { return e.evt }

// WrapEvent converts a raw event payload into the emitter-friendly envelope.
func WrapEvent(evt *types.Event) events.Event { return eventEnvelope{evt: evt} }

func formatAmount(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}

func formatTime(ts int64) string { return strconv.FormatInt(ts, 10) }

// CampaignCreatedEvent describes a newly registered campaign.
func CampaignCreatedEvent(c *Campaign) *types.Event {
	return &types.Event{
		Type: EventTypeCampaignCreated,
		Attributes: map[string]string{
			"owner":       c.Owner,
			"name":        c.Name,
			"asset":       c.RewardAsset,
			"totalReward": formatAmount(c.TotalReward),
			"slots":       strconv.Itoa(len(c.Slots)),
			"startTime":   formatTime(c.StartTime),
			"endTime":     formatTime(c.EndTime),
		},
	}
}

// CampaignToppedUpEvent describes a reward pool increase.
func CampaignToppedUpEvent(asset string, amount, total *uint256.Int) *types.Event {
	return &types.Event{
		Type: EventTypeCampaignToppedUp,
		Attributes: map[string]string{
			"asset":       asset,
			"amount":      formatAmount(amount),
			"totalReward": formatAmount(total),
		},
	}
}

// CampaignClosedEvent describes the terminal close and its refund.
func CampaignClosedEvent(owner, asset string, refund *uint256.Int, closedAt int64) *types.Event {
	return &types.Event{
		Type: EventTypeCampaignClosed,
		Attributes: map[string]string{
			"owner":    owner,
			"asset":    asset,
			"refund":   formatAmount(refund),
			"closedAt": formatTime(closedAt),
		},
	}
}

// AllocationsAddedEvent summarises a bulk upload.
func AllocationsAddedEvent(count int, total *uint256.Int) *types.Event {
	return &types.Event{
		Type: EventTypeAllocationsAdded,
		Attributes: map[string]string{
			"count": strconv.Itoa(count),
			"total": formatAmount(total),
		},
	}
}

// AddressReplacedEvent records an allocation migration.
func AddressReplacedEvent(oldAddr, newAddr string) *types.Event {
	return &types.Event{
		Type: EventTypeAddressReplaced,
		Attributes: map[string]string{
			"old": oldAddr,
			"new": newAddr,
		},
	}
}

// BlacklistUpdatedEvent records a blacklist change.
func BlacklistUpdatedEvent(addr string, blocked bool) *types.Event {
	return &types.Event{
		Type: EventTypeBlacklistUpdated,
		Attributes: map[string]string{
			"address": addr,
			"blocked": strconv.FormatBool(blocked),
		},
	}
}

// ClaimedEvent describes a settled claim.
func ClaimedEvent(result *ClaimResult, claimedAt int64) *types.Event {
	attrs := map[string]string{
		"receiver":  result.Receiver,
		"asset":     result.Asset,
		"amount":    formatAmount(result.Amount),
		"dust":      formatAmount(result.Dust),
		"claimedAt": formatTime(claimedAt),
	}
	for _, draw := range result.Allocations {
		attrs["slot."+strconv.Itoa(draw.Slot)] = formatAmount(draw.Amount)
	}
	return &types.Event{Type: EventTypeClaimed, Attributes: attrs}
}
