package main

import (
	"encoding/hex"
	"fmt"

	"github.com/holiman/uint256"

	"tokendrop/core/genesis"
	"tokendrop/crypto"
	"tokendrop/native/distribution"
)

func runImport(e *env, args []string) error {
	if err := requireArgs(args, 1, usageImport); err != nil {
		return err
	}
	spec, err := genesis.LoadSpec(args[0])
	if err != nil {
		return err
	}
	summary, err := genesis.Apply(e.node.Engine, spec, e.now)
	if err != nil {
		return err
	}
	return printJSON(e.out, map[string]any{
		"campaign":    summary.Campaign.Name,
		"allocations": summary.Allocations,
		"blacklisted": summary.Blacklisted,
	})
}

func runClaim(e *env, args []string) error {
	if err := requireArgs(args, 1, usageClaim); err != nil {
		return err
	}
	var amount *uint256.Int
	if len(args) > 1 {
		parsed, err := distribution.ParseAmount(args[1])
		if err != nil {
			return err
		}
		amount = parsed
	}
	result, err := e.node.Engine.Claim(e.now, args[0], "", amount)
	if err != nil {
		return err
	}
	draws := make(map[string]string, len(result.Allocations))
	for _, draw := range result.Allocations {
		draws[fmt.Sprintf("slot%d", draw.Slot)] = draw.Amount.Dec()
	}
	return printJSON(e.out, map[string]any{
		"receiver":    result.Receiver,
		"asset":       result.Asset,
		"amount":      result.Amount.Dec(),
		"dust":        result.Dust.Dec(),
		"allocations": draws,
	})
}

func runRewards(e *env, args []string) error {
	if err := requireArgs(args, 1, usageRewards); err != nil {
		return err
	}
	rewards, err := e.node.Engine.QueryRewards(e.now, args[0])
	if err != nil {
		return err
	}
	return printJSON(e.out, map[string]string{
		"claimed":          rewards.Claimed.Dec(),
		"pending":          rewards.Pending.Dec(),
		"availableToClaim": rewards.AvailableToClaim.Dec(),
	})
}

func runClaimed(e *env, args []string) error {
	addr := ""
	if len(args) > 0 {
		addr = args[0]
	}
	entries, err := e.node.Engine.QueryClaimed(addr, e.startAfter, e.limit)
	if err != nil {
		return err
	}
	rows := make([]map[string]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, map[string]string{"address": entry.Address, "claimed": entry.Claimed.Dec()})
	}
	return printJSON(e.out, rows)
}

func runCampaign(e *env, _ []string) error {
	c, err := e.node.Engine.QueryCampaign()
	if err != nil {
		return err
	}
	slots := make([]map[string]any, 0, len(c.Slots))
	for _, slot := range c.Slots {
		slots = append(slots, map[string]any{
			"type":       slot.Kind.String(),
			"percentage": slot.Percentage.String(),
			"startTime":  slot.StartTime,
			"endTime":    slot.EndTime,
			"cliff":      slot.CliffDuration,
		})
	}
	return printJSON(e.out, map[string]any{
		"owner":       c.Owner,
		"name":        c.Name,
		"rewardAsset": c.RewardAsset,
		"totalReward": c.TotalReward.Dec(),
		"claimed":     c.Claimed.Dec(),
		"startTime":   c.StartTime,
		"endTime":     c.EndTime,
		"closedAt":    c.ClosedAt,
		"slots":       slots,
	})
}

func runAudit(e *env, _ []string) error {
	audit, err := e.node.Engine.AuditClaimedTotal()
	if err != nil {
		return err
	}
	if err := printJSON(e.out, map[string]any{
		"cached":     audit.Cached.Dec(),
		"ledgerSum":  audit.LedgerSum.Dec(),
		"consistent": audit.Consistent,
	}); err != nil {
		return err
	}
	if !audit.Consistent {
		return fmt.Errorf("claimed counter %s differs from ledger sum %s", audit.Cached.Dec(), audit.LedgerSum.Dec())
	}
	return nil
}

func runTopUp(e *env, args []string) error {
	if err := requireArgs(args, 2, usageTopUp); err != nil {
		return err
	}
	amount, err := distribution.ParseAmount(args[1])
	if err != nil {
		return err
	}
	c, err := e.node.Engine.TopUp(e.now, args[0], amount)
	if err != nil {
		return err
	}
	return printJSON(e.out, map[string]string{"totalReward": c.TotalReward.Dec()})
}

func runClose(e *env, args []string) error {
	if err := requireArgs(args, 1, usageClose); err != nil {
		return err
	}
	refund, err := e.node.Engine.CloseCampaign(e.now, args[0])
	if err != nil {
		return err
	}
	return printJSON(e.out, map[string]string{"refund": refund.Dec()})
}

func runReplace(e *env, args []string) error {
	if err := requireArgs(args, 3, usageReplace); err != nil {
		return err
	}
	if err := e.node.Engine.ReplaceAddress(e.now, args[0], args[1], args[2]); err != nil {
		return err
	}
	return printJSON(e.out, map[string]string{"old": args[1], "new": args[2]})
}

func runBlacklist(e *env, args []string) error {
	if err := requireArgs(args, 2, usageBlacklist); err != nil {
		return err
	}
	if err := e.node.Engine.Blacklist(args[0], args[1], !e.unblock); err != nil {
		return err
	}
	return printJSON(e.out, map[string]any{"address": args[1], "blocked": !e.unblock})
}

// runKeygen creates a fresh secp256k1 key, typically for a campaign owner.
func runKeygen(e *env, _ []string) error {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return err
	}
	return printJSON(e.out, map[string]string{
		"address":    key.PubKey().Address(e.prefix).String(),
		"privateKey": hex.EncodeToString(key.Bytes()),
	})
}
