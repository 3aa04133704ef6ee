package distribution_test

import (
	"strings"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"tokendrop/native/distribution"
)

func validParams() distribution.CampaignParams {
	return distribution.CampaignParams{
		Name:        "drop",
		RewardAsset: "DROP",
		TotalReward: uint256.NewInt(1_000),
		Slots:       []distribution.DistributionSlot{lumpSum("0.4", t0), linear("0.6", t0, t0+10*day, day)},
		StartTime:   t0,
		EndTime:     t0 + 30*day,
	}
}

func TestValidateCampaignParams(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(p *distribution.CampaignParams)
		want   error
	}{
		{name: "valid", mutate: func(*distribution.CampaignParams) {}},
		{name: "blank name", mutate: func(p *distribution.CampaignParams) { p.Name = "  " }, want: distribution.ErrInvalidCampaign},
		{name: "long name", mutate: func(p *distribution.CampaignParams) { p.Name = strings.Repeat("x", distribution.MaxNameLength+1) }, want: distribution.ErrInvalidCampaign},
		{name: "long description", mutate: func(p *distribution.CampaignParams) {
			p.Description = strings.Repeat("x", distribution.MaxDescriptionLength+1)
		}, want: distribution.ErrInvalidCampaign},
		{name: "no asset", mutate: func(p *distribution.CampaignParams) { p.RewardAsset = "" }, want: distribution.ErrInvalidCampaign},
		{name: "zero reward", mutate: func(p *distribution.CampaignParams) { p.TotalReward = new(uint256.Int) }, want: distribution.ErrInvalidCampaign},
		{name: "inverted window", mutate: func(p *distribution.CampaignParams) { p.EndTime = p.StartTime }, want: distribution.ErrInvalidCampaign},
		{name: "starts in the past", mutate: func(p *distribution.CampaignParams) {
			p.StartTime = t0 - 2*day
			p.Slots = []distribution.DistributionSlot{lumpSum("1", t0-2*day)}
		}, want: distribution.ErrInvalidCampaign},
		{name: "no slots", mutate: func(p *distribution.CampaignParams) { p.Slots = nil }, want: distribution.ErrInvalidCampaign},
		{name: "too many slots", mutate: func(p *distribution.CampaignParams) {
			p.Slots = []distribution.DistributionSlot{lumpSum("0.3", t0), lumpSum("0.3", t0), lumpSum("0.4", t0)}
		}, want: distribution.ErrInvalidCampaign},
		{name: "percentages short of one", mutate: func(p *distribution.CampaignParams) { p.Slots[0] = lumpSum("0.3", t0) }, want: distribution.ErrInvalidCampaign},
		{name: "zero percentage", mutate: func(p *distribution.CampaignParams) {
			p.Slots = []distribution.DistributionSlot{lumpSum("0", t0), lumpSum("1", t0)}
		}, want: distribution.ErrInvalidCampaign},
		{name: "slot before campaign", mutate: func(p *distribution.CampaignParams) { p.Slots[0] = lumpSum("0.4", t0-1) }, want: distribution.ErrInvalidCampaign},
		{name: "vesting past campaign end", mutate: func(p *distribution.CampaignParams) {
			p.Slots[1] = linear("0.6", t0, t0+31*day, 0)
		}, want: distribution.ErrInvalidCampaign},
		{name: "empty vesting window", mutate: func(p *distribution.CampaignParams) { p.Slots[1] = linear("0.6", t0+day, t0+day, 0) }, want: distribution.ErrInvalidCampaign},
		{name: "cliff covers window", mutate: func(p *distribution.CampaignParams) { p.Slots[1] = linear("0.6", t0, t0+day, day) }, want: distribution.ErrInvalidCampaign},
		{name: "periodic vesting", mutate: func(p *distribution.CampaignParams) {
			p.Slots[1] = distribution.DistributionSlot{
				Kind:           distribution.SlotPeriodicVesting,
				Percentage:     distribution.MustPercentage("0.6"),
				StartTime:      t0,
				EndTime:        t0 + 10*day,
				UnlockInterval: day,
			}
		}, want: distribution.ErrUnsupportedSlot},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := validParams()
			tc.mutate(&p)
			err := distribution.ValidateCampaignParams(p, t0-day)
			if tc.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.want)
		})
	}
}
