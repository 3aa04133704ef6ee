package state

var (
	stateVersionKey              = []byte("state/version")
	distributionCampaignKey      = []byte("distribution/campaign")
	distributionAllocationPrefix = []byte("distribution/allocation/")
	distributionClaimsPrefix     = []byte("distribution/claims/")
	distributionBlacklistPrefix  = []byte("distribution/blacklist/")
	distributionPoolPrefix       = []byte("distribution/pool/")
	distributionPayoutPrefix     = []byte("distribution/payout/")
)
