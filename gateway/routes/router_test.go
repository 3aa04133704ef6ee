package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"tokendrop/core/state"
	"tokendrop/crypto"
	"tokendrop/gateway/middleware"
	"tokendrop/native/distribution"
	"tokendrop/storage"
)

const start = int64(1_800_000_000)

func addr(t *testing.T, b byte) string {
	t.Helper()
	a, err := crypto.NewAddress(crypto.DefaultPrefix, bytes.Repeat([]byte{b}, 20))
	require.NoError(t, err)
	return a.String()
}

type fixture struct {
	handler http.Handler
	now     time.Time
	user    string
}

func newFixture(t *testing.T, limiter *middleware.RateLimiter) *fixture {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	engine := distribution.NewEngine()
	engine.SetState(state.NewManager(db))

	owner := addr(t, 0xF0)
	_, err := engine.CreateCampaign(start-10, owner, distribution.CampaignParams{
		Name:        "api drop",
		RewardAsset: "DROP",
		TotalReward: uint256.NewInt(1_000),
		Slots: []distribution.DistributionSlot{
			{Kind: distribution.SlotLumpSum, Percentage: distribution.MustPercentage("0.5"), StartTime: start},
			{Kind: distribution.SlotLinearVesting, Percentage: distribution.MustPercentage("0.5"), StartTime: start, EndTime: start + 100},
		},
		StartTime: start,
		EndTime:   start + 1_000,
	})
	require.NoError(t, err)
	f := &fixture{now: time.Unix(start+50, 0), user: addr(t, 0x01)}
	require.NoError(t, engine.AddAllocations(start-10, owner, []distribution.AllocationEntry{
		{Address: f.user, Amount: uint256.NewInt(100)},
		{Address: addr(t, 0x02), Amount: uint256.NewInt(10)},
	}))
	f.handler = New(Config{
		Engine:      engine,
		RateLimiter: limiter,
		Now:         func() time.Time { return f.now },
	})
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	res := httptest.NewRecorder()
	f.handler.ServeHTTP(res, req)
	return res
}

func decode[T any](t *testing.T, res *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &out))
	return out
}

func TestClaimEndpoint(t *testing.T) {
	f := newFixture(t, nil)

	res := f.do(t, http.MethodGet, "/v1/rewards/"+f.user, "")
	require.Equal(t, http.StatusOK, res.Code)
	rewards := decode[rewardsResponse](t, res)
	require.Equal(t, "75", rewards.AvailableToClaim)

	res = f.do(t, http.MethodPost, "/v1/claim", `{"caller":"`+f.user+`","amount":"60"}`)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	require.NotEmpty(t, res.Header().Get(middleware.RequestIDHeader))
	claim := decode[claimResponse](t, res)
	require.Equal(t, "60", claim.Amount)
	require.Equal(t, []slotDrawResponse{{Slot: 0, Amount: "50"}, {Slot: 1, Amount: "10"}}, claim.Allocations)

	res = f.do(t, http.MethodPost, "/v1/claim", `{"caller":"`+f.user+`","amount":"16"}`)
	require.Equal(t, http.StatusUnprocessableEntity, res.Code)
	require.Contains(t, res.Body.String(), "exceeds claimable")

	f.now = f.now.Add(time.Hour)
	res = f.do(t, http.MethodPost, "/v1/claim", `{"caller":"`+f.user+`"}`)
	require.Equal(t, http.StatusOK, res.Code)
	require.Equal(t, "40", decode[claimResponse](t, res).Amount)
}

func TestClaimEndpointErrors(t *testing.T) {
	f := newFixture(t, nil)

	cases := []struct {
		body   string
		status int
	}{
		{body: `not json`, status: http.StatusBadRequest},
		{body: `{}`, status: http.StatusBadRequest},
		{body: `{"caller":"` + f.user + `","amount":"-1"}`, status: http.StatusBadRequest},
		{body: `{"caller":"nope"}`, status: http.StatusBadRequest},
		{body: `{"caller":"` + addr(t, 0x03) + `"}`, status: http.StatusNotFound},
		{body: `{"caller":"` + f.user + `","amount":"0"}`, status: http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		res := f.do(t, http.MethodPost, "/v1/claim", tc.body)
		require.Equal(t, tc.status, res.Code, tc.body)
	}

	f.now = time.Unix(start-1, 0)
	res := f.do(t, http.MethodPost, "/v1/claim", `{"caller":"`+f.user+`"}`)
	require.Equal(t, http.StatusConflict, res.Code)
}

func TestClaimedAndCampaignEndpoints(t *testing.T) {
	f := newFixture(t, nil)
	f.now = time.Unix(start+100, 0)
	for _, a := range []string{f.user, addr(t, 0x02)} {
		res := f.do(t, http.MethodPost, "/v1/claim", `{"caller":"`+a+`"}`)
		require.Equal(t, http.StatusOK, res.Code)
	}

	res := f.do(t, http.MethodGet, "/v1/claimed?limit=1", "")
	require.Equal(t, http.StatusOK, res.Code)
	page := decode[claimedResponse](t, res)
	require.Len(t, page.Entries, 1)
	require.Equal(t, page.Entries[0].Address, page.Next)

	res = f.do(t, http.MethodGet, "/v1/claimed?startAfter="+page.Next, "")
	require.Equal(t, http.StatusOK, res.Code)
	page = decode[claimedResponse](t, res)
	require.Len(t, page.Entries, 1)
	require.Empty(t, page.Next)

	res = f.do(t, http.MethodGet, "/v1/claimed?limit=abc", "")
	require.Equal(t, http.StatusBadRequest, res.Code)

	res = f.do(t, http.MethodGet, "/v1/campaign", "")
	require.Equal(t, http.StatusOK, res.Code)
	campaign := decode[campaignResponse](t, res)
	require.Equal(t, "110", campaign.Claimed)
	require.Len(t, campaign.Slots, 2)
	require.Equal(t, "linear_vesting", campaign.Slots[1].Type)
	require.Equal(t, "0.5", campaign.Slots[1].Percentage)
}

func TestClaimRateLimited(t *testing.T) {
	limiter := middleware.NewRateLimiter(map[string]middleware.RateLimit{
		ClaimRateLimitKey: {RatePerSecond: 0.001, Burst: 1},
	}, 0, nil)
	f := newFixture(t, limiter)

	res := f.do(t, http.MethodPost, "/v1/claim", `{"caller":"`+f.user+`","amount":"1"}`)
	require.Equal(t, http.StatusOK, res.Code)
	res = f.do(t, http.MethodPost, "/v1/claim", `{"caller":"`+f.user+`","amount":"1"}`)
	require.Equal(t, http.StatusTooManyRequests, res.Code)

	res = f.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, res.Code)
	res = f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, res.Code)
	require.Contains(t, res.Body.String(), "tokendrop_http_throttles_total")
}
