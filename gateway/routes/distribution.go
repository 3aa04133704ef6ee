package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/holiman/uint256"

	"tokendrop/gateway/middleware"
	"tokendrop/native/distribution"
)

const claimRequestLimit = 16 << 10

type distributionRoutes struct {
	engine Engine
	now    func() time.Time
	logger *slog.Logger
}

type claimRequest struct {
	Caller   string `json:"caller"`
	Receiver string `json:"receiver,omitempty"`
	// Amount is a base-10 integer; empty claims everything available.
	Amount string `json:"amount,omitempty"`
}

type slotDrawResponse struct {
	Slot   int    `json:"slot"`
	Amount string `json:"amount"`
}

type claimResponse struct {
	Receiver    string             `json:"receiver"`
	Asset       string             `json:"asset"`
	Amount      string             `json:"amount"`
	Dust        string             `json:"dust"`
	Allocations []slotDrawResponse `json:"allocations"`
	ClaimedAt   int64              `json:"claimedAt"`
}

type rewardsResponse struct {
	Address          string `json:"address"`
	Claimed          string `json:"claimed"`
	Pending          string `json:"pending"`
	AvailableToClaim string `json:"availableToClaim"`
	At               int64  `json:"at"`
}

type claimedEntryResponse struct {
	Address string `json:"address"`
	Claimed string `json:"claimed"`
}

type claimedResponse struct {
	Entries []claimedEntryResponse `json:"entries"`
	// Next is the cursor for the following page, empty on the last page.
	Next string `json:"next,omitempty"`
}

type slotResponse struct {
	Type          string `json:"type"`
	Percentage    string `json:"percentage"`
	StartTime     int64  `json:"startTime"`
	EndTime       int64  `json:"endTime,omitempty"`
	CliffDuration int64  `json:"cliffDuration,omitempty"`
}

type campaignResponse struct {
	Owner       string         `json:"owner"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	RewardAsset string         `json:"rewardAsset"`
	TotalReward string         `json:"totalReward"`
	Claimed     string         `json:"claimed"`
	StartTime   int64          `json:"startTime"`
	EndTime     int64          `json:"endTime"`
	ClosedAt    *int64         `json:"closedAt,omitempty"`
	Slots       []slotResponse `json:"slots"`
}

func (dr *distributionRoutes) claim(w http.ResponseWriter, r *http.Request) {
	now := dr.now().Unix()
	body, err := io.ReadAll(io.LimitReader(r.Body, claimRequestLimit))
	if err != nil {
		writeBadRequest(w, fmt.Errorf("read request body: %w", err))
		return
	}
	var req claimRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeBadRequest(w, fmt.Errorf("decode request: %w", err))
		return
	}
	if strings.TrimSpace(req.Caller) == "" {
		writeBadRequest(w, errors.New("caller required"))
		return
	}
	var amount *uint256.Int
	if strings.TrimSpace(req.Amount) != "" {
		if amount, err = distribution.ParseAmount(req.Amount); err != nil {
			writeBadRequest(w, err)
			return
		}
	}

	result, err := dr.engine.Claim(now, req.Caller, req.Receiver, amount)
	if err != nil {
		dr.writeEngineError(w, r, err)
		return
	}
	resp := claimResponse{
		Receiver:    result.Receiver,
		Asset:       result.Asset,
		Amount:      result.Amount.Dec(),
		Dust:        result.Dust.Dec(),
		Allocations: make([]slotDrawResponse, 0, len(result.Allocations)),
		ClaimedAt:   now,
	}
	for _, draw := range result.Allocations {
		resp.Allocations = append(resp.Allocations, slotDrawResponse{Slot: draw.Slot, Amount: draw.Amount.Dec()})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (dr *distributionRoutes) rewards(w http.ResponseWriter, r *http.Request) {
	now := dr.now().Unix()
	addr := chi.URLParam(r, "address")
	rewards, err := dr.engine.QueryRewards(now, addr)
	if err != nil {
		dr.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rewardsResponse{
		Address:          strings.ToLower(strings.TrimSpace(addr)),
		Claimed:          rewards.Claimed.Dec(),
		Pending:          rewards.Pending.Dec(),
		AvailableToClaim: rewards.AvailableToClaim.Dec(),
		At:               now,
	})
}

func (dr *distributionRoutes) claimed(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit := distribution.DefaultQueryLimit
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeBadRequest(w, fmt.Errorf("invalid limit %q", raw))
			return
		}
		limit = parsed
	}
	if limit > distribution.MaxQueryLimit {
		limit = distribution.MaxQueryLimit
	}
	addr := query.Get("address")
	entries, err := dr.engine.QueryClaimed(addr, query.Get("startAfter"), limit)
	if err != nil {
		dr.writeEngineError(w, r, err)
		return
	}
	resp := claimedResponse{Entries: make([]claimedEntryResponse, 0, len(entries))}
	for _, entry := range entries {
		resp.Entries = append(resp.Entries, claimedEntryResponse{Address: entry.Address, Claimed: entry.Claimed.Dec()})
	}
	if strings.TrimSpace(addr) == "" && len(entries) == limit {
		resp.Next = entries[len(entries)-1].Address
	}
	writeJSON(w, http.StatusOK, resp)
}

func (dr *distributionRoutes) campaign(w http.ResponseWriter, r *http.Request) {
	c, err := dr.engine.QueryCampaign()
	if err != nil {
		dr.writeEngineError(w, r, err)
		return
	}
	resp := campaignResponse{
		Owner:       c.Owner,
		Name:        c.Name,
		Description: c.Description,
		RewardAsset: c.RewardAsset,
		TotalReward: c.TotalReward.Dec(),
		Claimed:     c.Claimed.Dec(),
		StartTime:   c.StartTime,
		EndTime:     c.EndTime,
		ClosedAt:    c.ClosedAt,
		Slots:       make([]slotResponse, 0, len(c.Slots)),
	}
	for _, slot := range c.Slots {
		resp.Slots = append(resp.Slots, slotResponse{
			Type:          slot.Kind.String(),
			Percentage:    slot.Percentage.String(),
			StartTime:     slot.StartTime,
			EndTime:       slot.EndTime,
			CliffDuration: slot.CliffDuration,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (dr *distributionRoutes) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		dr.logger.Error("distribution request failed",
			"path", r.URL.Path,
			"requestId", middleware.RequestID(r.Context()),
			"error", err)
	}
	writeJSONError(w, status, err)
}

// statusForError maps the engine's error taxonomy onto HTTP statuses.
func statusForError(err error) int {
	switch {
	case errors.Is(err, distribution.ErrNoCampaign), errors.Is(err, distribution.ErrNoAllocation):
		return http.StatusNotFound
	case errors.Is(err, distribution.ErrInvalidAddress):
		return http.StatusBadRequest
	}
	switch distribution.KindOf(err) {
	case distribution.KindValidation:
		return http.StatusBadRequest
	case distribution.KindEligibility, distribution.KindAuthorization:
		return http.StatusForbidden
	case distribution.KindState:
		return http.StatusConflict
	case distribution.KindAmount:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		writeInternalError(w, fmt.Errorf("marshal response: %w", err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeBadRequest(w http.ResponseWriter, err error) {
	writeJSONError(w, http.StatusBadRequest, err)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeJSONError(w, http.StatusInternalServerError, err)
}

func writeJSONError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	message := strings.TrimSpace(err.Error())
	if message == "" {
		message = http.StatusText(status)
	}
	payload, marshalErr := json.Marshal(map[string]string{"error": message})
	if marshalErr != nil {
		payload = []byte(`{"error":"` + http.StatusText(status) + `"}`)
	}
	_, _ = w.Write(payload)
}
