package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"claim-risk/internal/scoring"
	"claim-risk/internal/store"
)

var (
	// ErrInvalidInput is reported when required claim fields are missing.
	ErrInvalidInput = errors.New("Missing required fields")
	// ErrInternal is the only detail callers see for unexpected failures.
	ErrInternal = errors.New("Internal server error")

	errFeedDisabled = errors.New("prediction feed disabled")
)

// AnalyzeClaimRequest is the body accepted by POST /api/analyze-claim.
type AnalyzeClaimRequest struct {
	Amount     *Amount `json:"amount" binding:"required"`
	DiagCode   string  `json:"diagCode" binding:"required"`
	ProviderID string  `json:"providerId" binding:"required"`
}

// ClaimInput converts the bound request into evaluator input.
func (r AnalyzeClaimRequest) ClaimInput() scoring.ClaimInput {
	var amount float64
	if r.Amount != nil {
		amount = float64(*r.Amount)
	}
	return scoring.ClaimInput{
		Amount:     amount,
		DiagCode:   r.DiagCode,
		ProviderID: r.ProviderID,
	}
}

// Amount accepts a JSON number or a numeric string.
type Amount float64

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		raw = []byte(strings.TrimSpace(s))
	}
	v, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("amount %q is not finite", raw)
	}
	*a = Amount(v)
	return nil
}

// StatsResponse reports aggregate decision counters.
type StatsResponse struct {
	Enabled bool               `json:"enabled"`
	Totals  []store.ClassTotal `json:"totals,omitempty"`
	Days    []DayTallyDTO      `json:"days,omitempty"`
}

// DayTallyDTO is the API representation of a store.DecisionTally.
type DayTallyDTO struct {
	Day           string    `json:"day"`
	DecisionClass string    `json:"decisionClass"`
	Total         int64     `json:"total"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DayTallyFromModel converts a store.DecisionTally into a DTO.
func DayTallyFromModel(t store.DecisionTally) DayTallyDTO {
	return DayTallyDTO{
		Day:           t.Day,
		DecisionClass: t.DecisionClass,
		Total:         t.Total,
		UpdatedAt:     t.UpdatedAt,
	}
}
