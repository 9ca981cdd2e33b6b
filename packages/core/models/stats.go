package models

import "github.com/shopspring/decimal"

// PlayerStats are derived from match history on every read; nothing here is stored.
type PlayerStats struct {
	NumJoin         int
	NumWon          int
	NumDQ           int
	TotalPoints     int64
	TotalPrizeCents int64
	Efficiency      float64
	ActiveMatchID   *string
}

type Dashboard struct {
	TotalNum    int64           `json:"total_num"`
	NumActive   int64           `json:"num_active"`
	NumInactive int64           `json:"num_inactive"`
	AvgBalance  decimal.Decimal `json:"avg_balance"`
}

const (
	ViolationNegativeBalance    = "negative_balance"
	ViolationMultipleActive     = "multiple_active_matches"
	ViolationUnknownParticipant = "unknown_participant"
)

// Violation is an invariant breach found by the reconciliation audit.
type Violation struct {
	Kind     string `json:"kind"`
	PlayerID string `json:"player_id"`
	Detail   string `json:"detail"`
}
