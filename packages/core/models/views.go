package models

import (
	"math"
	"time"
)

type PlayerView struct {
	PID             string  `json:"pid"`
	Name            string  `json:"name"`
	Handed          string  `json:"handed"`
	IsActive        bool    `json:"is_active"`
	NumJoin         int     `json:"num_join"`
	NumWon          int     `json:"num_won"`
	NumDQ           int     `json:"num_dq"`
	BalanceCents    int64   `json:"balance_usd_cents"`
	TotalPoints     int64   `json:"total_points"`
	TotalPrizeCents int64   `json:"total_prize_usd_cents"`
	Efficiency      float64 `json:"efficiency"`
	InActiveMatch   *string `json:"in_active_match"`
}

func NewPlayerView(p *Player, stats PlayerStats) PlayerView {
	return PlayerView{
		PID:             p.ID,
		Name:            p.Name(),
		Handed:          p.Handed.Label(),
		IsActive:        p.IsActive,
		NumJoin:         stats.NumJoin,
		NumWon:          stats.NumWon,
		NumDQ:           stats.NumDQ,
		BalanceCents:    p.BalanceCents,
		TotalPoints:     stats.TotalPoints,
		TotalPrizeCents: stats.TotalPrizeCents,
		Efficiency:      stats.Efficiency,
		InActiveMatch:   stats.ActiveMatchID,
	}
}

type MatchView struct {
	MID           string     `json:"mid"`
	EntryFeeCents int64      `json:"entry_fee_usd_cents"`
	P1ID          string     `json:"p1_id"`
	P1Name        string     `json:"p1_name"`
	P1Points      int64      `json:"p1_points"`
	P2ID          string     `json:"p2_id"`
	P2Name        string     `json:"p2_name"`
	P2Points      int64      `json:"p2_points"`
	WinnerPID     *string    `json:"winner_pid"`
	IsDQ          bool       `json:"is_dq"`
	IsActive      bool       `json:"is_active"`
	PrizeCents    int64      `json:"prize_usd_cents"`
	Age           int64      `json:"age"`
	EndedAt       *time.Time `json:"ended_at"`
}

// NewMatchView builds the public match record. p1 and p2 may be nil when a
// participant record is missing; the name is then left empty. Age is in whole
// seconds, measured up to now for active matches and up to ended_at otherwise.
func NewMatchView(m *Match, p1, p2 *Player, now time.Time) MatchView {
	view := MatchView{
		MID:           m.ID,
		EntryFeeCents: m.EntryFeeCents,
		P1ID:          m.P1ID,
		P1Points:      m.P1Points,
		P2ID:          m.P2ID,
		P2Points:      m.P2Points,
		IsDQ:          m.IsDisqualified(),
		IsActive:      m.IsActive(),
		PrizeCents:    m.PrizeCents,
		EndedAt:       m.EndedAt,
	}
	if p1 != nil {
		view.P1Name = p1.Name()
	}
	if p2 != nil {
		view.P2Name = p2.Name()
	}
	if winner, ok := m.Winner(); ok {
		view.WinnerPID = &winner
	}

	end := now
	if m.EndedAt != nil {
		end = *m.EndedAt
	}
	view.Age = int64(math.Round(end.Sub(m.CreatedAt).Seconds()))

	return view
}
