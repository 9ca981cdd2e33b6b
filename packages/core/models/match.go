package models

import (
	"time"
)

// Side identifies one of the two participants of a match.
type Side int

const (
	SideP1 Side = 1
	SideP2 Side = 2
)

type Match struct {
	ID            string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	P1ID          string     `gorm:"column:p1_id;type:varchar(36);not null;index" json:"p1_id"`
	P2ID          string     `gorm:"column:p2_id;type:varchar(36);not null;index" json:"p2_id"`
	EntryFeeCents int64      `gorm:"column:entry_fee_usd_cents;not null" json:"entry_fee_usd_cents"`
	PrizeCents    int64      `gorm:"column:prize_usd_cents;not null;index" json:"prize_usd_cents"`
	P1Points      int64      `gorm:"column:p1_points;not null" json:"p1_points"`
	P2Points      int64      `gorm:"column:p2_points;not null" json:"p2_points"`
	DQPlayerID    *string    `gorm:"column:dq_player_id;type:varchar(36)" json:"dq_player_id"`
	EndedAt       *time.Time `gorm:"index" json:"ended_at"`
	CreatedAt     time.Time  `json:"created_at"`
}

func (Match) TableName() string {
	return "matches"
}

func (m *Match) IsActive() bool {
	return m.EndedAt == nil
}

func (m *Match) IsDisqualified() bool {
	return m.DQPlayerID != nil
}

func (m *Match) HasParticipant(playerID string) bool {
	return playerID == m.P1ID || playerID == m.P2ID
}

// SideOf reports which side playerID plays on.
func (m *Match) SideOf(playerID string) (Side, bool) {
	switch playerID {
	case m.P1ID:
		return SideP1, true
	case m.P2ID:
		return SideP2, true
	}
	return 0, false
}

// Opponent returns the other participant. playerID must be a participant.
func (m *Match) Opponent(playerID string) string {
	if playerID == m.P1ID {
		return m.P2ID
	}
	return m.P1ID
}

// PointsFor returns the player's own point counter, or 0 for a non-participant.
func (m *Match) PointsFor(playerID string) int64 {
	switch playerID {
	case m.P1ID:
		return m.P1Points
	case m.P2ID:
		return m.P2Points
	}
	return 0
}

// Leader applies the winner rule to the current state regardless of whether
// the match has ended: a disqualification hands the win to the other
// participant, otherwise strictly more points wins. A tie has no leader.
func (m *Match) Leader() (string, bool) {
	if m.DQPlayerID != nil {
		if !m.HasParticipant(*m.DQPlayerID) {
			return "", false
		}
		return m.Opponent(*m.DQPlayerID), true
	}
	switch {
	case m.P1Points > m.P2Points:
		return m.P1ID, true
	case m.P2Points > m.P1Points:
		return m.P2ID, true
	}
	return "", false
}

// Winner is the leader of an ended match. Active matches have no winner.
func (m *Match) Winner() (string, bool) {
	if m.IsActive() {
		return "", false
	}
	return m.Leader()
}

type CreateMatchRequest struct {
	P1ID          string `json:"p1_id" form:"p1_id" binding:"required"`
	P2ID          string `json:"p2_id" form:"p2_id" binding:"required"`
	EntryFeeCents *int64 `json:"entry_fee_usd_cents" form:"entry_fee_usd_cents" binding:"required"`
	PrizeCents    *int64 `json:"prize_usd_cents" form:"prize_usd_cents" binding:"required"`
}

// MatchFilter narrows ListMatches. PlayerID selects matches where the player
// is either participant.
type MatchFilter struct {
	Active   *bool
	PlayerID string
}
