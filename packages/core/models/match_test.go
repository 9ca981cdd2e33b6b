package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func ended(m Match) Match {
	t := m.CreatedAt.Add(90 * time.Second)
	m.EndedAt = &t
	return m
}

func TestMatchWinnerRule(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		match  Match
		winner string
		ok     bool
	}{
		{name: "active match has no winner", match: Match{ID: "m", P1ID: "a", P2ID: "b", P1Points: 5}, ok: false},
		{name: "p1 more points", match: ended(Match{ID: "m", P1ID: "a", P2ID: "b", P1Points: 5, P2Points: 3, CreatedAt: created}), winner: "a", ok: true},
		{name: "p2 more points", match: ended(Match{ID: "m", P1ID: "a", P2ID: "b", P1Points: 1, P2Points: 3, CreatedAt: created}), winner: "b", ok: true},
		{name: "tie has no winner", match: ended(Match{ID: "m", P1ID: "a", P2ID: "b", P1Points: 4, P2Points: 4, CreatedAt: created}), ok: false},
		{name: "dq overrides points", match: ended(Match{ID: "m", P1ID: "a", P2ID: "b", P1Points: 1, P2Points: 9, DQPlayerID: strPtr("b"), CreatedAt: created}), winner: "a", ok: true},
		{name: "dq of p1", match: ended(Match{ID: "m", P1ID: "a", P2ID: "b", P1Points: 9, DQPlayerID: strPtr("a"), CreatedAt: created}), winner: "b", ok: true},
		{name: "dq of a stranger is ignored", match: ended(Match{ID: "m", P1ID: "a", P2ID: "b", DQPlayerID: strPtr("z"), CreatedAt: created}), ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			winner, ok := tt.match.Winner()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.winner, winner)
		})
	}
}

func TestMatchLeaderIgnoresActiveState(t *testing.T) {
	m := Match{P1ID: "a", P2ID: "b", P1Points: 2, P2Points: 7}
	leader, ok := m.Leader()
	require.True(t, ok)
	assert.Equal(t, "b", leader)
}

func TestMatchParticipants(t *testing.T) {
	m := Match{P1ID: "a", P2ID: "b", P1Points: 3, P2Points: 6}

	side, ok := m.SideOf("b")
	require.True(t, ok)
	assert.Equal(t, SideP2, side)
	_, ok = m.SideOf("c")
	assert.False(t, ok)

	assert.Equal(t, "a", m.Opponent("b"))
	assert.Equal(t, int64(3), m.PointsFor("a"))
	assert.Equal(t, int64(0), m.PointsFor("c"))
	assert.True(t, m.HasParticipant("a"))
	assert.False(t, m.HasParticipant("c"))
}

func TestParseHandedness(t *testing.T) {
	h, ok := ParseHandedness("Left")
	require.True(t, ok)
	assert.Equal(t, HandedLeft, h)

	h, ok = ParseHandedness("ambi")
	require.True(t, ok)
	assert.Equal(t, "ambi", h.Label())

	_, ok = ParseHandedness("both")
	assert.False(t, ok)
}
