package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"tennis-ledger-api/packages/core/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProject(t *testing.T) {
	ended := time.Now()
	dqB := "b"
	matches := []models.Match{
		{ID: "m1", P1ID: "a", P2ID: "b", PrizeCents: 100, P1Points: 5, P2Points: 3, EndedAt: &ended},
		{ID: "m2", P1ID: "b", P2ID: "a", PrizeCents: 40, P1Points: 9, P2Points: 1, DQPlayerID: &dqB, EndedAt: &ended},
		{ID: "m3", P1ID: "c", P2ID: "a", PrizeCents: 70, P1Points: 4, P2Points: 2, EndedAt: &ended},
		{ID: "m4", P1ID: "a", P2ID: "c", PrizeCents: 10, P1Points: 1},
		{ID: "m5", P1ID: "b", P2ID: "c", PrizeCents: 999, P1Points: 1, EndedAt: &ended},
	}

	stats := Project("a", matches)
	assert.Equal(t, 4, stats.NumJoin)
	assert.Equal(t, 2, stats.NumWon)
	assert.Equal(t, 0, stats.NumDQ)
	assert.Equal(t, int64(5+1+2+1), stats.TotalPoints)
	assert.Equal(t, int64(140), stats.TotalPrizeCents)
	assert.InDelta(t, 0.5, stats.Efficiency, 1e-9)
	require.NotNil(t, stats.ActiveMatchID)
	assert.Equal(t, "m4", *stats.ActiveMatchID)

	b := Project("b", matches)
	assert.Equal(t, 3, b.NumJoin)
	assert.Equal(t, 1, b.NumDQ)
	assert.Equal(t, 1, b.NumWon)
	assert.Nil(t, b.ActiveMatchID)

	empty := Project("nobody", matches)
	assert.Equal(t, models.PlayerStats{}, empty)
}

func TestStatsAgreeWithPayouts(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	const initial = int64(10000)

	players := make([]*models.Player, 4)
	for i := range players {
		players[i] = e.player(t, fmt.Sprintf("P%c", 'a'+i), initial)
	}

	type round struct {
		p1, p2     int
		fee, prize int64
		p1Pts      int64
		p2Pts      int64
		dq         int
	}
	rounds := []round{
		{p1: 0, p2: 1, fee: 100, prize: 150, p1Pts: 5, p2Pts: 3, dq: -1},
		{p1: 2, p2: 3, fee: 200, prize: 500, p1Pts: 1, p2Pts: 7, dq: -1},
		{p1: 1, p2: 2, fee: 50, prize: 60, p1Pts: 9, p2Pts: 0, dq: 1},
		{p1: 3, p2: 0, fee: 0, prize: 0, p1Pts: 2, p2Pts: 4, dq: -1},
		{p1: 0, p2: 2, fee: 300, prize: 10, p1Pts: 0, p2Pts: 0, dq: 2},
	}

	fees := make(map[string]int64)
	for _, r := range rounds {
		p1, p2 := players[r.p1], players[r.p2]
		m := e.match(t, p1, p2, r.fee, r.prize)
		fees[p1.ID] += r.fee
		fees[p2.ID] += r.fee
		if r.p1Pts > 0 {
			e.award(t, m, p1, r.p1Pts)
		}
		if r.p2Pts > 0 {
			e.award(t, m, p2, r.p2Pts)
		}

		var err error
		if r.dq >= 0 {
			_, err = e.matches.Disqualify(ctx, m.ID, players[r.dq].ID)
		} else {
			_, err = e.matches.EndMatch(ctx, m.ID)
		}
		require.NoError(t, err)
	}

	total := int64(0)
	for _, p := range players {
		stats, err := e.stats.PlayerStats(ctx, p.ID)
		require.NoError(t, err)
		balance := e.balance(t, p.ID)
		assert.Equal(t, initial-fees[p.ID]+stats.TotalPrizeCents, balance, "player %s", p.Name())
		total += balance
	}

	paidIn := int64(0)
	prizes := int64(0)
	for _, r := range rounds {
		paidIn += 2 * r.fee
		prizes += r.prize
	}
	assert.Equal(t, 4*initial-paidIn+prizes, total)
}

func TestPlayerViews(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	a := e.player(t, "Alice", 1000)
	b := e.player(t, "Bob", 1000)
	c := e.player(t, "Carol", 1000)

	m := e.match(t, a, b, 100, 150)
	e.award(t, m, a, 3)
	_, err := e.matches.EndMatch(ctx, m.ID)
	require.NoError(t, err)
	e.match(t, b, c, 10, 20)

	players, err := e.ledger.ListPlayers(ctx, models.PlayerFilter{})
	require.NoError(t, err)
	views, err := e.stats.PlayerViews(ctx, players)
	require.NoError(t, err)
	require.Len(t, views, 3)

	byName := make(map[string]models.PlayerView)
	for _, v := range views {
		byName[v.Name] = v
	}
	assert.Equal(t, 1, byName["Alice"].NumWon)
	assert.Equal(t, int64(150), byName["Alice"].TotalPrizeCents)
	assert.Nil(t, byName["Alice"].InActiveMatch)
	assert.Equal(t, 2, byName["Bob"].NumJoin)
	assert.NotNil(t, byName["Bob"].InActiveMatch)
	assert.NotNil(t, byName["Carol"].InActiveMatch)

	single, err := e.stats.PlayerView(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, byName["Alice"].NumJoin, single.NumJoin)
}

func TestDashboard(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	empty, err := e.stats.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), empty.TotalNum)
	assert.True(t, empty.AvgBalance.Equal(decimal.Zero))

	e.player(t, "Alice", 100)
	e.player(t, "Bob", 200)
	c := e.player(t, "Carol", 250)
	inactive := false
	_, err = e.ledger.UpdatePlayer(ctx, c.ID, models.UpdatePlayerRequest{Active: &inactive})
	require.NoError(t, err)

	d, err := e.stats.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), d.TotalNum)
	assert.Equal(t, int64(2), d.NumActive)
	assert.Equal(t, int64(1), d.NumInactive)
	assert.Equal(t, "183.33", d.AvgBalance.String())
}

func TestAuditAndReconciliation(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	reconciler := NewReconciliationService(e.stats)

	a := e.player(t, "Alice", 1000)
	b := e.player(t, "Bob", 1000)
	e.match(t, a, b, 100, 150)

	count, err := reconciler.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// Write around the services to break each invariant once.
	broke := &models.Player{ID: "broke", FirstName: "Broke", IsActive: true, BalanceCents: -5}
	require.NoError(t, e.store.CreatePlayer(ctx, broke))
	require.NoError(t, e.store.CreateMatch(ctx, &models.Match{ID: "extra", P1ID: a.ID, P2ID: "ghost", CreatedAt: time.Now()}))

	violations, err := e.stats.Audit(ctx)
	require.NoError(t, err)

	kinds := make(map[string]string)
	for _, v := range violations {
		kinds[v.Kind] = v.PlayerID
	}
	assert.Len(t, violations, 3)
	assert.Equal(t, "broke", kinds[models.ViolationNegativeBalance])
	assert.Equal(t, a.ID, kinds[models.ViolationMultipleActive])
	assert.Equal(t, "ghost", kinds[models.ViolationUnknownParticipant])

	count, err = reconciler.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
