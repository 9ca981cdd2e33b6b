// Package storetest holds the behaviour every store.Store implementation must share.
package storetest

import (
	"context"
	"math"
	"sort"
	"sync"
	"testing"
	"time"

	"tennis-ledger-api/packages/core/models"
	"tennis-ledger-api/packages/core/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty store for a single subtest.
type Factory func(t *testing.T) store.Store

func RunContract(t *testing.T, newStore Factory) {
	t.Run("players", func(t *testing.T) { testPlayers(t, newStore(t)) })
	t.Run("player filters", func(t *testing.T) { testPlayerFilters(t, newStore(t)) })
	t.Run("increment balance", func(t *testing.T) { testIncrementBalance(t, newStore(t)) })
	t.Run("concurrent increments", func(t *testing.T) { testConcurrentIncrements(t, newStore(t)) })
	t.Run("matches", func(t *testing.T) { testMatches(t, newStore(t)) })
	t.Run("seal once", func(t *testing.T) { testSealOnce(t, newStore(t)) })
	t.Run("overflow", func(t *testing.T) { testOverflow(t, newStore(t)) })
}

func newPlayer(first, last string, balance int64, active bool) *models.Player {
	return &models.Player{
		ID:           uuid.NewString(),
		FirstName:    first,
		LastName:     last,
		Handed:       models.HandedRight,
		IsActive:     active,
		BalanceCents: balance,
	}
}

func newMatch(p1, p2 string) *models.Match {
	return &models.Match{
		ID:            uuid.NewString(),
		P1ID:          p1,
		P2ID:          p2,
		EntryFeeCents: 100,
		PrizeCents:    150,
		CreatedAt:     time.Now(),
	}
}

func testPlayers(t *testing.T, s store.Store) {
	ctx := context.Background()
	p := newPlayer("Roger", "Federer", 1000, true)
	require.NoError(t, s.CreatePlayer(ctx, p))

	got, err := s.GetPlayer(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Roger", got.FirstName)
	assert.Equal(t, int64(1000), got.BalanceCents)
	assert.True(t, got.IsActive)

	lname := "Fed"
	inactive := false
	updated, err := s.UpdatePlayer(ctx, p.ID, store.PlayerUpdate{LastName: &lname, Active: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "Fed", updated.LastName)
	assert.False(t, updated.IsActive)

	_, err = s.UpdatePlayer(ctx, "missing", store.PlayerUpdate{LastName: &lname})
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.DeletePlayer(ctx, p.ID))
	_, err = s.GetPlayer(ctx, p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeletePlayer(ctx, p.ID), store.ErrNotFound)
}

func firstNames(players []models.Player) []string {
	ids := make([]string, 0, len(players))
	for _, p := range players {
		ids = append(ids, p.FirstName)
	}
	sort.Strings(ids)
	return ids
}

func testPlayerFilters(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreatePlayer(ctx, newPlayer("Andy", "Murray", 0, true)))
	require.NoError(t, s.CreatePlayer(ctx, newPlayer("Andre", "Agassi", 0, false)))
	require.NoError(t, s.CreatePlayer(ctx, newPlayer("Steffi", "Graf", 0, true)))

	all, err := s.ListPlayers(ctx, models.PlayerFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	active := true
	onlyActive, err := s.ListPlayers(ctx, models.PlayerFilter{Active: &active})
	require.NoError(t, err)
	assert.Equal(t, []string{"Andy", "Steffi"}, firstNames(onlyActive))

	byFirst, err := s.ListPlayers(ctx, models.PlayerFilter{Query: "AND", Fields: []string{"fname"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Andre", "Andy"}, firstNames(byFirst))

	byLast, err := s.ListPlayers(ctx, models.PlayerFilter{Query: "gra", Fields: []string{"lname"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Steffi"}, firstNames(byLast))

	either, err := s.ListPlayers(ctx, models.PlayerFilter{Query: "ag"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Andre"}, firstNames(either))
}

func testIncrementBalance(t *testing.T, s store.Store) {
	ctx := context.Background()
	p := newPlayer("Venus", "Williams", 500, true)
	require.NoError(t, s.CreatePlayer(ctx, p))

	before, after, err := s.IncrementBalance(ctx, p.ID, -200)
	require.NoError(t, err)
	assert.Equal(t, int64(500), before)
	assert.Equal(t, int64(300), after)

	_, _, err = s.IncrementBalance(ctx, p.ID, -301)
	assert.ErrorIs(t, err, store.ErrInsufficientBalance)

	got, err := s.GetPlayer(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(300), got.BalanceCents)

	_, _, err = s.IncrementBalance(ctx, "missing", 10)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testConcurrentIncrements(t *testing.T, s store.Store) {
	ctx := context.Background()
	p := newPlayer("Bjorn", "Borg", 0, true)
	require.NoError(t, s.CreatePlayer(ctx, p))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := s.IncrementBalance(ctx, p.ID, 5)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.GetPlayer(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), got.BalanceCents)
}

func testMatches(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := newPlayer("Chris", "Evert", 0, true)
	b := newPlayer("Martina", "Navratilova", 0, true)
	c := newPlayer("Monica", "Seles", 0, true)
	for _, p := range []*models.Player{a, b, c} {
		require.NoError(t, s.CreatePlayer(ctx, p))
	}

	m1 := newMatch(a.ID, b.ID)
	m2 := newMatch(b.ID, c.ID)
	require.NoError(t, s.CreateMatch(ctx, m1))
	require.NoError(t, s.CreateMatch(ctx, m2))

	got, err := s.AddPoints(ctx, m1.ID, models.SideP1, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.P1Points)
	got, err = s.AddPoints(ctx, m1.ID, models.SideP2, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.P2Points)

	_, err = s.AddPoints(ctx, "missing", models.SideP1, 1)
	assert.ErrorIs(t, err, store.ErrNotFound)

	sealed, err := s.SealMatch(ctx, m1.ID, nil, time.Now())
	require.NoError(t, err)
	require.NotNil(t, sealed.EndedAt)
	assert.Nil(t, sealed.DQPlayerID)

	_, err = s.AddPoints(ctx, m1.ID, models.SideP1, 1)
	assert.ErrorIs(t, err, store.ErrMatchEnded)

	active := true
	activeMatches, err := s.ListMatches(ctx, models.MatchFilter{Active: &active})
	require.NoError(t, err)
	require.Len(t, activeMatches, 1)
	assert.Equal(t, m2.ID, activeMatches[0].ID)

	ended := false
	endedMatches, err := s.ListMatches(ctx, models.MatchFilter{Active: &ended})
	require.NoError(t, err)
	require.Len(t, endedMatches, 1)
	assert.Equal(t, m1.ID, endedMatches[0].ID)

	forB, err := s.ListMatches(ctx, models.MatchFilter{PlayerID: b.ID})
	require.NoError(t, err)
	assert.Len(t, forB, 2)

	forC, err := s.ListMatches(ctx, models.MatchFilter{PlayerID: c.ID, Active: &active})
	require.NoError(t, err)
	assert.Len(t, forC, 1)
}

func testSealOnce(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := newPlayer("Ivan", "Lendl", 0, true)
	b := newPlayer("Boris", "Becker", 0, true)
	require.NoError(t, s.CreatePlayer(ctx, a))
	require.NoError(t, s.CreatePlayer(ctx, b))
	m := newMatch(a.ID, b.ID)
	require.NoError(t, s.CreateMatch(ctx, m))

	sealed, err := s.SealMatch(ctx, m.ID, &b.ID, time.Now())
	require.NoError(t, err)
	require.NotNil(t, sealed.DQPlayerID)
	assert.Equal(t, b.ID, *sealed.DQPlayerID)

	_, err = s.SealMatch(ctx, m.ID, nil, time.Now())
	assert.ErrorIs(t, err, store.ErrMatchEnded)

	_, err = s.SealMatch(ctx, "missing", nil, time.Now())
	assert.ErrorIs(t, err, store.ErrNotFound)

	got, err := s.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, got.DQPlayerID)
	assert.Equal(t, b.ID, *got.DQPlayerID)
}

func testOverflow(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := newPlayer("Pete", "Sampras", math.MaxInt64-10, true)
	b := newPlayer("Andre", "Agassi", 0, true)
	require.NoError(t, s.CreatePlayer(ctx, a))
	require.NoError(t, s.CreatePlayer(ctx, b))

	_, _, err := s.IncrementBalance(ctx, a.ID, 11)
	assert.ErrorIs(t, err, store.ErrBalanceOverflow)
	_, after, err := s.IncrementBalance(ctx, a.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), after)

	m := newMatch(a.ID, b.ID)
	require.NoError(t, s.CreateMatch(ctx, m))

	_, err = s.AddPoints(ctx, m.ID, models.SideP1, math.MaxInt64)
	require.NoError(t, err)
	_, err = s.AddPoints(ctx, m.ID, models.SideP1, 1)
	assert.ErrorIs(t, err, store.ErrPointsOverflow)

	got, err := s.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), got.P1Points)
	assert.True(t, got.IsActive())

	_, err = s.SealMatch(ctx, m.ID, nil, time.Now())
	require.NoError(t, err)
	_, err = s.AddPoints(ctx, m.ID, models.SideP1, 1)
	assert.ErrorIs(t, err, store.ErrMatchEnded)
}
