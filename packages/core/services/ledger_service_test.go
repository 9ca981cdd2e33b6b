package services

import (
	"context"
	"math"
	"sync"
	"testing"

	"tennis-ledger-api/packages/core/apperrors"
	"tennis-ledger-api/packages/core/events"
	"tennis-ledger-api/packages/core/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePlayer(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	p, err := e.ledger.CreatePlayer(ctx, "Rafael", "Nadal", "LEFT", 500)
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, models.HandedLeft, p.Handed)
	assert.True(t, p.IsActive)
	assert.Equal(t, int64(500), p.BalanceCents)
	assert.Equal(t, "Rafael Nadal", p.Name())

	got, err := e.ledger.GetPlayer(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
}

func TestCreatePlayerValidation(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		fname   string
		lname   string
		handed  string
		balance int64
	}{
		{name: "empty fname", fname: "", lname: "X", handed: "right"},
		{name: "fname with digits", fname: "R2", lname: "X", handed: "right"},
		{name: "lname with space", fname: "Rafa", lname: "de la", handed: "right"},
		{name: "unknown handed", fname: "Rafa", handed: "both"},
		{name: "negative balance", fname: "Rafa", handed: "ambi", balance: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.ledger.CreatePlayer(ctx, tt.fname, tt.lname, tt.handed, tt.balance)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}

	players, err := e.ledger.ListPlayers(ctx, models.PlayerFilter{})
	require.NoError(t, err)
	assert.Empty(t, players)
}

func TestGetPlayerNotFound(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.ledger.GetPlayer(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListPlayersSortedByName(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	e.player(t, "Zed", 0)
	e.player(t, "Amy", 0)
	mid := e.player(t, "Kim", 0)

	inactive := false
	_, err := e.ledger.UpdatePlayer(ctx, mid.ID, models.UpdatePlayerRequest{Active: &inactive})
	require.NoError(t, err)

	all, err := e.ledger.ListPlayers(ctx, models.PlayerFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"Amy", "Kim", "Zed"}, []string{all[0].Name(), all[1].Name(), all[2].Name()})

	active := true
	onlyActive, err := e.ledger.ListPlayers(ctx, models.PlayerFilter{Active: &active})
	require.NoError(t, err)
	assert.Len(t, onlyActive, 2)

	byName, err := e.ledger.ListPlayers(ctx, models.PlayerFilter{Query: "am"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "Amy", byName[0].FirstName)
}

func TestUpdatePlayer(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	p := e.player(t, "Serena", 0)

	lname := "Williams"
	updated, err := e.ledger.UpdatePlayer(ctx, p.ID, models.UpdatePlayerRequest{LastName: &lname})
	require.NoError(t, err)
	assert.Equal(t, "Serena Williams", updated.Name())
	assert.True(t, updated.IsActive)

	bad := "W1lliams"
	_, err = e.ledger.UpdatePlayer(ctx, p.ID, models.UpdatePlayerRequest{LastName: &bad})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = e.ledger.UpdatePlayer(ctx, "missing", models.UpdatePlayerRequest{LastName: &lname})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDeposit(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	p := e.player(t, "Venus", 250)

	result, err := e.ledger.Deposit(ctx, p.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(250), result.OldBalanceCents)
	assert.Equal(t, int64(350), result.NewBalanceCents)
	assert.Equal(t, int64(350), e.balance(t, p.ID))

	deposits := e.events.OfType(events.TypePlayerDeposit)
	require.Len(t, deposits, 1)
	payload := deposits[0].Payload.(events.PlayerDeposit)
	assert.Equal(t, p.ID, payload.PlayerID)
	assert.Equal(t, int64(100), payload.AmountCents)

	_, err = e.ledger.Deposit(ctx, p.ID, 0)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	_, err = e.ledger.Deposit(ctx, p.ID, -5)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	_, err = e.ledger.Deposit(ctx, "missing", 5)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Len(t, e.events.OfType(events.TypePlayerDeposit), 1)
}

func TestAdjustBalanceNeverGoesNegative(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	p := e.player(t, "Andy", 100)

	after, err := e.ledger.AdjustBalance(ctx, p.ID, -100)
	require.NoError(t, err)
	assert.Equal(t, int64(0), after)

	_, err = e.ledger.AdjustBalance(ctx, p.ID, -1)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientFunds)
	assert.Equal(t, int64(0), e.balance(t, p.ID))

	_, err = e.ledger.AdjustBalance(ctx, "missing", 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCreditThatWouldOverflowIsRefused(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	p := e.player(t, "Andy", math.MaxInt64-5)

	_, err := e.ledger.Deposit(ctx, p.ID, 10)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.NotErrorIs(t, err, apperrors.ErrInsufficientFunds)
	assert.Equal(t, int64(math.MaxInt64-5), e.balance(t, p.ID))

	_, err = e.ledger.AdjustBalance(ctx, p.ID, 6)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	result, err := e.ledger.Deposit(ctx, p.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), result.NewBalanceCents)
}

func TestConcurrentDepositsAreNotLost(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	p := e.player(t, "Novak", 0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.ledger.Deposit(ctx, p.ID, 10)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(500), e.balance(t, p.ID))
}

func TestDeletePlayer(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	a := e.player(t, "Alice", 1000)
	b := e.player(t, "Bob", 1000)
	c := e.player(t, "Carol", 1000)
	e.match(t, a, b, 10, 20)

	err := e.ledger.DeletePlayer(ctx, a.ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	require.NoError(t, e.ledger.DeletePlayer(ctx, c.ID))
	_, err = e.ledger.GetPlayer(ctx, c.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	err = e.ledger.DeletePlayer(ctx, c.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
