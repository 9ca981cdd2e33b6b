// Package store describes the document storage the settlement engine runs on:
// two collections, players and matches, with atomic single-document updates.
package store

import (
	"context"
	"errors"
	"time"

	"tennis-ledger-api/packages/core/models"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrMatchEnded is returned by conditional match updates when ended_at is already set.
	ErrMatchEnded = errors.New("match already ended")
	// ErrInsufficientBalance is returned when an increment would leave a balance below zero.
	ErrInsufficientBalance = errors.New("balance would become negative")
	// ErrBalanceOverflow is returned when an increment would exceed the largest representable balance.
	ErrBalanceOverflow = errors.New("balance would overflow")
	// ErrPointsOverflow is returned when adding points would exceed the largest representable counter.
	ErrPointsOverflow = errors.New("points would overflow")
)

type PlayerUpdate struct {
	LastName *string
	Active   *bool
}

type Store interface {
	CreatePlayer(ctx context.Context, player *models.Player) error
	GetPlayer(ctx context.Context, id string) (*models.Player, error)
	ListPlayers(ctx context.Context, filter models.PlayerFilter) ([]models.Player, error)
	UpdatePlayer(ctx context.Context, id string, update PlayerUpdate) (*models.Player, error)
	DeletePlayer(ctx context.Context, id string) error

	// IncrementBalance adds delta to the player's balance in one atomic step
	// and returns the balances before and after. The update is refused with
	// ErrInsufficientBalance if the result would be negative and with
	// ErrBalanceOverflow if it would not fit in an int64.
	IncrementBalance(ctx context.Context, id string, delta int64) (before, after int64, err error)

	CreateMatch(ctx context.Context, match *models.Match) error
	GetMatch(ctx context.Context, id string) (*models.Match, error)
	ListMatches(ctx context.Context, filter models.MatchFilter) ([]models.Match, error)

	// AddPoints increments one side's counter while the match is active. A
	// counter that would not fit in an int64 is refused with ErrPointsOverflow.
	AddPoints(ctx context.Context, matchID string, side models.Side, points int64) (*models.Match, error)

	// SealMatch sets ended_at (and dq_player_id when dqPlayerID is non-nil)
	// only if the match is still active; a second seal gets ErrMatchEnded.
	SealMatch(ctx context.Context, matchID string, dqPlayerID *string, endedAt time.Time) (*models.Match, error)
}
