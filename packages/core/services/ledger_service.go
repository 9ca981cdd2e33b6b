package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"sort"
	"time"

	"tennis-ledger-api/packages/core/apperrors"
	"tennis-ledger-api/packages/core/events"
	"tennis-ledger-api/packages/core/models"
	"tennis-ledger-api/packages/core/store"
	"tennis-ledger-api/packages/core/utils"

	"github.com/google/uuid"
)

var (
	firstNamePattern = regexp.MustCompile(`^[a-zA-Z]+$`)
	lastNamePattern  = regexp.MustCompile(`^[a-zA-Z]*$`)
)

// LedgerService owns player records and is the only writer of balances.
type LedgerService struct {
	store     store.Store
	locks     *utils.KeyedMutex
	publisher events.Publisher
}

func NewLedgerService(s store.Store, locks *utils.KeyedMutex, publisher events.Publisher) *LedgerService {
	return &LedgerService{
		store:     s,
		locks:     locks,
		publisher: publisher,
	}
}

func (s *LedgerService) CreatePlayer(ctx context.Context, firstName, lastName, handed string, initialBalanceCents int64) (*models.Player, error) {
	if !firstNamePattern.MatchString(firstName) {
		return nil, apperrors.Validation("invalid fname %q", firstName)
	}
	if !lastNamePattern.MatchString(lastName) {
		return nil, apperrors.Validation("invalid lname %q", lastName)
	}
	h, ok := models.ParseHandedness(handed)
	if !ok {
		return nil, apperrors.Validation("invalid handed %q: must be left, right or ambi", handed)
	}
	if initialBalanceCents < 0 {
		return nil, apperrors.Validation("initial balance must not be negative")
	}

	now := time.Now()
	player := &models.Player{
		ID:           uuid.NewString(),
		FirstName:    firstName,
		LastName:     lastName,
		Handed:       h,
		IsActive:     true,
		BalanceCents: initialBalanceCents,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.CreatePlayer(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	log.Printf("Created player %s (%s) with balance %d", player.ID, player.Name(), player.BalanceCents)
	return player, nil
}

func (s *LedgerService) GetPlayer(ctx context.Context, playerID string) (*models.Player, error) {
	player, err := s.store.GetPlayer(ctx, playerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NotFound("player %s not found", playerID)
		}
		return nil, err
	}
	return player, nil
}

// ListPlayers returns the players matching filter, sorted by display name.
func (s *LedgerService) ListPlayers(ctx context.Context, filter models.PlayerFilter) ([]models.Player, error) {
	players, err := s.store.ListPlayers(ctx, filter)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(players, func(i, j int) bool {
		return players[i].Name() < players[j].Name()
	})
	return players, nil
}

func (s *LedgerService) UpdatePlayer(ctx context.Context, playerID string, req models.UpdatePlayerRequest) (*models.Player, error) {
	if req.LastName != nil && !lastNamePattern.MatchString(*req.LastName) {
		return nil, apperrors.Validation("invalid lname %q", *req.LastName)
	}

	unlock := s.locks.Lock(utils.PlayerKey(playerID))
	defer unlock()

	player, err := s.store.UpdatePlayer(ctx, playerID, store.PlayerUpdate{
		LastName: req.LastName,
		Active:   req.Active,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NotFound("player %s not found", playerID)
		}
		return nil, err
	}
	return player, nil
}

// DeletePlayer removes a player that no match refers to.
func (s *LedgerService) DeletePlayer(ctx context.Context, playerID string) error {
	unlock := s.locks.Lock(utils.PlayerKey(playerID))
	defer unlock()

	if _, err := s.GetPlayer(ctx, playerID); err != nil {
		return err
	}

	matches, err := s.store.ListMatches(ctx, models.MatchFilter{PlayerID: playerID})
	if err != nil {
		return err
	}
	if len(matches) > 0 {
		return apperrors.Conflict("player %s is referenced by %d match(es)", playerID, len(matches))
	}

	if err := s.store.DeletePlayer(ctx, playerID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperrors.NotFound("player %s not found", playerID)
		}
		return err
	}

	log.Printf("Deleted player %s", playerID)
	return nil
}

// AdjustBalance applies delta to the player's balance and returns the new
// balance. A delta that would leave the balance negative is refused.
func (s *LedgerService) AdjustBalance(ctx context.Context, playerID string, delta int64) (int64, error) {
	unlock := s.locks.Lock(utils.PlayerKey(playerID))
	defer unlock()

	_, after, err := s.applyDelta(ctx, playerID, delta)
	return after, err
}

// Deposit credits a positive amount and reports the balance before and after.
func (s *LedgerService) Deposit(ctx context.Context, playerID string, amountCents int64) (*models.DepositResult, error) {
	if amountCents <= 0 {
		return nil, apperrors.Validation("deposit amount must be positive")
	}

	unlock := s.locks.Lock(utils.PlayerKey(playerID))
	before, after, err := s.applyDelta(ctx, playerID, amountCents)
	unlock()
	if err != nil {
		return nil, err
	}

	log.Printf("Deposited %d into player %s: %d -> %d", amountCents, playerID, before, after)
	publish(ctx, s.publisher, playerID, events.TypePlayerDeposit, events.PlayerDeposit{
		PlayerID:        playerID,
		AmountCents:     amountCents,
		NewBalanceCents: after,
	})

	return &models.DepositResult{
		OldBalanceCents: before,
		NewBalanceCents: after,
	}, nil
}

// applyDelta is AdjustBalance for callers that already hold the player's lock.
func (s *LedgerService) applyDelta(ctx context.Context, playerID string, delta int64) (int64, int64, error) {
	before, after, err := s.store.IncrementBalance(ctx, playerID, delta)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return 0, 0, apperrors.NotFound("player %s not found", playerID)
		case errors.Is(err, store.ErrInsufficientBalance):
			return before, before, apperrors.InsufficientFunds("player %s balance %d cannot cover %d", playerID, before, -delta)
		case errors.Is(err, store.ErrBalanceOverflow):
			return before, before, apperrors.Validation("player %s balance %d cannot take %d more without overflowing", playerID, before, delta)
		}
		return 0, 0, fmt.Errorf("failed to adjust balance of player %s: %w", playerID, err)
	}
	return before, after, nil
}

// publish delivers an event after its change has been committed. A delivery
// failure is logged and never reported to the caller.
func publish(ctx context.Context, publisher events.Publisher, key, eventType string, payload any) {
	if publisher == nil {
		return
	}
	event := events.Event{
		Type:       eventType,
		OccurredAt: time.Now(),
		Payload:    payload,
	}
	if err := publisher.Publish(ctx, key, event); err != nil {
		log.Printf("Failed to publish %s event for %s: %v", eventType, key, err)
	}
}
