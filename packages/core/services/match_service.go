package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"tennis-ledger-api/packages/core/apperrors"
	"tennis-ledger-api/packages/core/events"
	"tennis-ledger-api/packages/core/models"
	"tennis-ledger-api/packages/core/store"
	"tennis-ledger-api/packages/core/utils"

	"github.com/google/uuid"
)

// MatchService drives a match from creation to its single terminal
// transition. Creation locks both players; every later transition locks the
// match, and crediting a prize then locks the winner (match before player).
// Events are published after the locks are released.
type MatchService struct {
	store     store.Store
	ledger    *LedgerService
	locks     *utils.KeyedMutex
	publisher events.Publisher
}

func NewMatchService(s store.Store, ledger *LedgerService, locks *utils.KeyedMutex, publisher events.Publisher) *MatchService {
	return &MatchService{
		store:     s,
		ledger:    ledger,
		locks:     locks,
		publisher: publisher,
	}
}

func (s *MatchService) GetMatch(ctx context.Context, matchID string) (*models.Match, error) {
	match, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NotFound("match %s not found", matchID)
		}
		return nil, err
	}
	return match, nil
}

// ListMatches returns the matches matching filter, highest prize first.
func (s *MatchService) ListMatches(ctx context.Context, filter models.MatchFilter) ([]models.Match, error) {
	matches, err := s.store.ListMatches(ctx, filter)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].PrizeCents > matches[j].PrizeCents
	})
	return matches, nil
}

// CreateMatch debits the entry fee from both players and opens the match.
// Debits run before the insert; a failure part way returns the error without
// undoing earlier steps.
func (s *MatchService) CreateMatch(ctx context.Context, p1ID, p2ID string, entryFeeCents, prizeCents int64) (*models.Match, error) {
	if entryFeeCents < 0 {
		return nil, apperrors.Validation("entry fee must not be negative")
	}
	if prizeCents < 0 {
		return nil, apperrors.Validation("prize must not be negative")
	}
	if p1ID == p2ID {
		return nil, apperrors.Validation("p1 and p2 must be different players")
	}

	match, err := s.openMatch(ctx, p1ID, p2ID, entryFeeCents, prizeCents)
	if err != nil {
		return nil, err
	}

	log.Printf("Created match %s: %s vs %s (fee %d, prize %d)", match.ID, p1ID, p2ID, entryFeeCents, prizeCents)
	publish(ctx, s.publisher, match.ID, events.TypeMatchCreated, events.MatchCreated{
		MatchID:       match.ID,
		P1ID:          match.P1ID,
		P2ID:          match.P2ID,
		EntryFeeCents: entryFeeCents,
		PrizeCents:    prizeCents,
	})

	return match, nil
}

// openMatch runs the checks, debits and insert of CreateMatch while holding
// both player locks.
func (s *MatchService) openMatch(ctx context.Context, p1ID, p2ID string, entryFeeCents, prizeCents int64) (*models.Match, error) {
	unlock := s.locks.Lock(utils.PlayerKey(p1ID), utils.PlayerKey(p2ID))
	defer unlock()

	p1, err := s.ledger.GetPlayer(ctx, p1ID)
	if err != nil {
		return nil, err
	}
	p2, err := s.ledger.GetPlayer(ctx, p2ID)
	if err != nil {
		return nil, err
	}

	for _, p := range []*models.Player{p1, p2} {
		if !p.IsActive {
			return nil, apperrors.Validation("player %s is not active", p.ID)
		}
	}

	for _, p := range []*models.Player{p1, p2} {
		active, err := s.activeMatchFor(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		if active != nil {
			return nil, apperrors.Conflict("player %s is already in active match %s", p.ID, active.ID)
		}
	}

	for _, p := range []*models.Player{p1, p2} {
		if p.BalanceCents < entryFeeCents {
			return nil, apperrors.InsufficientFunds("player %s balance %d is below entry fee %d", p.ID, p.BalanceCents, entryFeeCents)
		}
	}

	if entryFeeCents > 0 {
		for _, p := range []*models.Player{p1, p2} {
			if _, _, err := s.ledger.applyDelta(ctx, p.ID, -entryFeeCents); err != nil {
				return nil, err
			}
		}
	}

	match := &models.Match{
		ID:            uuid.NewString(),
		P1ID:          p1.ID,
		P2ID:          p2.ID,
		EntryFeeCents: entryFeeCents,
		PrizeCents:    prizeCents,
		P1Points:      0,
		P2Points:      0,
		DQPlayerID:    nil,
		EndedAt:       nil,
		CreatedAt:     time.Now(),
	}
	if err := s.store.CreateMatch(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to create match after debiting entry fees: %w", err)
	}
	return match, nil
}

func (s *MatchService) activeMatchFor(ctx context.Context, playerID string) (*models.Match, error) {
	active := true
	matches, err := s.store.ListMatches(ctx, models.MatchFilter{Active: &active, PlayerID: playerID})
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return &matches[0], nil
}

// loadParticipant fetches the match and player and checks the player may act
// in it: the match is active, the player plays in it and is active.
func (s *MatchService) loadParticipant(ctx context.Context, matchID, playerID string) (*models.Match, *models.Player, error) {
	match, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return nil, nil, err
	}
	player, err := s.ledger.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, nil, err
	}
	if !match.IsActive() {
		return nil, nil, apperrors.Conflict("match %s is not active", matchID)
	}
	if !match.HasParticipant(playerID) {
		return nil, nil, apperrors.Validation("player %s is not a participant of match %s", playerID, matchID)
	}
	if !player.IsActive {
		return nil, nil, apperrors.Validation("player %s is not active", playerID)
	}
	return match, player, nil
}

func (s *MatchService) AwardPoints(ctx context.Context, matchID, playerID string, points int64) (*models.Match, error) {
	if points <= 0 {
		return nil, apperrors.Validation("points must be a positive integer")
	}

	unlock := s.locks.Lock(utils.MatchKey(matchID))
	defer unlock()

	match, _, err := s.loadParticipant(ctx, matchID, playerID)
	if err != nil {
		return nil, err
	}
	if current := match.PointsFor(playerID); points > math.MaxInt64-current {
		return nil, apperrors.Validation("player %s has %d points, %d more would overflow", playerID, current, points)
	}
	side, _ := match.SideOf(playerID)

	updated, err := s.store.AddPoints(ctx, matchID, side, points)
	if err != nil {
		return nil, s.sealError(matchID, err)
	}
	return updated, nil
}

// Disqualify ends the match against playerID and pays the prize to the opponent.
func (s *MatchService) Disqualify(ctx context.Context, matchID, playerID string) (*models.Match, error) {
	sealed, err := s.disqualify(ctx, matchID, playerID)
	if err != nil {
		return nil, err
	}
	s.announceSettled(ctx, sealed)
	return sealed, nil
}

func (s *MatchService) disqualify(ctx context.Context, matchID, playerID string) (*models.Match, error) {
	unlock := s.locks.Lock(utils.MatchKey(matchID))
	defer unlock()

	match, _, err := s.loadParticipant(ctx, matchID, playerID)
	if err != nil {
		return nil, err
	}
	return s.settle(ctx, match, &playerID)
}

// EndMatch ends the match on points and pays the prize to the leader. A tied
// match cannot be ended.
func (s *MatchService) EndMatch(ctx context.Context, matchID string) (*models.Match, error) {
	sealed, err := s.end(ctx, matchID)
	if err != nil {
		return nil, err
	}
	s.announceSettled(ctx, sealed)
	return sealed, nil
}

func (s *MatchService) end(ctx context.Context, matchID string) (*models.Match, error) {
	unlock := s.locks.Lock(utils.MatchKey(matchID))
	defer unlock()

	match, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !match.IsActive() {
		return nil, apperrors.Conflict("match %s is not active", matchID)
	}
	if _, ok := match.Leader(); !ok {
		return nil, apperrors.Conflict("match %s is tied at %d-%d", matchID, match.P1Points, match.P2Points)
	}
	return s.settle(ctx, match, nil)
}

// settle seals an active match and credits its prize to the winner. The
// caller holds the match lock; settle adds the winner's lock and checks the
// prize fits the winner's balance before sealing, so a sealed match is
// always paid. Only the caller that sealed the match credits the prize.
func (s *MatchService) settle(ctx context.Context, match *models.Match, dqPlayerID *string) (*models.Match, error) {
	pending := *match
	pending.DQPlayerID = dqPlayerID
	winner, ok := pending.Leader()
	if !ok {
		return nil, fmt.Errorf("match %s has no winner to settle", match.ID)
	}

	unlock := s.locks.Lock(utils.PlayerKey(winner))
	defer unlock()

	if match.PrizeCents > 0 {
		player, err := s.ledger.GetPlayer(ctx, winner)
		if err != nil {
			return nil, err
		}
		if player.BalanceCents > math.MaxInt64-match.PrizeCents {
			return nil, apperrors.Conflict("prize %d of match %s does not fit balance %d of player %s", match.PrizeCents, match.ID, player.BalanceCents, winner)
		}
	}

	sealed, err := s.store.SealMatch(ctx, match.ID, dqPlayerID, time.Now())
	if err != nil {
		return nil, s.sealError(match.ID, err)
	}

	if sealed.PrizeCents > 0 {
		if _, _, err := s.ledger.applyDelta(ctx, winner, sealed.PrizeCents); err != nil {
			return nil, fmt.Errorf("failed to credit prize of match %s to %s: %w", sealed.ID, winner, err)
		}
	}

	log.Printf("Settled match %s: winner %s, prize %d, disqualified=%t", sealed.ID, winner, sealed.PrizeCents, sealed.IsDisqualified())
	return sealed, nil
}

// announceSettled publishes the settlement once every lock is released.
func (s *MatchService) announceSettled(ctx context.Context, sealed *models.Match) {
	winner, _ := sealed.Winner()
	publish(ctx, s.publisher, sealed.ID, events.TypeMatchSettled, events.MatchSettled{
		MatchID:      sealed.ID,
		WinnerID:     winner,
		PrizeCents:   sealed.PrizeCents,
		Disqualified: sealed.IsDisqualified(),
	})
}

func (s *MatchService) sealError(matchID string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperrors.NotFound("match %s not found", matchID)
	case errors.Is(err, store.ErrMatchEnded):
		return apperrors.Conflict("match %s is not active", matchID)
	case errors.Is(err, store.ErrPointsOverflow):
		return apperrors.Validation("points of match %s would overflow", matchID)
	}
	return fmt.Errorf("failed to update match %s: %w", matchID, err)
}

// View resolves participant names for the public match record.
func (s *MatchService) View(ctx context.Context, match *models.Match) (models.MatchView, error) {
	p1, err := s.optionalPlayer(ctx, match.P1ID)
	if err != nil {
		return models.MatchView{}, err
	}
	p2, err := s.optionalPlayer(ctx, match.P2ID)
	if err != nil {
		return models.MatchView{}, err
	}
	return models.NewMatchView(match, p1, p2, time.Now()), nil
}

func (s *MatchService) Views(ctx context.Context, matches []models.Match) ([]models.MatchView, error) {
	views := make([]models.MatchView, 0, len(matches))
	for i := range matches {
		view, err := s.View(ctx, &matches[i])
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *MatchService) optionalPlayer(ctx context.Context, playerID string) (*models.Player, error) {
	player, err := s.store.GetPlayer(ctx, playerID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return player, err
}
