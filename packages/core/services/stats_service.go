package services

import (
	"context"
	"fmt"

	"tennis-ledger-api/packages/core/models"
	"tennis-ledger-api/packages/core/store"

	"github.com/shopspring/decimal"
)

// StatsService derives read-only aggregates from players and match history.
type StatsService struct {
	store store.Store
}

func NewStatsService(s store.Store) *StatsService {
	return &StatsService{
		store: s,
	}
}

// Project folds a player's match history into their statistics. Matches the
// player does not take part in are ignored. Wins and prize follow the same
// winner rule the match service pays out on.
func Project(playerID string, matches []models.Match) models.PlayerStats {
	var stats models.PlayerStats

	for i := range matches {
		m := &matches[i]
		if !m.HasParticipant(playerID) {
			continue
		}

		stats.NumJoin++
		stats.TotalPoints += m.PointsFor(playerID)

		if m.DQPlayerID != nil && *m.DQPlayerID == playerID {
			stats.NumDQ++
		}
		if m.IsActive() && stats.ActiveMatchID == nil {
			id := m.ID
			stats.ActiveMatchID = &id
		}
		if winner, ok := m.Winner(); ok && winner == playerID {
			stats.NumWon++
			stats.TotalPrizeCents += m.PrizeCents
		}
	}

	if stats.NumJoin > 0 {
		stats.Efficiency = float64(stats.NumWon) / float64(stats.NumJoin)
	}
	return stats
}

func (s *StatsService) PlayerStats(ctx context.Context, playerID string) (models.PlayerStats, error) {
	matches, err := s.store.ListMatches(ctx, models.MatchFilter{PlayerID: playerID})
	if err != nil {
		return models.PlayerStats{}, fmt.Errorf("failed to load matches of player %s: %w", playerID, err)
	}
	return Project(playerID, matches), nil
}

func (s *StatsService) PlayerView(ctx context.Context, player *models.Player) (models.PlayerView, error) {
	stats, err := s.PlayerStats(ctx, player.ID)
	if err != nil {
		return models.PlayerView{}, err
	}
	return models.NewPlayerView(player, stats), nil
}

// PlayerViews projects every player from one scan of the match collection.
func (s *StatsService) PlayerViews(ctx context.Context, players []models.Player) ([]models.PlayerView, error) {
	matches, err := s.store.ListMatches(ctx, models.MatchFilter{})
	if err != nil {
		return nil, err
	}

	byPlayer := make(map[string][]models.Match)
	for _, m := range matches {
		byPlayer[m.P1ID] = append(byPlayer[m.P1ID], m)
		byPlayer[m.P2ID] = append(byPlayer[m.P2ID], m)
	}

	views := make([]models.PlayerView, 0, len(players))
	for i := range players {
		p := &players[i]
		views = append(views, models.NewPlayerView(p, Project(p.ID, byPlayer[p.ID])))
	}
	return views, nil
}

func (s *StatsService) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	players, err := s.store.ListPlayers(ctx, models.PlayerFilter{})
	if err != nil {
		return nil, err
	}

	dashboard := &models.Dashboard{AvgBalance: decimal.Zero}
	sum := decimal.Zero
	for _, p := range players {
		dashboard.TotalNum++
		if p.IsActive {
			dashboard.NumActive++
		} else {
			dashboard.NumInactive++
		}
		sum = sum.Add(decimal.NewFromInt(p.BalanceCents))
	}

	if dashboard.TotalNum > 0 {
		dashboard.AvgBalance = sum.Div(decimal.NewFromInt(dashboard.TotalNum)).Round(2)
	}
	return dashboard, nil
}

// Audit checks the ledger invariants over the whole store: no negative
// balance, at most one active match per player, and no active match that
// refers to a missing player.
func (s *StatsService) Audit(ctx context.Context) ([]models.Violation, error) {
	players, err := s.store.ListPlayers(ctx, models.PlayerFilter{})
	if err != nil {
		return nil, err
	}
	active := true
	matches, err := s.store.ListMatches(ctx, models.MatchFilter{Active: &active})
	if err != nil {
		return nil, err
	}

	violations := []models.Violation{}
	known := make(map[string]bool, len(players))
	for _, p := range players {
		known[p.ID] = true
		if p.BalanceCents < 0 {
			violations = append(violations, models.Violation{
				Kind:     models.ViolationNegativeBalance,
				PlayerID: p.ID,
				Detail:   fmt.Sprintf("balance is %d", p.BalanceCents),
			})
		}
	}

	activeCount := make(map[string]int)
	for _, m := range matches {
		for _, pid := range []string{m.P1ID, m.P2ID} {
			activeCount[pid]++
			if !known[pid] {
				violations = append(violations, models.Violation{
					Kind:     models.ViolationUnknownParticipant,
					PlayerID: pid,
					Detail:   fmt.Sprintf("active match %s refers to a missing player", m.ID),
				})
			}
		}
	}
	for _, p := range players {
		if activeCount[p.ID] > 1 {
			violations = append(violations, models.Violation{
				Kind:     models.ViolationMultipleActive,
				PlayerID: p.ID,
				Detail:   fmt.Sprintf("player is in %d active matches", activeCount[p.ID]),
			})
		}
	}

	return violations, nil
}
