package gormstore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"tennis-ledger-api/packages/core/models"
	"tennis-ledger-api/packages/core/store"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db: db,
	}
}

// AutoMigrate creates the players and matches tables from the models. The
// server uses the versioned migrations instead; this is for tests and tooling.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Player{}, &models.Match{})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	return err
}

func (s *GormStore) CreatePlayer(ctx context.Context, player *models.Player) error {
	return s.db.WithContext(ctx).Create(player).Error
}

func (s *GormStore) GetPlayer(ctx context.Context, id string) (*models.Player, error) {
	var player models.Player
	if err := s.db.WithContext(ctx).First(&player, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &player, nil
}

func (s *GormStore) ListPlayers(ctx context.Context, filter models.PlayerFilter) ([]models.Player, error) {
	query := s.db.WithContext(ctx).Model(&models.Player{})

	if filter.Active != nil {
		query = query.Where("is_active = ?", *filter.Active)
	}

	if filter.Query != "" {
		pattern := "%" + strings.ToLower(filter.Query) + "%"
		fields := filter.Fields
		if len(fields) == 0 {
			fields = []string{"fname", "lname"}
		}
		var conds []string
		var args []interface{}
		for _, f := range fields {
			switch f {
			case "fname":
				conds = append(conds, "LOWER(first_name) LIKE ?")
				args = append(args, pattern)
			case "lname":
				conds = append(conds, "LOWER(last_name) LIKE ?")
				args = append(args, pattern)
			}
		}
		if len(conds) == 0 {
			return []models.Player{}, nil
		}
		query = query.Where("("+strings.Join(conds, " OR ")+")", args...)
	}

	var players []models.Player
	if err := query.Order("created_at ASC").Find(&players).Error; err != nil {
		return nil, err
	}
	return players, nil
}

func (s *GormStore) UpdatePlayer(ctx context.Context, id string, update store.PlayerUpdate) (*models.Player, error) {
	updates := map[string]interface{}{}
	if update.LastName != nil {
		updates["last_name"] = *update.LastName
	}
	if update.Active != nil {
		updates["is_active"] = *update.Active
	}

	var player models.Player
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&player, "id = ?", id).Error; err != nil {
			return notFound(err)
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&player).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update player %s: %w", id, err)
		}
		return tx.First(&player, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *GormStore) DeletePlayer(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&models.Player{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *GormStore) IncrementBalance(ctx context.Context, id string, delta int64) (int64, int64, error) {
	var before, after int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var player models.Player
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&player, "id = ?", id).Error; err != nil {
			return notFound(err)
		}

		before = player.BalanceCents
		if delta > 0 && before > math.MaxInt64-delta {
			after = before
			return store.ErrBalanceOverflow
		}
		if before+delta < 0 {
			after = before
			return store.ErrInsufficientBalance
		}

		result := tx.Model(&models.Player{}).
			Where("id = ? AND balance_usd_cents + ? >= 0", id, delta).
			Update("balance_usd_cents", gorm.Expr("balance_usd_cents + ?", delta))
		if result.Error != nil {
			return fmt.Errorf("failed to update balance of player %s: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			after = before
			return store.ErrInsufficientBalance
		}

		after = before + delta
		return nil
	})
	if err != nil {
		return before, after, err
	}
	return before, after, nil
}

func (s *GormStore) CreateMatch(ctx context.Context, match *models.Match) error {
	return s.db.WithContext(ctx).Create(match).Error
}

func (s *GormStore) GetMatch(ctx context.Context, id string) (*models.Match, error) {
	var match models.Match
	if err := s.db.WithContext(ctx).First(&match, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &match, nil
}

func (s *GormStore) ListMatches(ctx context.Context, filter models.MatchFilter) ([]models.Match, error) {
	query := s.db.WithContext(ctx).Model(&models.Match{})

	if filter.Active != nil {
		if *filter.Active {
			query = query.Where("ended_at IS NULL")
		} else {
			query = query.Where("ended_at IS NOT NULL")
		}
	}

	if filter.PlayerID != "" {
		query = query.Where("(p1_id = ? OR p2_id = ?)", filter.PlayerID, filter.PlayerID)
	}

	var matches []models.Match
	if err := query.Order("created_at ASC").Find(&matches).Error; err != nil {
		return nil, err
	}
	return matches, nil
}

// updateActive applies updates to a match only while ended_at is NULL and
// the extra guard holds, and returns the updated row. A missing match, an
// ended match and a failed guard are told apart after the fact, inside the
// same transaction.
func (s *GormStore) updateActive(ctx context.Context, matchID string, updates map[string]interface{}, guard *activeGuard) (*models.Match, error) {
	var match models.Match

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&models.Match{}).Where("id = ? AND ended_at IS NULL", matchID)
		if guard != nil {
			query = query.Where(guard.condition, guard.args...)
		}
		result := query.Updates(updates)
		if result.Error != nil {
			return fmt.Errorf("failed to update match %s: %w", matchID, result.Error)
		}

		if err := tx.First(&match, "id = ?", matchID).Error; err != nil {
			return notFound(err)
		}
		if result.RowsAffected == 0 {
			if guard != nil && match.IsActive() {
				return guard.err
			}
			return store.ErrMatchEnded
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &match, nil
}

type activeGuard struct {
	condition string
	args      []interface{}
	err       error
}

func (s *GormStore) AddPoints(ctx context.Context, matchID string, side models.Side, points int64) (*models.Match, error) {
	column := "p1_points"
	if side == models.SideP2 {
		column = "p2_points"
	}
	return s.updateActive(ctx, matchID, map[string]interface{}{
		column: gorm.Expr(column+" + ?", points),
	}, &activeGuard{
		condition: column + " <= ?",
		args:      []interface{}{int64(math.MaxInt64) - points},
		err:       store.ErrPointsOverflow,
	})
}

func (s *GormStore) SealMatch(ctx context.Context, matchID string, dqPlayerID *string, endedAt time.Time) (*models.Match, error) {
	updates := map[string]interface{}{
		"ended_at": endedAt,
	}
	if dqPlayerID != nil {
		updates["dq_player_id"] = *dqPlayerID
	}
	return s.updateActive(ctx, matchID, updates, nil)
}

var _ store.Store = (*GormStore)(nil)
