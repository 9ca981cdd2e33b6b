package fixtures

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"

	"tennis-ledger-api/packages/core"
	"tennis-ledger-api/packages/core/apperrors"
	"tennis-ledger-api/packages/core/models"

	"gorm.io/gorm"
)

type Fixtures struct {
	db     *gorm.DB
	module *core.Module
	rng    *rand.Rand
}

func NewFixtures(db *gorm.DB, module *core.Module, seed int64) *Fixtures {
	return &Fixtures{
		db:     db,
		module: module,
		rng:    rand.New(rand.NewSource(seed)), // #nosec G404
	}
}

// Summary counts what GenerateTestData created.
type Summary struct {
	Players       int
	Settled       int
	Disqualified  int
	ActiveMatches int
}

// GenerateTestData creates players and plays matches through the engine, so
// balances and history stay consistent with real traffic.
func (f *Fixtures) GenerateTestData(ctx context.Context) (*Summary, error) {
	log.Println("Starting fixtures generation...")

	players, err := f.generatePlayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate players: %w", err)
	}

	summary := &Summary{Players: len(players)}
	if err := f.playMatches(ctx, players, 30, summary); err != nil {
		return nil, fmt.Errorf("failed to play matches: %w", err)
	}
	if err := f.openMatches(ctx, players, 2, summary); err != nil {
		return nil, fmt.Errorf("failed to open matches: %w", err)
	}

	log.Printf("Created %d players, %d settled matches (%d by disqualification), %d active matches",
		summary.Players, summary.Settled, summary.Disqualified, summary.ActiveMatches)
	return summary, nil
}

func (f *Fixtures) generatePlayers(ctx context.Context) ([]*models.Player, error) {
	names := [][2]string{
		{"Roger", "Federer"}, {"Rafael", "Nadal"}, {"Novak", "Djokovic"}, {"Andy", "Murray"},
		{"Serena", "Williams"}, {"Venus", "Williams"}, {"Steffi", "Graf"}, {"Monica", "Seles"},
		{"Iga", "Swiatek"}, {"Carlos", "Alcaraz"},
	}
	hands := []string{"right", "left", "right", "right", "right", "right", "right", "left", "right", "ambi"}

	players := make([]*models.Player, 0, len(names))
	for i, name := range names {
		balance := int64(5000 + f.rng.Intn(20)*500)
		player, err := f.module.LedgerService.CreatePlayer(ctx, name[0], name[1], hands[i], balance)
		if err != nil {
			return nil, err
		}
		players = append(players, player)
	}

	return players, nil
}

// playMatches plays n matches to completion between random pairs. Pairs that
// cannot afford the fee are skipped.
func (f *Fixtures) playMatches(ctx context.Context, players []*models.Player, n int, summary *Summary) error {
	for i := 0; i < n; i++ {
		p1, p2 := f.pair(players)
		fee := int64(100 * (1 + f.rng.Intn(5)))
		prize := fee * 2

		match, err := f.module.MatchService.CreateMatch(ctx, p1.ID, p2.ID, fee, prize)
		if errors.Is(err, apperrors.ErrInsufficientFunds) {
			continue
		}
		if err != nil {
			return err
		}

		if f.rng.Float32() < 0.1 {
			if _, err := f.module.MatchService.Disqualify(ctx, match.ID, p2.ID); err != nil {
				return err
			}
			summary.Settled++
			summary.Disqualified++
			continue
		}

		p1Points := int64(1 + f.rng.Intn(6))
		p2Points := int64(1 + f.rng.Intn(6))
		if p1Points == p2Points {
			p1Points++
		}
		if _, err := f.module.MatchService.AwardPoints(ctx, match.ID, p1.ID, p1Points); err != nil {
			return err
		}
		if _, err := f.module.MatchService.AwardPoints(ctx, match.ID, p2.ID, p2Points); err != nil {
			return err
		}
		if _, err := f.module.MatchService.EndMatch(ctx, match.ID); err != nil {
			return err
		}
		summary.Settled++
	}

	return nil
}

// openMatches leaves n matches running between disjoint pairs.
func (f *Fixtures) openMatches(ctx context.Context, players []*models.Player, n int, summary *Summary) error {
	for i := 0; i < n && 2*i+1 < len(players); i++ {
		p1, p2 := players[2*i], players[2*i+1]
		if _, err := f.module.MatchService.CreateMatch(ctx, p1.ID, p2.ID, 100, 150); err != nil {
			if errors.Is(err, apperrors.ErrInsufficientFunds) {
				continue
			}
			return err
		}
		summary.ActiveMatches++
	}
	return nil
}

func (f *Fixtures) pair(players []*models.Player) (*models.Player, *models.Player) {
	i := f.rng.Intn(len(players))
	j := f.rng.Intn(len(players) - 1)
	if j >= i {
		j++
	}
	return players[i], players[j]
}

// ClearAllData deletes every match and player.
func (f *Fixtures) ClearAllData() error {
	log.Println("Clearing all fixture data...")

	// Matches first, they reference players
	tables := []interface{}{
		&models.Match{},
		&models.Player{},
	}

	for _, table := range tables {
		if err := f.db.Where("1 = 1").Delete(table).Error; err != nil {
			return fmt.Errorf("failed to clear table %T: %w", table, err)
		}
	}

	log.Println("All fixture data cleared!")
	return nil
}
