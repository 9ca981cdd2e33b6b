package memory

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"tennis-ledger-api/packages/core/models"
	"tennis-ledger-api/packages/core/store"
)

// MemoryStore keeps players and matches in maps guarded by a single mutex.
// Every method is one critical section, which gives the same atomic
// single-document semantics the SQL store gets from conditional updates.
// Values are copied in and out so callers never share state with the store.
type MemoryStore struct {
	mu      sync.Mutex
	players map[string]models.Player
	matches map[string]models.Match
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		players: make(map[string]models.Player),
		matches: make(map[string]models.Match),
	}
}

func (m *MemoryStore) CreatePlayer(ctx context.Context, player *models.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if player.CreatedAt.IsZero() {
		player.CreatedAt = now
	}
	player.UpdatedAt = now
	m.players[player.ID] = *player
	return nil
}

func (m *MemoryStore) GetPlayer(ctx context.Context, id string) (*models.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.players[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (m *MemoryStore) ListPlayers(ctx context.Context, filter models.PlayerFilter) ([]models.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]models.Player, 0, len(m.players))
	for _, p := range m.players {
		if filter.Active != nil && p.IsActive != *filter.Active {
			continue
		}
		if filter.Query != "" && !nameMatches(p, filter.Query, filter.Fields) {
			continue
		}
		result = append(result, p)
	}
	return result, nil
}

func nameMatches(p models.Player, query string, fields []string) bool {
	query = strings.ToLower(query)
	if len(fields) == 0 {
		fields = []string{"fname", "lname"}
	}
	for _, f := range fields {
		switch f {
		case "fname":
			if strings.Contains(strings.ToLower(p.FirstName), query) {
				return true
			}
		case "lname":
			if strings.Contains(strings.ToLower(p.LastName), query) {
				return true
			}
		}
	}
	return false
}

func (m *MemoryStore) UpdatePlayer(ctx context.Context, id string, update store.PlayerUpdate) (*models.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.players[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if update.LastName != nil {
		p.LastName = *update.LastName
	}
	if update.Active != nil {
		p.IsActive = *update.Active
	}
	p.UpdatedAt = time.Now()
	m.players[id] = p
	return &p, nil
}

func (m *MemoryStore) DeletePlayer(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.players[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.players, id)
	return nil
}

func (m *MemoryStore) IncrementBalance(ctx context.Context, id string, delta int64) (int64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.players[id]
	if !ok {
		return 0, 0, store.ErrNotFound
	}
	before := p.BalanceCents
	if delta > 0 && before > math.MaxInt64-delta {
		return before, before, store.ErrBalanceOverflow
	}
	if before+delta < 0 {
		return before, before, store.ErrInsufficientBalance
	}
	p.BalanceCents = before + delta
	p.UpdatedAt = time.Now()
	m.players[id] = p
	return before, p.BalanceCents, nil
}

func (m *MemoryStore) CreateMatch(ctx context.Context, match *models.Match) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if match.CreatedAt.IsZero() {
		match.CreatedAt = time.Now()
	}
	m.matches[match.ID] = *match
	return nil
}

func (m *MemoryStore) GetMatch(ctx context.Context, id string) (*models.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	match, ok := m.matches[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &match, nil
}

func (m *MemoryStore) ListMatches(ctx context.Context, filter models.MatchFilter) ([]models.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]models.Match, 0, len(m.matches))
	for _, match := range m.matches {
		if filter.Active != nil && match.IsActive() != *filter.Active {
			continue
		}
		if filter.PlayerID != "" && !match.HasParticipant(filter.PlayerID) {
			continue
		}
		result = append(result, match)
	}
	return result, nil
}

func (m *MemoryStore) AddPoints(ctx context.Context, matchID string, side models.Side, points int64) (*models.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	match, ok := m.matches[matchID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if !match.IsActive() {
		return nil, store.ErrMatchEnded
	}
	counter := &match.P1Points
	if side == models.SideP2 {
		counter = &match.P2Points
	}
	if points > math.MaxInt64-*counter {
		return nil, store.ErrPointsOverflow
	}
	*counter += points
	m.matches[matchID] = match
	return &match, nil
}

func (m *MemoryStore) SealMatch(ctx context.Context, matchID string, dqPlayerID *string, endedAt time.Time) (*models.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	match, ok := m.matches[matchID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if !match.IsActive() {
		return nil, store.ErrMatchEnded
	}
	if dqPlayerID != nil {
		dq := *dqPlayerID
		match.DQPlayerID = &dq
	}
	match.EndedAt = &endedAt
	m.matches[matchID] = match
	return &match, nil
}

// Compile-time check: ensure MemoryStore implements Store interface
var _ store.Store = (*MemoryStore)(nil)
