package services

import (
	"context"
	"testing"

	"tennis-ledger-api/packages/core/events"
	"tennis-ledger-api/packages/core/models"
	"tennis-ledger-api/packages/core/store/memory"
	"tennis-ledger-api/packages/core/utils"

	"github.com/stretchr/testify/require"
)

type testEngine struct {
	store   *memory.MemoryStore
	ledger  *LedgerService
	matches *MatchService
	stats   *StatsService
	events  *events.Recorder
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()

	st := memory.NewMemoryStore()
	locks := utils.NewKeyedMutex()
	recorder := &events.Recorder{}
	ledger := NewLedgerService(st, locks, recorder)

	return &testEngine{
		store:   st,
		ledger:  ledger,
		matches: NewMatchService(st, ledger, locks, recorder),
		stats:   NewStatsService(st),
		events:  recorder,
	}
}

func (e *testEngine) player(t *testing.T, firstName string, balance int64) *models.Player {
	t.Helper()
	p, err := e.ledger.CreatePlayer(context.Background(), firstName, "", "right", balance)
	require.NoError(t, err)
	return p
}

func (e *testEngine) balance(t *testing.T, playerID string) int64 {
	t.Helper()
	p, err := e.ledger.GetPlayer(context.Background(), playerID)
	require.NoError(t, err)
	return p.BalanceCents
}

func (e *testEngine) match(t *testing.T, p1, p2 *models.Player, fee, prize int64) *models.Match {
	t.Helper()
	m, err := e.matches.CreateMatch(context.Background(), p1.ID, p2.ID, fee, prize)
	require.NoError(t, err)
	return m
}

func (e *testEngine) award(t *testing.T, m *models.Match, p *models.Player, points int64) {
	t.Helper()
	_, err := e.matches.AwardPoints(context.Background(), m.ID, p.ID, points)
	require.NoError(t, err)
}
