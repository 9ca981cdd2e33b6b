package core

import (
	"log"

	"tennis-ledger-api/packages/core/cron"
	"tennis-ledger-api/packages/core/events"
	"tennis-ledger-api/packages/core/handlers"
	"tennis-ledger-api/packages/core/services"
	"tennis-ledger-api/packages/core/store"
	"tennis-ledger-api/packages/core/utils"

	"github.com/gin-gonic/gin"
)

type Module struct {
	PlayerHandler         *handlers.PlayerHandler
	LedgerService         *services.LedgerService
	MatchHandler          *handlers.MatchHandler
	MatchService          *services.MatchService
	StatsHandler          *handlers.StatsHandler
	StatsService          *services.StatsService
	ReconciliationService *services.ReconciliationService
	Scheduler             *cron.Scheduler
}

// NewModule wires the engine over s. Every service shares one lock table so
// player and match keys serialize across them.
func NewModule(s store.Store, publisher events.Publisher, reconcileSchedule string) *Module {
	locks := utils.NewKeyedMutex()

	ledgerService := services.NewLedgerService(s, locks, publisher)
	matchService := services.NewMatchService(s, ledgerService, locks, publisher)
	statsService := services.NewStatsService(s)

	playerHandler := handlers.NewPlayerHandler(ledgerService, statsService)
	matchHandler := handlers.NewMatchHandler(matchService)
	statsHandler := handlers.NewStatsHandler(statsService)

	reconciliationService := services.NewReconciliationService(statsService)
	scheduler := cron.NewScheduler(reconciliationService, reconcileSchedule)

	return &Module{
		PlayerHandler:         playerHandler,
		LedgerService:         ledgerService,
		MatchHandler:          matchHandler,
		MatchService:          matchService,
		StatsHandler:          statsHandler,
		StatsService:          statsService,
		ReconciliationService: reconciliationService,
		Scheduler:             scheduler,
	}
}

// SetupRoutes mounts the API under /api. adminOnly guards the routes that
// edit players or move money in from outside.
func (m *Module) SetupRoutes(r *gin.Engine, adminOnly ...gin.HandlerFunc) {
	api := r.Group("/api")

	players := api.Group("/player")
	{
		players.GET("", m.PlayerHandler.GetPlayers)
		players.POST("", m.PlayerHandler.CreatePlayer)
		players.GET("/:pid", m.PlayerHandler.GetPlayer)
		players.POST("/:pid", guarded(adminOnly, m.PlayerHandler.UpdatePlayer)...)
		players.DELETE("/:pid", guarded(adminOnly, m.PlayerHandler.DeletePlayer)...)
	}

	api.POST("/deposit/player/:pid", guarded(adminOnly, m.PlayerHandler.Deposit)...)
	api.GET("/dashboard/player", m.StatsHandler.GetDashboard)

	matches := api.Group("/match")
	{
		matches.GET("", m.MatchHandler.GetMatches)
		matches.POST("", m.MatchHandler.CreateMatch)
		matches.GET("/:mid", m.MatchHandler.GetMatch)
		matches.POST("/:mid/award/:pid", m.MatchHandler.AwardPoints)
		matches.POST("/:mid/end", m.MatchHandler.EndMatch)
		matches.POST("/:mid/disqualify/:pid", m.MatchHandler.Disqualify)
	}
}

func guarded(middleware []gin.HandlerFunc, handler gin.HandlerFunc) []gin.HandlerFunc {
	chain := make([]gin.HandlerFunc, 0, len(middleware)+1)
	chain = append(chain, middleware...)
	return append(chain, handler)
}

// StartScheduler starts the cron scheduler for reconciliation
func (m *Module) StartScheduler() error {
	log.Println("Starting core module scheduler...")
	return m.Scheduler.Start()
}

// StopScheduler stops the cron scheduler
func (m *Module) StopScheduler() {
	log.Println("Stopping core module scheduler...")
	m.Scheduler.Stop()
}

// RunReconciliationNow runs the ledger audit immediately
func (m *Module) RunReconciliationNow() {
	log.Println("Manually triggering reconciliation...")
	m.Scheduler.RunNow()
}
