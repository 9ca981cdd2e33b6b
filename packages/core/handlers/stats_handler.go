package handlers

import (
	"net/http"

	"tennis-ledger-api/packages/core/services"

	"github.com/gin-gonic/gin"
)

type StatsHandler struct {
	statsService *services.StatsService
}

func NewStatsHandler(statsService *services.StatsService) *StatsHandler {
	return &StatsHandler{
		statsService: statsService,
	}
}

// GetDashboard retrieves player statistics
// @Summary Get player dashboard
// @Description Get the number of players, active and inactive, and the average balance in USD cents
// @Tags stats
// @Produce json
// @Success 200 {object} models.Dashboard
// @Failure 500 {object} map[string]string
// @Router /dashboard/player [get]
func (h *StatsHandler) GetDashboard(c *gin.Context) {
	dashboard, err := h.statsService.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}
