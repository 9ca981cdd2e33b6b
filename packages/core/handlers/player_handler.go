package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"tennis-ledger-api/packages/core/models"
	"tennis-ledger-api/packages/core/services"

	"github.com/gin-gonic/gin"
)

type PlayerHandler struct {
	ledgerService *services.LedgerService
	statsService  *services.StatsService
}

func NewPlayerHandler(ledgerService *services.LedgerService, statsService *services.StatsService) *PlayerHandler {
	return &PlayerHandler{
		ledgerService: ledgerService,
		statsService:  statsService,
	}
}

// GetPlayers lists players
// @Summary List players
// @Description List players sorted by name. q searches names as "name;fields" where fields is a comma list of fname,lname (default both). Without q, is_active filters by status ("*" or absent for all).
// @Tags players
// @Produce json
// @Param q query string false "Name search, e.g. 'raf;fname'"
// @Param is_active query string false "true, false or *"
// @Success 200 {array} models.PlayerView
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /player [get]
func (h *PlayerHandler) GetPlayers(c *gin.Context) {
	var filter models.PlayerFilter

	if q, ok := c.GetQuery("q"); ok {
		name, fields, _ := strings.Cut(q, ";")
		filter.Query = name
		if fields != "" {
			filter.Fields = strings.Split(fields, ",")
		}
	} else if isActive := c.DefaultQuery("is_active", "*"); isActive != "*" {
		active, err := strconv.ParseBool(isActive)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid is_active parameter"})
			return
		}
		filter.Active = &active
	}

	players, err := h.ledgerService.ListPlayers(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	views, err := h.statsService.PlayerViews(c.Request.Context(), players)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, views)
}

// GetPlayer retrieves a player by ID
// @Summary Get player by ID
// @Description Get a player with statistics derived from their match history
// @Tags players
// @Produce json
// @Param pid path string true "Player ID"
// @Success 200 {object} models.PlayerView
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /player/{pid} [get]
func (h *PlayerHandler) GetPlayer(c *gin.Context) {
	player, err := h.ledgerService.GetPlayer(c.Request.Context(), c.Param("pid"))
	if err != nil {
		respondError(c, err)
		return
	}

	h.respondView(c, http.StatusOK, player)
}

// CreatePlayer creates a new player
// @Summary Create a player
// @Description Create an active player with an initial balance. Accepts JSON or form data.
// @Tags players
// @Accept json
// @Produce json
// @Param player body models.CreatePlayerRequest true "Player data"
// @Success 201 {object} models.PlayerView
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /player [post]
func (h *PlayerHandler) CreatePlayer(c *gin.Context) {
	var req models.CreatePlayerRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	player, err := h.ledgerService.CreatePlayer(c.Request.Context(), req.FirstName, req.LastName, req.Handed, *req.InitialBalanceCents)
	if err != nil {
		respondError(c, err)
		return
	}

	h.respondView(c, http.StatusCreated, player)
}

// UpdatePlayer changes a player's last name or active flag
// @Summary Update a player
// @Description Update the last name and/or the active flag (admin only)
// @Tags players
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param pid path string true "Player ID"
// @Param player body models.UpdatePlayerRequest true "Fields to change"
// @Success 200 {object} models.PlayerView
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /player/{pid} [post]
func (h *PlayerHandler) UpdatePlayer(c *gin.Context) {
	var req models.UpdatePlayerRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	player, err := h.ledgerService.UpdatePlayer(c.Request.Context(), c.Param("pid"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.respondView(c, http.StatusOK, player)
}

// DeletePlayer deletes a player
// @Summary Delete a player
// @Description Delete a player that has never joined a match (admin only)
// @Tags players
// @Security BearerAuth
// @Produce json
// @Param pid path string true "Player ID"
// @Success 200 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /player/{pid} [delete]
func (h *PlayerHandler) DeletePlayer(c *gin.Context) {
	if err := h.ledgerService.DeletePlayer(c.Request.Context(), c.Param("pid")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Player deleted successfully"})
}

// Deposit credits a player's balance
// @Summary Deposit into a player's balance
// @Description Credit a positive amount in USD cents (admin only)
// @Tags players
// @Security BearerAuth
// @Produce json
// @Param pid path string true "Player ID"
// @Param amount_usd_cents query int true "Amount in USD cents"
// @Success 200 {object} models.DepositResult
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /deposit/player/{pid} [post]
func (h *PlayerHandler) Deposit(c *gin.Context) {
	amount, err := strconv.ParseInt(c.Query("amount_usd_cents"), 10, 64)
	if err != nil || amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount_usd_cents parameter"})
		return
	}

	result, err := h.ledgerService.Deposit(c.Request.Context(), c.Param("pid"), amount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *PlayerHandler) respondView(c *gin.Context, status int, player *models.Player) {
	view, err := h.statsService.PlayerView(c.Request.Context(), player)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, view)
}
