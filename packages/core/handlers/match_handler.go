package handlers

import (
	"net/http"
	"strconv"

	"tennis-ledger-api/packages/core/models"
	"tennis-ledger-api/packages/core/services"

	"github.com/gin-gonic/gin"
)

type MatchHandler struct {
	matchService *services.MatchService
}

func NewMatchHandler(matchService *services.MatchService) *MatchHandler {
	return &MatchHandler{
		matchService: matchService,
	}
}

// GetMatches lists matches
// @Summary List matches
// @Description List matches, highest prize first. is_active defaults to true; "*" lists every match.
// @Tags matches
// @Produce json
// @Param is_active query string false "true (default), false or *"
// @Success 200 {array} models.MatchView
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /match [get]
func (h *MatchHandler) GetMatches(c *gin.Context) {
	var filter models.MatchFilter

	if isActive := c.DefaultQuery("is_active", "true"); isActive != "*" {
		active, err := strconv.ParseBool(isActive)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid is_active parameter"})
			return
		}
		filter.Active = &active
	}

	matches, err := h.matchService.ListMatches(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	views, err := h.matchService.Views(c.Request.Context(), matches)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, views)
}

// GetMatch retrieves a match by ID
// @Summary Get match by ID
// @Tags matches
// @Produce json
// @Param mid path string true "Match ID"
// @Success 200 {object} models.MatchView
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /match/{mid} [get]
func (h *MatchHandler) GetMatch(c *gin.Context) {
	match, err := h.matchService.GetMatch(c.Request.Context(), c.Param("mid"))
	if err != nil {
		respondError(c, err)
		return
	}

	h.respondView(c, http.StatusOK, match)
}

// CreateMatch creates a new match
// @Summary Create a match
// @Description Debit the entry fee from both players and open a match between them
// @Tags matches
// @Accept json
// @Produce json
// @Param match body models.CreateMatchRequest true "Match data"
// @Success 201 {object} models.MatchView
// @Failure 400 {object} map[string]string
// @Failure 402 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /match [post]
func (h *MatchHandler) CreateMatch(c *gin.Context) {
	var req models.CreateMatchRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	match, err := h.matchService.CreateMatch(c.Request.Context(), req.P1ID, req.P2ID, *req.EntryFeeCents, *req.PrizeCents)
	if err != nil {
		respondError(c, err)
		return
	}

	h.respondView(c, http.StatusCreated, match)
}

// AwardPoints adds points to a participant
// @Summary Award points
// @Tags matches
// @Produce json
// @Param mid path string true "Match ID"
// @Param pid path string true "Player ID"
// @Param points query int true "Points to add, positive"
// @Success 200 {object} models.MatchView
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /match/{mid}/award/{pid} [post]
func (h *MatchHandler) AwardPoints(c *gin.Context) {
	points, err := strconv.ParseInt(c.Query("points"), 10, 64)
	if err != nil || points <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid points parameter"})
		return
	}

	match, err := h.matchService.AwardPoints(c.Request.Context(), c.Param("mid"), c.Param("pid"), points)
	if err != nil {
		respondError(c, err)
		return
	}

	h.respondView(c, http.StatusOK, match)
}

// EndMatch ends a match on points
// @Summary End a match
// @Description End an active, untied match and pay the prize to the leader
// @Tags matches
// @Produce json
// @Param mid path string true "Match ID"
// @Success 200 {object} models.MatchView
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /match/{mid}/end [post]
func (h *MatchHandler) EndMatch(c *gin.Context) {
	match, err := h.matchService.EndMatch(c.Request.Context(), c.Param("mid"))
	if err != nil {
		respondError(c, err)
		return
	}

	h.respondView(c, http.StatusOK, match)
}

// Disqualify disqualifies a participant
// @Summary Disqualify a player
// @Description End the match against the player and pay the prize to the opponent
// @Tags matches
// @Produce json
// @Param mid path string true "Match ID"
// @Param pid path string true "Player ID"
// @Success 200 {object} models.MatchView
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /match/{mid}/disqualify/{pid} [post]
func (h *MatchHandler) Disqualify(c *gin.Context) {
	match, err := h.matchService.Disqualify(c.Request.Context(), c.Param("mid"), c.Param("pid"))
	if err != nil {
		respondError(c, err)
		return
	}

	h.respondView(c, http.StatusOK, match)
}

func (h *MatchHandler) respondView(c *gin.Context, status int, match *models.Match) {
	view, err := h.matchService.View(c.Request.Context(), match)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, view)
}
