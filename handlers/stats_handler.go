package handlers

import (
	"net/http"

	_ "github.com/Dosada05/boardgame-tracker/models"
	"github.com/Dosada05/boardgame-tracker/services"
)

type StatsHandler struct {
	statsService services.StatsService
}

func NewStatsHandler(statsService services.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// GetGameStats godoc
// @Summary      Статистика игроков по игре
// @Description  Учитываются только завершенные матчи; итоговые очки пересчитываются по правилам скоршита.
// @Tags         stats
// @Produce      json
// @Param        gameID path int true "ID игры"
// @Success      200 {object} map[string][]models.PlayerGameStats
// @Failure      403 {object} map[string]string
// @Failure      404 {object} map[string]string
// @Security     BearerAuth
// @Router       /games/{gameID}/stats [get]
func (h *StatsHandler) GetGameStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	stats, err := h.statsService.PlayerGameStats(r.Context(), userID, gameID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"stats": stats}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
