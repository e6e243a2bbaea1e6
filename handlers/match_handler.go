package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/Dosada05/boardgame-tracker/models"
	"github.com/Dosada05/boardgame-tracker/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(matchService services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

// ListMatches godoc
// @Summary      Список матчей
// @Tags         matches
// @Produce      json
// @Param        game_id query int false "Фильтр по игре"
// @Param        status query string false "setup, in_progress или finished"
// @Success      200 {object} map[string][]models.Match
// @Failure      400 {object} map[string]string
// @Security     BearerAuth
// @Router       /matches [get]
func (h *MatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var filter services.ListMatchesFilter
	gameID, err := optionalIntQuery(r, "game_id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	filter.GameID = gameID

	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status := models.MatchStatus(raw)
		switch status {
		case models.MatchStatusSetup, models.MatchStatusInProgress, models.MatchStatusFinished:
			filter.Status = &status
		default:
			badRequestResponse(w, r, fmt.Errorf("unknown match status %q", raw))
			return
		}
	}

	matches, err := h.matchService.ListMatches(r.Context(), userID, filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CreateMatch godoc
// @Summary      Начать матч
// @Description  Игроки передаются в player_ids либо сгруппированными в teams. Без scoresheet_id берется скоршит игры по умолчанию.
// @Tags         matches
// @Accept       json
// @Produce      json
// @Param        input body services.CreateMatchInput true "Параметры матча"
// @Success      201 {object} map[string]models.Match
// @Failure      400 {object} map[string]string
// @Failure      404 {object} map[string]string
// @Failure      409 {object} map[string]string
// @Failure      422 {object} map[string]string
// @Security     BearerAuth
// @Router       /matches [post]
func (h *MatchHandler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var input services.CreateMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.CreateMatch(r.Context(), userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetMatch godoc
// @Summary      Получить матч с командами, игроками и очками по раундам
// @Tags         matches
// @Produce      json
// @Param        matchID path int true "ID матча"
// @Success      200 {object} map[string]models.Match
// @Failure      404 {object} map[string]string
// @Security     BearerAuth
// @Router       /matches/{matchID} [get]
func (h *MatchHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.GetMatch(r.Context(), userID, matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteMatch godoc
// @Summary      Удалить матч
// @Tags         matches
// @Param        matchID path int true "ID матча"
// @Success      204
// @Security     BearerAuth
// @Router       /matches/{matchID} [delete]
func (h *MatchHandler) DeleteMatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.matchService.DeleteMatch(r.Context(), userID, matchID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdateRoundScore godoc
// @Summary      Записать очки за раунд
// @Description  Очки записываются игроку и всем его партнерам по команде. score: null очищает значение.
// @Description  Подписчики /ws/matches/{matchID} получают SCORES_UPDATED.
// @Tags         matches
// @Accept       json
// @Produce      json
// @Param        matchID path int true "ID матча"
// @Param        input body services.UpdateRoundScoreInput true "Очки"
// @Success      200 {object} map[string][]scoring.FinalScoreResult
// @Failure      409 {object} map[string]string "матч завершен"
// @Failure      422 {object} map[string]string
// @Security     BearerAuth
// @Router       /matches/{matchID}/scores [put]
func (h *MatchHandler) UpdateRoundScore(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.UpdateRoundScoreInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	scores, err := h.matchService.UpdateRoundScore(r.Context(), userID, matchID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"scores": scores}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SetManualScore godoc
// @Summary      Задать итоговые очки вручную
// @Description  Только для скоршитов с rounds_score "Manual".
// @Tags         matches
// @Accept       json
// @Produce      json
// @Param        matchID path int true "ID матча"
// @Param        input body services.SetManualScoreInput true "Очки"
// @Success      200 {object} map[string][]scoring.FinalScoreResult
// @Failure      422 {object} map[string]string
// @Security     BearerAuth
// @Router       /matches/{matchID}/manual-scores [put]
func (h *MatchHandler) SetManualScore(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.SetManualScoreInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	scores, err := h.matchService.SetManualScore(r.Context(), userID, matchID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"scores": scores}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// FinishMatch godoc
// @Summary      Завершить матч
// @Description  Считает итоговые очки, места и победителей и сохраняет их. Для win_condition "Manual" места передаются в placements.
// @Tags         matches
// @Accept       json
// @Produce      json
// @Param        matchID path int true "ID матча"
// @Param        input body services.FinishMatchInput false "Длительность и ручные места"
// @Success      200 {object} models.MatchSummary
// @Failure      409 {object} map[string]string
// @Failure      422 {object} map[string]string
// @Security     BearerAuth
// @Router       /matches/{matchID}/finish [post]
func (h *MatchHandler) FinishMatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	// Тело необязательно: без него матч завершается с нулевой длительностью.
	var input services.FinishMatchInput
	if r.ContentLength != 0 {
		if err := readJSON(w, r, &input); err != nil {
			badRequestResponse(w, r, err)
			return
		}
	}
	if input.DurationSec < 0 {
		badRequestResponse(w, r, fmt.Errorf("duration_sec must not be negative"))
		return
	}

	summary, err := h.matchService.FinishMatch(r.Context(), userID, matchID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, summary, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetMatchSummary godoc
// @Summary      Итоги матча
// @Description  Для незавершенного матча места рассчитываются по текущим очкам и не сохраняются.
// @Tags         matches
// @Produce      json
// @Param        matchID path int true "ID матча"
// @Success      200 {object} models.MatchSummary
// @Failure      404 {object} map[string]string
// @Security     BearerAuth
// @Router       /matches/{matchID}/summary [get]
func (h *MatchHandler) GetMatchSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	summary, err := h.matchService.GetMatchSummary(r.Context(), userID, matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, summary, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
