package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	_ "github.com/Dosada05/boardgame-tracker/models"
	"github.com/Dosada05/boardgame-tracker/services"
)

type ScoresheetHandler struct {
	scoresheetService services.ScoresheetService
}

func NewScoresheetHandler(scoresheetService services.ScoresheetService) *ScoresheetHandler {
	return &ScoresheetHandler{scoresheetService: scoresheetService}
}

// ListScoresheets godoc
// @Summary      Скоршиты игры
// @Tags         scoresheets
// @Produce      json
// @Param        gameID path int true "ID игры"
// @Success      200 {object} map[string][]models.Scoresheet
// @Failure      403 {object} map[string]string
// @Failure      404 {object} map[string]string
// @Security     BearerAuth
// @Router       /games/{gameID}/scoresheets [get]
func (h *ScoresheetHandler) ListScoresheets(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	sheets, err := h.scoresheetService.ListScoresheets(r.Context(), userID, gameID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"scoresheets": sheets}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CreateScoresheet godoc
// @Summary      Создать скоршит
// @Description  Раунды перечисляются по порядку. Для win_condition "Target Score" обязателен target_score.
// @Tags         scoresheets
// @Accept       json
// @Produce      json
// @Param        gameID path int true "ID игры"
// @Param        input body services.CreateScoresheetInput true "Настройки скоршита"
// @Success      201 {object} map[string]models.Scoresheet
// @Failure      400 {object} map[string]string
// @Failure      409 {object} map[string]string
// @Failure      422 {object} map[string]string
// @Security     BearerAuth
// @Router       /games/{gameID}/scoresheets [post]
func (h *ScoresheetHandler) CreateScoresheet(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.CreateScoresheetInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	sheet, err := h.scoresheetService.CreateScoresheet(r.Context(), userID, gameID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"scoresheet": sheet}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ImportScoresheets godoc
// @Summary      Импорт скоршитов из YAML
// @Description  Тело запроса: YAML-документ со списком scoresheets. Сохраняются все скоршиты или ни одного.
// @Tags         scoresheets
// @Accept       application/x-yaml
// @Produce      json
// @Param        gameID path int true "ID игры"
// @Success      201 {object} map[string][]models.Scoresheet
// @Failure      400 {object} map[string]string
// @Failure      409 {object} map[string]string
// @Failure      422 {object} map[string]string
// @Security     BearerAuth
// @Router       /games/{gameID}/scoresheets/import [post]
func (h *ScoresheetHandler) ImportScoresheets(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBytes)
	document, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			badRequestResponse(w, r, fmt.Errorf("body must not be larger than %d bytes", maxBytesErr.Limit))
			return
		}
		badRequestResponse(w, r, fmt.Errorf("failed to read body: %w", err))
		return
	}
	if len(document) == 0 {
		badRequestResponse(w, r, errors.New("body must not be empty"))
		return
	}

	sheets, err := h.scoresheetService.ImportTemplate(r.Context(), userID, gameID, document)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"scoresheets": sheets}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetScoresheet godoc
// @Summary      Получить скоршит с раундами
// @Tags         scoresheets
// @Produce      json
// @Param        scoresheetID path int true "ID скоршита"
// @Success      200 {object} map[string]models.Scoresheet
// @Failure      404 {object} map[string]string
// @Security     BearerAuth
// @Router       /scoresheets/{scoresheetID} [get]
func (h *ScoresheetHandler) GetScoresheet(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	sheetID, err := getIDFromURL(r, "scoresheetID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	sheet, err := h.scoresheetService.GetScoresheet(r.Context(), userID, sheetID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"scoresheet": sheet}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteScoresheet godoc
// @Summary      Удалить скоршит
// @Tags         scoresheets
// @Param        scoresheetID path int true "ID скоршита"
// @Success      204
// @Failure      404 {object} map[string]string
// @Failure      409 {object} map[string]string "скоршит используется в матчах"
// @Security     BearerAuth
// @Router       /scoresheets/{scoresheetID} [delete]
func (h *ScoresheetHandler) DeleteScoresheet(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	sheetID, err := getIDFromURL(r, "scoresheetID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.scoresheetService.DeleteScoresheet(r.Context(), userID, sheetID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
