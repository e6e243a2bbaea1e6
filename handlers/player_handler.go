package handlers

import (
	"net/http"
	"strings"

	"github.com/Dosada05/boardgame-tracker/models"
	"github.com/Dosada05/boardgame-tracker/services"
)

type PlayerHandler struct {
	playerService services.PlayerService
}

func NewPlayerHandler(playerService services.PlayerService) *PlayerHandler {
	return &PlayerHandler{playerService: playerService}
}

// ListPlayers godoc
// @Summary      Список игроков
// @Tags         players
// @Produce      json
// @Param        q query string false "Нечеткий поиск по имени"
// @Success      200 {object} map[string][]models.Player
// @Security     BearerAuth
// @Router       /players [get]
func (h *PlayerHandler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var (
		players []models.Player
		err     error
	)
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		players, err = h.playerService.SearchPlayers(r.Context(), userID, q)
	} else {
		players, err = h.playerService.ListPlayers(r.Context(), userID)
	}
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"players": players}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CreatePlayer godoc
// @Summary      Создать игрока
// @Description  user_id связывает игрока с зарегистрированным пользователем.
// @Tags         players
// @Accept       json
// @Produce      json
// @Param        input body services.CreatePlayerInput true "Данные игрока"
// @Success      201 {object} map[string]models.Player
// @Failure      409 {object} map[string]string
// @Failure      422 {object} map[string]string
// @Security     BearerAuth
// @Router       /players [post]
func (h *PlayerHandler) CreatePlayer(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var input services.CreatePlayerInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	player, err := h.playerService.CreatePlayer(r.Context(), userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"player": player}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetPlayer godoc
// @Summary      Получить игрока
// @Tags         players
// @Produce      json
// @Param        playerID path int true "ID игрока"
// @Success      200 {object} map[string]models.Player
// @Failure      404 {object} map[string]string
// @Security     BearerAuth
// @Router       /players/{playerID} [get]
func (h *PlayerHandler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	player, err := h.playerService.GetPlayer(r.Context(), userID, playerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"player": player}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdatePlayer godoc
// @Summary      Обновить игрока
// @Tags         players
// @Accept       json
// @Produce      json
// @Param        playerID path int true "ID игрока"
// @Param        input body services.UpdatePlayerInput true "Изменяемые поля"
// @Success      200 {object} map[string]models.Player
// @Security     BearerAuth
// @Router       /players/{playerID} [put]
func (h *PlayerHandler) UpdatePlayer(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.UpdatePlayerInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	player, err := h.playerService.UpdatePlayer(r.Context(), userID, playerID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"player": player}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeletePlayer godoc
// @Summary      Удалить игрока
// @Tags         players
// @Param        playerID path int true "ID игрока"
// @Success      204
// @Failure      409 {object} map[string]string "игрок участвовал в матчах"
// @Security     BearerAuth
// @Router       /players/{playerID} [delete]
func (h *PlayerHandler) DeletePlayer(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.playerService.DeletePlayer(r.Context(), userID, playerID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UploadPlayerImage godoc
// @Summary      Загрузить аватар игрока
// @Tags         players
// @Accept       multipart/form-data
// @Produce      json
// @Param        playerID path int true "ID игрока"
// @Param        image formData file true "Изображение"
// @Success      200 {object} map[string]models.Player
// @Failure      415 {object} map[string]string
// @Failure      503 {object} map[string]string
// @Security     BearerAuth
// @Router       /players/{playerID}/image [post]
func (h *PlayerHandler) UploadPlayerImage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	file, contentType, err := readImageUpload(w, r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	defer file.Close()

	player, err := h.playerService.UploadPlayerImage(r.Context(), userID, playerID, file, contentType)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"player": player}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
