package handlers

import (
	"net/http"
	"strings"

	"github.com/Dosada05/boardgame-tracker/models"
	"github.com/Dosada05/boardgame-tracker/services"
)

type GameHandler struct {
	gameService services.GameService
}

func NewGameHandler(gameService services.GameService) *GameHandler {
	return &GameHandler{gameService: gameService}
}

// ListGames godoc
// @Summary      Список игр пользователя
// @Description  С параметром q возвращает игры, отсортированные по нечеткому совпадению названия.
// @Tags         games
// @Produce      json
// @Param        q query string false "Поисковая строка"
// @Success      200 {object} map[string][]models.Game
// @Failure      401 {object} map[string]string
// @Security     BearerAuth
// @Router       /games [get]
func (h *GameHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var (
		games []models.Game
		err   error
	)
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		games, err = h.gameService.SearchGames(r.Context(), userID, q)
	} else {
		games, err = h.gameService.ListGames(r.Context(), userID)
	}
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"games": games}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CreateGame godoc
// @Summary      Создать игру
// @Description  Вместе с игрой создается скоршит по умолчанию "Standard".
// @Tags         games
// @Accept       json
// @Produce      json
// @Param        input body services.CreateGameInput true "Данные игры"
// @Success      201 {object} map[string]models.Game
// @Failure      400 {object} map[string]string
// @Failure      409 {object} map[string]string
// @Failure      422 {object} map[string]string
// @Security     BearerAuth
// @Router       /games [post]
func (h *GameHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var input services.CreateGameInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.gameService.CreateGame(r.Context(), userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetGame godoc
// @Summary      Получить игру
// @Tags         games
// @Produce      json
// @Param        gameID path int true "ID игры"
// @Success      200 {object} map[string]models.Game
// @Failure      403 {object} map[string]string
// @Failure      404 {object} map[string]string
// @Security     BearerAuth
// @Router       /games/{gameID} [get]
func (h *GameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.gameService.GetGame(r.Context(), userID, gameID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateGame godoc
// @Summary      Обновить игру
// @Tags         games
// @Accept       json
// @Produce      json
// @Param        gameID path int true "ID игры"
// @Param        input body services.UpdateGameInput true "Изменяемые поля"
// @Success      200 {object} map[string]models.Game
// @Failure      400 {object} map[string]string
// @Failure      404 {object} map[string]string
// @Failure      409 {object} map[string]string
// @Security     BearerAuth
// @Router       /games/{gameID} [put]
func (h *GameHandler) UpdateGame(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.UpdateGameInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.gameService.UpdateGame(r.Context(), userID, gameID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteGame godoc
// @Summary      Удалить игру
// @Tags         games
// @Param        gameID path int true "ID игры"
// @Success      204
// @Failure      404 {object} map[string]string
// @Security     BearerAuth
// @Router       /games/{gameID} [delete]
func (h *GameHandler) DeleteGame(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.gameService.DeleteGame(r.Context(), userID, gameID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UploadGameImage godoc
// @Summary      Загрузить обложку игры
// @Tags         games
// @Accept       multipart/form-data
// @Produce      json
// @Param        gameID path int true "ID игры"
// @Param        image formData file true "Изображение (jpeg, png, webp, gif)"
// @Success      200 {object} map[string]models.Game
// @Failure      400 {object} map[string]string
// @Failure      415 {object} map[string]string
// @Failure      503 {object} map[string]string
// @Security     BearerAuth
// @Router       /games/{gameID}/image [post]
func (h *GameHandler) UploadGameImage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	gameID, err := getIDFromURL(r, "gameID")
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

	game, err := h.gameService.UploadGameImage(r.Context(), userID, gameID, file, contentType)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
