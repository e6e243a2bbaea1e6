package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/boardgame-tracker/live"
	"github.com/Dosada05/boardgame-tracker/services"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin проверяет CORS-слой; браузерный клиент приходит с токеном в ?token=.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	hub          *live.Hub
	matchService services.MatchService
}

func NewWebSocketHandler(hub *live.Hub, matchService services.MatchService) *WebSocketHandler {
	return &WebSocketHandler{
		hub:          hub,
		matchService: matchService,
	}
}

// ServeWs подписывает клиента на обновления очков матча.
// Клиент подключается к /ws/matches/{matchID}?token=<jwt>
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	// Подписываться можно только на свои матчи.
	if _, err := h.matchService.GetMatch(r.Context(), userID, matchID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader.Upgrade сам отправляет HTTP ошибку клиенту.
		slog.WarnContext(r.Context(), "websocket upgrade failed", slog.Int("match_id", matchID), slog.Any("error", err))
		return
	}

	room := live.MatchRoom(matchID)
	client := live.NewClient(h.hub, conn, room)
	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()

	slog.DebugContext(r.Context(), "websocket client registered", slog.String("room", room), slog.Int("user_id", userID))
}
