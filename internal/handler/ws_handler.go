package handler

import (
	"encoding/json"
	"net/http"

	"moodsync-server/internal/websocket"
	"moodsync-server/pkg/jwt"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type WebSocketHandler struct {
	manager   *websocket.Manager
	jwtSecret string
	upgrader  ws.Upgrader
	logger    *zap.Logger
}

func NewWebSocketHandler(manager *websocket.Manager, jwtSecret string, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		manager:   manager,
		jwtSecret: jwtSecret,
		logger:    logger.Named("ws"),
		upgrader: ws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = r.Header.Get("Authorization")
		if len(token) > 7 && token[:7] == "Bearer " {
			token = token[7:]
		}
	}

	if token == "" {
		http.Error(w, "missing authorization token", http.StatusUnauthorized)
		return
	}

	claims, err := jwt.ValidateToken(token, h.jwtSecret)
	if err != nil {
		h.logger.Warn("token validation failed", zap.Error(err))
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	userID := claims.UserID

	deviceID := r.URL.Query().Get("device_id")
	if deviceID == "" {
		deviceID = "default"
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("failed to upgrade connection", zap.Error(err))
		return
	}

	h.logger.Info("connection upgraded",
		zap.String("user_id", userID),
		zap.String("device_id", deviceID),
		zap.Int("active_connections", h.manager.GetUserConnections(userID)),
	)

	clientID := uuid.New().String()
	client := websocket.NewClient(clientID, userID, deviceID, conn, h.manager)
	h.manager.Register <- client

	go client.WritePump()
	go client.ReadPump()
}

// WebSocketMessageHandler routes inbound client messages. Merges go through
// the HTTP endpoint; the socket only carries lightweight liveness traffic
// and server-initiated pushes.
type WebSocketMessageHandler struct {
	logger *zap.Logger
}

func NewWebSocketMessageHandler(logger *zap.Logger) *WebSocketMessageHandler {
	return &WebSocketMessageHandler{logger: logger.Named("ws-messages")}
}

func (h *WebSocketMessageHandler) HandleWebSocketMessage(client *websocket.Client, msg *websocket.Message) error {
	switch msg.Type {
	case websocket.TypePing:
		return h.handlePing(client)

	case websocket.TypeAck:
		return h.handleAck(client, msg)

	default:
		h.logger.Warn("unknown message type", zap.String("type", string(msg.Type)))
		nack, err := websocket.NewMessage(websocket.TypeAck, &websocket.AckPayload{
			Success: false,
			Error:   "unsupported message type: " + string(msg.Type),
		})
		if err != nil {
			return err
		}
		return client.Manager.SendToClient(client.ID, nack)
	}
}

func (h *WebSocketMessageHandler) handleAck(client *websocket.Client, msg *websocket.Message) error {
	var payload websocket.AckPayload
	if err := msg.UnmarshalPayload(&payload); err != nil {
		return err
	}
	if !payload.Success {
		h.logger.Warn("client reported delivery failure",
			zap.String("client_id", client.ID),
			zap.String("message_id", payload.MessageID),
			zap.String("error", payload.Error),
		)
	}
	return nil
}

func (h *WebSocketMessageHandler) handlePing(client *websocket.Client) error {
	pongMsg, err := websocket.NewMessage(websocket.TypePong, nil)
	if err != nil {
		return err
	}

	pongBytes, _ := json.Marshal(pongMsg)
	client.Send <- pongBytes

	return nil
}
