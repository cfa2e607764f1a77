package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/kindledapp/kindled/internal/config"
	"github.com/kindledapp/kindled/internal/domain/model"
	authsvc "github.com/kindledapp/kindled/internal/services/auth"
	chatsvc "github.com/kindledapp/kindled/internal/services/chat"
)

const eventTimeout = 10 * time.Second

type TokenVerifier interface {
	VerifyAccess(ctx context.Context, accessToken string) (authsvc.Identity, error)
}

type ChatService interface {
	Send(ctx context.Context, matchID, senderID int64, content string) (model.Message, error)
	MarkRead(ctx context.Context, matchID, userID int64) error
	Partner(ctx context.Context, matchID, userID int64) (int64, error)
}

type MatchAccess interface {
	EnsureParty(ctx context.Context, matchID, userID int64) error
}

// Handler upgrades /ws requests and runs the event loop for each
// connection. The token is verified before the client is registered, so
// a rejected connection leaves no state behind.
type Handler struct {
	hub      *Hub
	verifier TokenVerifier
	chat     ChatService
	matches  MatchAccess
	cfg      config.RealtimeConfig
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub, verifier TokenVerifier, chat ChatService, matches MatchAccess, cfg config.RealtimeConfig, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Handler{
		hub:      hub,
		verifier: verifier,
		chat:     chat,
		matches:  matches,
		cfg:      cfg,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The token already authenticates the connection.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)

	identity, verifyErr := authsvc.Identity{}, error(nil)
	if token == "" {
		verifyErr = authsvc.ErrUnauthorized
	} else {
		identity, verifyErr = h.verifier.VerifyAccess(r.Context(), token)
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	if verifyErr != nil {
		// Browsers cannot read HTTP error bodies on a websocket request,
		// so the rejection travels as a close frame.
		deadline := time.Now().Add(h.cfg.WriteWait)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unauthorized"), deadline)
		_ = conn.Close()
		return
	}

	client := newClient(h.hub, conn, identity.UserID, clientOptions{
		sendBuffer: h.cfg.SendBufferSize,
		pongWait:   h.cfg.PongWait,
		pingEvery:  h.cfg.PingInterval,
		writeWait:  h.cfg.WriteWait,
		maxBytes:   h.cfg.MaxMessageBytes,
		eventsPerS: h.cfg.EventsPerSecond,
		burst:      h.cfg.EventBurst,
	}, h.logger)

	h.hub.Register(client)

	go client.writePump()
	go client.readPump(h.dispatch)
}

// dispatch routes one inbound frame. A bad frame answers with an error
// event; the connection always survives handler-level failures.
func (h *Handler) dispatch(client *Client, frame []byte) {
	var envelope Envelope
	if err := json.Unmarshal(frame, &envelope); err != nil {
		client.sendError("malformed event")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	switch envelope.Type {
	case EventJoinChat:
		h.handleJoinChat(ctx, client, envelope.Data)
	case EventLeaveChat:
		h.handleLeaveChat(client, envelope.Data)
	case EventSendMessage:
		h.handleSendMessage(ctx, client, envelope.Data)
	case EventMarkAsRead:
		h.handleMarkAsRead(ctx, client, envelope.Data)
	case EventTyping:
		h.handleTyping(client, envelope.Data)
	default:
		client.sendError("unknown event type")
	}
}

func (h *Handler) handleJoinChat(ctx context.Context, client *Client, data json.RawMessage) {
	var payload chatRef
	if err := json.Unmarshal(data, &payload); err != nil || payload.MatchID <= 0 {
		client.sendError("malformed joinChat payload")
		return
	}

	if err := h.matches.EnsureParty(ctx, payload.MatchID, client.UserID); err != nil {
		client.sendError("cannot join this chat")
		return
	}

	h.hub.JoinRoom(payload.MatchID, client)
}

func (h *Handler) handleLeaveChat(client *Client, data json.RawMessage) {
	var payload chatRef
	if err := json.Unmarshal(data, &payload); err != nil || payload.MatchID <= 0 {
		client.sendError("malformed leaveChat payload")
		return
	}

	h.hub.LeaveRoom(payload.MatchID, client)
}

func (h *Handler) handleSendMessage(ctx context.Context, client *Client, data json.RawMessage) {
	var payload sendMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.MatchID <= 0 {
		client.sendError("malformed sendMessage payload")
		return
	}

	// The ledger write happens before any broadcast; nothing is emitted
	// for a message that was not persisted.
	message, err := h.chat.Send(ctx, payload.MatchID, client.UserID, payload.Content)
	if err != nil {
		client.sendError(sendFailureText(err))
		return
	}

	if frame, err := messageEvent(message); err == nil {
		h.hub.EmitToRoom(message.MatchID, frame)
	}

	partnerID, err := h.chat.Partner(ctx, message.MatchID, client.UserID)
	if err != nil {
		h.logger.Warn("resolve message recipient",
			zap.Int64("match_id", message.MatchID),
			zap.Error(err))
		return
	}
	if frame, err := notificationEvent(message); err == nil {
		h.hub.EmitToUser(partnerID, frame)
	}
}

func (h *Handler) handleMarkAsRead(ctx context.Context, client *Client, data json.RawMessage) {
	var payload chatRef
	if err := json.Unmarshal(data, &payload); err != nil || payload.MatchID <= 0 {
		client.sendError("malformed markAsRead payload")
		return
	}

	if err := h.chat.MarkRead(ctx, payload.MatchID, client.UserID); err != nil {
		client.sendError("cannot mark this chat as read")
	}
}

// handleTyping relays the indicator to the room minus the sender; typing
// is never persisted. Membership was checked at join time, so the relay
// only requires the sender to actually be in the room.
func (h *Handler) handleTyping(client *Client, data json.RawMessage) {
	var payload typingPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.MatchID <= 0 {
		client.sendError("malformed typing payload")
		return
	}

	if !h.hub.InRoom(payload.MatchID, client) {
		client.sendError("join the chat before typing")
		return
	}

	frame, err := typingEvent(payload.MatchID, client.UserID, payload.IsTyping)
	if err != nil {
		return
	}
	h.hub.EmitToRoomExcept(payload.MatchID, client, frame)
}

func sendFailureText(err error) string {
	switch {
	case errors.Is(err, chatsvc.ErrMatchInactive):
		return "match is no longer active"
	case errors.Is(err, chatsvc.ErrValidation):
		return "invalid message"
	default:
		return "message could not be sent"
	}
}

func bearerToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
