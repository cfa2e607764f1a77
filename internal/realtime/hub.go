package realtime

import (
	"sync"

	"go.uber.org/zap"

	"github.com/kindledapp/kindled/internal/domain/model"
	"github.com/kindledapp/kindled/internal/metrics"
)

// Hub is the session registry and broadcaster. It tracks every open
// connection, the per-user connection sets (personal channels) and the
// per-match rooms. All delivery is best effort: a full client buffer
// drops the event instead of blocking the sender.
type Hub struct {
	mu        sync.RWMutex
	clients   map[*Client]struct{}
	userConns map[int64]map[*Client]struct{}
	rooms     map[int64]map[*Client]struct{}

	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewHub(m *metrics.Metrics, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Hub{
		clients:   make(map[*Client]struct{}),
		userConns: make(map[int64]map[*Client]struct{}),
		rooms:     make(map[int64]map[*Client]struct{}),
		metrics:   m,
		logger:    logger,
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	conns, ok := h.userConns[client.UserID]
	if !ok {
		conns = make(map[*Client]struct{})
		h.userConns[client.UserID] = conns
	}
	conns[client] = struct{}{}
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.ConnectionOpened()
	}
	h.logger.Debug("client registered",
		zap.String("conn_id", client.ID),
		zap.Int64("user_id", client.UserID))
}

// Unregister removes one connection. Other connections of the same user
// stay registered and keep receiving.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	_, known := h.clients[client]
	if known {
		delete(h.clients, client)
		if conns, ok := h.userConns[client.UserID]; ok {
			delete(conns, client)
			if len(conns) == 0 {
				delete(h.userConns, client.UserID)
			}
		}
		for matchID, members := range h.rooms {
			delete(members, client)
			if len(members) == 0 {
				delete(h.rooms, matchID)
			}
		}
	}
	h.mu.Unlock()

	if !known {
		return
	}
	if h.metrics != nil {
		h.metrics.ConnectionClosed()
	}
	h.logger.Debug("client unregistered",
		zap.String("conn_id", client.ID),
		zap.Int64("user_id", client.UserID))
}

func (h *Hub) JoinRoom(matchID int64, client *Client) {
	h.mu.Lock()
	members, ok := h.rooms[matchID]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[matchID] = members
	}
	members[client] = struct{}{}
	h.mu.Unlock()
}

// LeaveRoom is idempotent; leaving a room the client never joined is a no-op.
func (h *Hub) LeaveRoom(matchID int64, client *Client) {
	h.mu.Lock()
	if members, ok := h.rooms[matchID]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, matchID)
		}
	}
	h.mu.Unlock()
}

// EmitToUser fans out to every connection of the user.
func (h *Hub) EmitToUser(userID int64, frame []byte) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.userConns[userID]))
	for client := range h.userConns[userID] {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	h.deliver(targets, frame)
}

// EmitToRoom sends to every connection currently joined to the match room.
func (h *Hub) EmitToRoom(matchID int64, frame []byte) {
	h.emitToRoom(matchID, nil, frame)
}

// EmitToRoomExcept skips one connection, used for typing echo suppression.
func (h *Hub) EmitToRoomExcept(matchID int64, except *Client, frame []byte) {
	h.emitToRoom(matchID, except, frame)
}

func (h *Hub) emitToRoom(matchID int64, except *Client, frame []byte) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.rooms[matchID]))
	for client := range h.rooms[matchID] {
		if client == except {
			continue
		}
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	h.deliver(targets, frame)
}

func (h *Hub) deliver(targets []*Client, frame []byte) {
	for _, client := range targets {
		if !client.trySend(frame) {
			h.logger.Warn("dropping event for slow client",
				zap.String("conn_id", client.ID),
				zap.Int64("user_id", client.UserID))
		}
	}
}

// NotifyMatch pushes a newly formed match to the user's personal channel.
// It satisfies the match formation service's notifier.
func (h *Hub) NotifyMatch(userID int64, match model.MatchWithPartner) {
	frame, err := matchEvent(match)
	if err != nil {
		h.logger.Error("encode match event", zap.Error(err))
		return
	}
	h.EmitToUser(userID, frame)
}

// ConnectedUsers reports how many distinct users have open connections.
func (h *Hub) ConnectedUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userConns)
}

// InRoom reports whether the client is currently joined to the match room.
func (h *Hub) InRoom(matchID int64, client *Client) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.rooms[matchID][client]
	return ok
}
