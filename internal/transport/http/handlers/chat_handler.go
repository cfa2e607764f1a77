package handlers

import (
	"errors"
	"net/http"

	authsvc "github.com/kindledapp/kindled/internal/services/auth"
	chatsvc "github.com/kindledapp/kindled/internal/services/chat"
	"github.com/kindledapp/kindled/internal/transport/http/dto"
	httperrors "github.com/kindledapp/kindled/internal/transport/http/errors"
)

type ChatHandler struct {
	service *chatsvc.Service
}

func NewChatHandler(service *chatsvc.Service) *ChatHandler {
	return &ChatHandler{service: service}
}

func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "CHAT_SERVICE_UNAVAILABLE", "chat service is unavailable")
		return
	}

	matchID, ok := pathID(r, "matchID")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid match id")
		return
	}

	limit := parseIntOrDefault(r.URL.Query().Get("limit"), 0)
	offset := parseIntOrDefault(r.URL.Query().Get("offset"), 0)
	// Opening a conversation marks it read unless the client opts out.
	markAsRead := r.URL.Query().Get("mark_as_read") != "false"

	page, err := h.service.ListMessages(r.Context(), matchID, identity.UserID, limit, offset, markAsRead)
	if err != nil {
		h.handleChatError(w, err)
		return
	}

	items := make([]dto.MessageResponse, 0, len(page.Messages))
	for _, msg := range page.Messages {
		items = append(items, mapMessage(msg))
	}

	httperrors.Write(w, http.StatusOK, dto.MessagesResponse{
		Items:       items,
		Total:       page.Total,
		UnreadCount: page.UnreadCount,
	})
}

func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "CHAT_SERVICE_UNAVAILABLE", "chat service is unavailable")
		return
	}

	matchID, ok := pathID(r, "matchID")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid match id")
		return
	}

	var req dto.SendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	msg, err := h.service.Send(r.Context(), matchID, identity.UserID, req.Content)
	if err != nil {
		h.handleChatError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, mapMessage(msg))
}

// UnreadTotal reports the viewer's unread count across all conversations,
// the number behind the chat tab badge.
func (h *ChatHandler) UnreadTotal(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "CHAT_SERVICE_UNAVAILABLE", "chat service is unavailable")
		return
	}

	total, err := h.service.UnreadTotal(r.Context(), identity.UserID)
	if err != nil {
		h.handleChatError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.UnreadTotalResponse{UnreadCount: total})
}

func (h *ChatHandler) handleChatError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chatsvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request")
	case errors.Is(err, chatsvc.ErrMatchNotFound):
		writeNotFound(w, "MATCH_NOT_FOUND", "match not found")
	case errors.Is(err, chatsvc.ErrMatchInactive):
		writeForbidden(w, "MATCH_INACTIVE", "this match is no longer active")
	case errors.Is(err, chatsvc.ErrForbidden):
		writeForbidden(w, "FORBIDDEN", "you are not part of this match")
	default:
		writeInternal(w, "INTERNAL_ERROR", "chat operation failed")
	}
}
