package handlers

import (
	"errors"
	"net/http"

	authsvc "github.com/kindledapp/kindled/internal/services/auth"
	matchsvc "github.com/kindledapp/kindled/internal/services/matches"
	"github.com/kindledapp/kindled/internal/transport/http/dto"
	httperrors "github.com/kindledapp/kindled/internal/transport/http/errors"
)

type MatchesHandler struct {
	service *matchsvc.Service
}

func NewMatchesHandler(service *matchsvc.Service) *MatchesHandler {
	return &MatchesHandler{service: service}
}

func (h *MatchesHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MATCH_SERVICE_UNAVAILABLE", "match service is unavailable")
		return
	}

	summaries, err := h.service.List(r.Context(), identity.UserID)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to load matches")
		return
	}

	items := make([]dto.MatchSummaryResponse, 0, len(summaries))
	for _, summary := range summaries {
		item := dto.MatchSummaryResponse{
			MatchResponse: mapMatch(summary.MatchWithPartner),
			UnreadCount:   summary.UnreadCount,
		}
		if summary.LastMessage != nil {
			last := mapMessage(*summary.LastMessage)
			item.LastMessage = &last
		}
		items = append(items, item)
	}

	httperrors.Write(w, http.StatusOK, dto.MatchesResponse{Items: items})
}

func (h *MatchesHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MATCH_SERVICE_UNAVAILABLE", "match service is unavailable")
		return
	}

	matchID, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid match id")
		return
	}

	match, err := h.service.Get(r.Context(), matchID, identity.UserID)
	if err != nil {
		h.handleMatchError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, mapMatch(match))
}

func (h *MatchesHandler) Unmatch(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MATCH_SERVICE_UNAVAILABLE", "match service is unavailable")
		return
	}

	matchID, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid match id")
		return
	}

	if err := h.service.Unmatch(r.Context(), matchID, identity.UserID); err != nil {
		h.handleMatchError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.UnmatchResponse{OK: true})
}

func (h *MatchesHandler) handleMatchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, matchsvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request")
	case errors.Is(err, matchsvc.ErrNotFound):
		writeNotFound(w, "MATCH_NOT_FOUND", "match not found")
	case errors.Is(err, matchsvc.ErrForbidden):
		writeForbidden(w, "FORBIDDEN", "you are not part of this match")
	default:
		writeInternal(w, "INTERNAL_ERROR", "match operation failed")
	}
}
