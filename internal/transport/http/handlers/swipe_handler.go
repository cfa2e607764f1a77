package handlers

import (
	"errors"
	"net/http"

	"github.com/kindledapp/kindled/internal/domain/enums"
	authsvc "github.com/kindledapp/kindled/internal/services/auth"
	swipesvc "github.com/kindledapp/kindled/internal/services/swipes"
	"github.com/kindledapp/kindled/internal/transport/http/dto"
	httperrors "github.com/kindledapp/kindled/internal/transport/http/errors"
)

type SwipeHandler struct {
	service *swipesvc.Service
}

func NewSwipeHandler(service *swipesvc.Service) *SwipeHandler {
	return &SwipeHandler{service: service}
}

func (h *SwipeHandler) Swipe(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "SWIPE_SERVICE_UNAVAILABLE", "swipe service is unavailable")
		return
	}

	var req dto.SwipeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	result, err := h.service.RecordSwipe(r.Context(), identity.UserID, req.TargetUserID, enums.SwipeDirection(req.Direction))
	if err != nil {
		h.handleSwipeError(w, err)
		return
	}

	resp := dto.SwipeResponse{
		OK:      true,
		Matched: result.Match != nil,
		Message: result.Message,
	}
	if result.Match != nil {
		match := mapMatch(*result.Match)
		resp.Match = &match
	}

	httperrors.Write(w, http.StatusOK, resp)
}

func (h *SwipeHandler) handleSwipeError(w http.ResponseWriter, err error) {
	var tooFast swipesvc.TooFastError
	switch {
	case errors.As(err, &tooFast):
		httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
			Code:          "RATE_LIMITED",
			Message:       "swiping too fast, slow down",
			RetryAfterSec: tooFast.RetryAfterSec,
		})
	case errors.Is(err, swipesvc.ErrSelfSwipe):
		writeBadRequest(w, "SELF_SWIPE", "you cannot swipe on yourself")
	case errors.Is(err, swipesvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid swipe request")
	case errors.Is(err, swipesvc.ErrTargetNotFound):
		writeNotFound(w, "TARGET_NOT_FOUND", "target user not found")
	case errors.Is(err, swipesvc.ErrAlreadySwiped):
		writeConflict(w, "ALREADY_SWIPED", "you already swiped on this user")
	default:
		writeInternal(w, "INTERNAL_ERROR", "failed to record swipe")
	}
}
