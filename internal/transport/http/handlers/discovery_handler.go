package handlers

import (
	"errors"
	"net/http"

	authsvc "github.com/kindledapp/kindled/internal/services/auth"
	discoverysvc "github.com/kindledapp/kindled/internal/services/discovery"
	"github.com/kindledapp/kindled/internal/transport/http/dto"
	httperrors "github.com/kindledapp/kindled/internal/transport/http/errors"
)

type DiscoveryHandler struct {
	service *discoverysvc.Service
}

func NewDiscoveryHandler(service *discoverysvc.Service) *DiscoveryHandler {
	return &DiscoveryHandler{service: service}
}

func (h *DiscoveryHandler) Discover(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "DISCOVERY_SERVICE_UNAVAILABLE", "discovery service is unavailable")
		return
	}

	filters, err := filtersFromQuery(r)
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid filter parameters")
		return
	}

	candidates, err := h.service.Discover(r.Context(), identity.UserID, filters)
	if err != nil {
		switch {
		case errors.Is(err, discoverysvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "filter validation failed")
		case errors.Is(err, discoverysvc.ErrProfileNotFound):
			writeNotFound(w, "PROFILE_NOT_FOUND", "complete your profile before discovering")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to load candidates")
		}
		return
	}

	items := make([]dto.CandidateResponse, 0, len(candidates))
	for _, candidate := range candidates {
		items = append(items, dto.CandidateResponse{
			Profile:    mapProfile(candidate.Profile),
			DistanceKM: candidate.DistanceKM,
		})
	}

	httperrors.Write(w, http.StatusOK, dto.DiscoveryResponse{Items: items})
}

func (h *DiscoveryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "DISCOVERY_SERVICE_UNAVAILABLE", "discovery service is unavailable")
		return
	}

	stats, err := h.service.Stats(r.Context(), identity.UserID)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to load swipe stats")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.SwipeStatsResponse{
		TotalSwipes:   stats.TotalSwipes,
		Likes:         stats.Likes,
		Skips:         stats.Skips,
		ReceivedLikes: stats.ReceivedLikes,
	})
}

func filtersFromQuery(r *http.Request) (discoverysvc.Filters, error) {
	var filters discoverysvc.Filters
	var err error

	if filters.MinAge, err = queryIntPtr(r, "min_age"); err != nil {
		return discoverysvc.Filters{}, err
	}
	if filters.MaxAge, err = queryIntPtr(r, "max_age"); err != nil {
		return discoverysvc.Filters{}, err
	}
	if filters.MaxDistanceKM, err = queryIntPtr(r, "max_distance_km"); err != nil {
		return discoverysvc.Filters{}, err
	}
	if filters.Limit, err = queryIntPtr(r, "limit"); err != nil {
		return discoverysvc.Filters{}, err
	}

	return filters, nil
}
