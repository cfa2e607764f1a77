package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kindledapp/kindled/internal/domain/model"
	"github.com/kindledapp/kindled/internal/transport/http/dto"
	httperrors "github.com/kindledapp/kindled/internal/transport/http/errors"
)

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeBadRequest(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusBadRequest, httperrors.APIError{Code: code, Message: message})
}

func writeUnauthorized(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{Code: code, Message: message})
}

func writeForbidden(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusForbidden, httperrors.APIError{Code: code, Message: message})
}

func writeNotFound(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusNotFound, httperrors.APIError{Code: code, Message: message})
}

func writeConflict(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusConflict, httperrors.APIError{Code: code, Message: message})
}

func writeInternal(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{Code: code, Message: message})
}

// queryIntPtr parses an optional integer query parameter. A present but
// unparsable value reports an error so typos do not silently widen filters.
func queryIntPtr(r *http.Request, name string) (*int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func parseIntOrDefault(raw string, fallback int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

func pathID(r *http.Request, param string) (int64, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, param))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func mapProfile(profile model.Profile) dto.ProfileResponse {
	out := dto.ProfileResponse{
		UserID:           profile.UserID,
		Name:             profile.Name,
		Age:              profile.Age,
		Bio:              profile.Bio,
		Gender:           string(profile.Gender),
		Latitude:         profile.Latitude,
		Longitude:        profile.Longitude,
		MaxDistanceKM:    profile.MaxDistanceKM,
		MinAgePreference: profile.MinAgePreference,
		MaxAgePreference: profile.MaxAgePreference,
		UpdatedAt:        profile.UpdatedAt,
	}
	if profile.InterestedIn != nil {
		v := string(*profile.InterestedIn)
		out.InterestedIn = &v
	}
	return out
}

func mapMatch(match model.MatchWithPartner) dto.MatchResponse {
	return dto.MatchResponse{
		ID:        match.ID,
		MatchedAt: match.MatchedAt,
		Partner:   mapProfile(match.Partner),
	}
}

func mapMessage(message model.Message) dto.MessageResponse {
	return dto.MessageResponse{
		ID:       message.ID,
		MatchID:  message.MatchID,
		SenderID: message.SenderID,
		Content:  message.Content,
		IsRead:   message.IsRead,
		SentAt:   message.SentAt,
	}
}
