package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kindledapp/kindled/internal/domain/enums"
	"github.com/kindledapp/kindled/internal/domain/model"
	pgrepo "github.com/kindledapp/kindled/internal/repo/postgres"
	discoverysvc "github.com/kindledapp/kindled/internal/services/discovery"
)

type candidateSourceStub struct {
	lastQuery pgrepo.CandidateQuery
	records   []pgrepo.CandidateRecord
}

func (s *candidateSourceStub) ListCandidates(_ context.Context, query pgrepo.CandidateQuery) ([]pgrepo.CandidateRecord, error) {
	s.lastQuery = query
	return s.records, nil
}

type discoveryProfileSourceStub struct {
	profiles map[int64]model.Profile
}

func (s *discoveryProfileSourceStub) Get(_ context.Context, userID int64) (model.Profile, error) {
	profile, ok := s.profiles[userID]
	if !ok {
		return model.Profile{}, pgrepo.ErrProfileNotFound
	}
	return profile, nil
}

type discoveryStatsSourceStub struct {
	stats model.SwipeStats
}

func (s *discoveryStatsSourceStub) Stats(context.Context, int64) (model.SwipeStats, error) {
	return s.stats, nil
}

func newDiscoveryFixture() (*DiscoveryHandler, *candidateSourceStub) {
	interested := enums.GenderFemale
	candidates := &candidateSourceStub{records: []pgrepo.CandidateRecord{
		{Profile: model.Profile{UserID: 2, Name: "Dana", Age: 24, Gender: enums.GenderFemale}},
	}}
	svc := discoverysvc.NewService(discoverysvc.Dependencies{
		Candidates: candidates,
		Profiles: &discoveryProfileSourceStub{profiles: map[int64]model.Profile{
			1: {
				UserID:           1,
				Name:             "Viewer",
				Age:              30,
				Gender:           enums.GenderMale,
				InterestedIn:     &interested,
				MinAgePreference: 21,
				MaxAgePreference: 35,
			},
		}},
		Stats: &discoveryStatsSourceStub{stats: model.SwipeStats{TotalSwipes: 7, Likes: 5, Skips: 2, ReceivedLikes: 4}},
	}, discoverysvc.Config{})
	return NewDiscoveryHandler(svc), candidates
}

func TestDiscoveryHandlerAppliesQueryFilters(t *testing.T) {
	h, candidates := newDiscoveryFixture()

	req := identityRequest(http.MethodGet, "/discovery?min_age=25&max_age=29&limit=5", 1)
	rr := httptest.NewRecorder()
	h.Discover(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}
	if candidates.lastQuery.AgeMin != 25 || candidates.lastQuery.AgeMax != 29 {
		t.Fatalf("unexpected age bounds: %+v", candidates.lastQuery)
	}
	if candidates.lastQuery.Limit != 5 {
		t.Fatalf("unexpected limit: got %d want 5", candidates.lastQuery.Limit)
	}
	if candidates.lastQuery.Gender != string(enums.GenderFemale) {
		t.Fatalf("unexpected gender restriction: got %q", candidates.lastQuery.Gender)
	}

	var payload struct {
		Items []struct {
			Profile struct {
				UserID int64 `json:"user_id"`
			} `json:"profile"`
		} `json:"items"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Items) != 1 || payload.Items[0].Profile.UserID != 2 {
		t.Fatalf("unexpected items: %+v", payload.Items)
	}
}

func TestDiscoveryHandlerRejectsMalformedFilter(t *testing.T) {
	h, _ := newDiscoveryFixture()

	req := identityRequest(http.MethodGet, "/discovery?min_age=abc", 1)
	rr := httptest.NewRecorder()
	h.Discover(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestDiscoveryHandlerRejectsOutOfRangeFilter(t *testing.T) {
	h, _ := newDiscoveryFixture()

	req := identityRequest(http.MethodGet, "/discovery?min_age=12", 1)
	rr := httptest.NewRecorder()
	h.Discover(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestDiscoveryHandlerMissingViewerProfile(t *testing.T) {
	h, _ := newDiscoveryFixture()

	req := identityRequest(http.MethodGet, "/discovery", 42)
	rr := httptest.NewRecorder()
	h.Discover(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusNotFound)
	}
}

func TestDiscoveryHandlerStats(t *testing.T) {
	h, _ := newDiscoveryFixture()

	req := identityRequest(http.MethodGet, "/discovery/stats", 1)
	rr := httptest.NewRecorder()
	h.Stats(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}

	var payload struct {
		TotalSwipes   int `json:"total_swipes"`
		Likes         int `json:"likes"`
		Skips         int `json:"skips"`
		ReceivedLikes int `json:"received_likes"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.TotalSwipes != 7 || payload.ReceivedLikes != 4 {
		t.Fatalf("unexpected stats payload: %+v", payload)
	}
}
