package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kindledapp/kindled/internal/domain/enums"
	"github.com/kindledapp/kindled/internal/domain/model"
	pgrepo "github.com/kindledapp/kindled/internal/repo/postgres"
	authsvc "github.com/kindledapp/kindled/internal/services/auth"
	matchsvc "github.com/kindledapp/kindled/internal/services/matches"
)

type matchStoreStub struct {
	matches map[int64]model.Match
}

func (s *matchStoreStub) GetByID(_ context.Context, matchID int64) (model.Match, error) {
	match, ok := s.matches[matchID]
	if !ok {
		return model.Match{}, pgrepo.ErrMatchNotFound
	}
	return match, nil
}

func (s *matchStoreStub) ListActiveForUser(_ context.Context, userID int64, _ int) ([]model.Match, error) {
	var out []model.Match
	for _, match := range s.matches {
		if match.IsActive && match.HasParty(userID) {
			out = append(out, match)
		}
	}
	return out, nil
}

func (s *matchStoreStub) Deactivate(_ context.Context, matchID int64, now time.Time) error {
	match, ok := s.matches[matchID]
	if !ok || !match.IsActive {
		return pgrepo.ErrMatchNotFound
	}
	match.IsActive = false
	match.UnmatchedAt = &now
	s.matches[matchID] = match
	return nil
}

type profileStoreStub struct {
	profiles map[int64]model.Profile
}

func (s *profileStoreStub) Get(_ context.Context, userID int64) (model.Profile, error) {
	profile, ok := s.profiles[userID]
	if !ok {
		return model.Profile{}, pgrepo.ErrProfileNotFound
	}
	return profile, nil
}

type messageStoreStub struct {
	last   *model.Message
	unread int
}

func (s *messageStoreStub) Last(context.Context, int64) (*model.Message, error) {
	return s.last, nil
}

func (s *messageStoreStub) UnreadCount(context.Context, int64, int64) (int, error) {
	return s.unread, nil
}

func newMatchesFixture() (*MatchesHandler, *matchStoreStub) {
	matches := &matchStoreStub{matches: map[int64]model.Match{
		10: {ID: 10, UserAID: 1, UserBID: 2, IsActive: true, MatchedAt: time.Now().UTC()},
	}}
	profiles := &profileStoreStub{profiles: map[int64]model.Profile{
		1: {UserID: 1, Name: "Alice", Age: 25, Gender: enums.GenderFemale},
		2: {UserID: 2, Name: "Bob", Age: 27, Gender: enums.GenderMale},
	}}
	svc := matchsvc.NewService(matchsvc.Dependencies{
		MatchStore:   matches,
		ProfileStore: profiles,
		MessageStore: &messageStoreStub{unread: 3},
	})
	return NewMatchesHandler(svc), matches
}

func identityRequest(method, target string, userID int64) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return req.WithContext(authsvc.WithIdentity(context.Background(), authsvc.Identity{
		UserID: userID,
		SID:    "sid-test",
	}))
}

func withURLParam(ctx context.Context, key, value string) context.Context {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return context.WithValue(ctx, chi.RouteCtxKey, routeCtx)
}

func TestMatchesHandlerListReturnsSummaries(t *testing.T) {
	h, _ := newMatchesFixture()

	req := identityRequest(http.MethodGet, "/matches", 1)
	rr := httptest.NewRecorder()
	h.List(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}

	var payload struct {
		Items []struct {
			ID      int64 `json:"id"`
			Partner struct {
				UserID int64  `json:"user_id"`
				Name   string `json:"name"`
			} `json:"partner"`
			UnreadCount int `json:"unread_count"`
		} `json:"items"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Items) != 1 {
		t.Fatalf("unexpected item count: got %d want 1", len(payload.Items))
	}
	if payload.Items[0].Partner.UserID != 2 || payload.Items[0].Partner.Name != "Bob" {
		t.Fatalf("unexpected partner: %+v", payload.Items[0].Partner)
	}
	if payload.Items[0].UnreadCount != 3 {
		t.Fatalf("unexpected unread count: got %d want 3", payload.Items[0].UnreadCount)
	}
}

func TestMatchesHandlerGetForbiddenForOutsider(t *testing.T) {
	h, _ := newMatchesFixture()

	req := identityRequest(http.MethodGet, "/matches/10", 99)
	req = req.WithContext(withURLParam(req.Context(), "id", "10"))
	rr := httptest.NewRecorder()
	h.Get(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusForbidden)
	}
}

func TestMatchesHandlerUnmatchThenNotFound(t *testing.T) {
	h, store := newMatchesFixture()

	req := identityRequest(http.MethodDelete, "/matches/10", 1)
	req = req.WithContext(withURLParam(req.Context(), "id", "10"))
	rr := httptest.NewRecorder()
	h.Unmatch(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}
	if store.matches[10].IsActive {
		t.Fatal("expected the match to be deactivated")
	}

	req = identityRequest(http.MethodDelete, "/matches/10", 1)
	req = req.WithContext(withURLParam(req.Context(), "id", "10"))
	rr = httptest.NewRecorder()
	h.Unmatch(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("unexpected status on second unmatch: got %d want %d", rr.Code, http.StatusNotFound)
	}
}

func TestMatchesHandlerGetBadID(t *testing.T) {
	h, _ := newMatchesFixture()

	req := identityRequest(http.MethodGet, "/matches/abc", 1)
	req = req.WithContext(withURLParam(req.Context(), "id", "abc"))
	rr := httptest.NewRecorder()
	h.Get(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusBadRequest)
	}
}
