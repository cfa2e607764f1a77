package swipes

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kindledapp/kindled/internal/domain/enums"
	"github.com/kindledapp/kindled/internal/domain/model"
	pgrepo "github.com/kindledapp/kindled/internal/repo/postgres"
)

type swipeStoreStub struct {
	createErr      error
	hasRight       bool
	hasRightErr    error
	created        []model.Swipe
	nextID         int64
	reciprocalArgs [][2]int64
}

func (s *swipeStoreStub) Create(_ context.Context, _ pgx.Tx, swiperID, targetID int64, direction enums.SwipeDirection, now time.Time) (model.Swipe, error) {
	if s.createErr != nil {
		return model.Swipe{}, s.createErr
	}
	s.nextID++
	swipe := model.Swipe{ID: s.nextID, SwiperID: swiperID, TargetID: targetID, Direction: direction, CreatedAt: now}
	s.created = append(s.created, swipe)
	return swipe, nil
}

func (s *swipeStoreStub) HasRightSwipe(_ context.Context, _ pgx.Tx, swiperID, targetID int64) (bool, error) {
	s.reciprocalArgs = append(s.reciprocalArgs, [2]int64{swiperID, targetID})
	return s.hasRight, s.hasRightErr
}

type matchStoreStub struct {
	match   model.Match
	created bool
	err     error
	calls   int
}

func (s *matchStoreStub) CreateActive(_ context.Context, _ pgx.Tx, userID, targetID int64, now time.Time) (model.Match, bool, error) {
	s.calls++
	if s.err != nil {
		return model.Match{}, false, s.err
	}
	return s.match, s.created, nil
}

type userStoreStub struct {
	active map[int64]bool
}

func (s *userStoreStub) ExistsActive(_ context.Context, userID int64) (bool, error) {
	return s.active[userID], nil
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

type rateLimiterStub struct {
	allowed    bool
	retryAfter int64
}

func (s rateLimiterStub) AllowSwipe(context.Context, int64) (int64, bool, error) {
	if s.allowed {
		return 0, true, nil
	}
	return s.retryAfter, false, nil
}

type notifierStub struct {
	notified map[int64]model.MatchWithPartner
}

func (s *notifierStub) NotifyMatch(userID int64, match model.MatchWithPartner) {
	if s.notified == nil {
		s.notified = map[int64]model.MatchWithPartner{}
	}
	s.notified[userID] = match
}

type fixture struct {
	svc      *Service
	swipes   *swipeStoreStub
	matches  *matchStoreStub
	notifier *notifierStub
}

func newFixture() *fixture {
	swipes := &swipeStoreStub{}
	matches := &matchStoreStub{}
	notifier := &notifierStub{}

	svc := NewService(Dependencies{
		SwipeStore: swipes,
		MatchStore: matches,
		UserStore:  &userStoreStub{active: map[int64]bool{1: true, 2: true}},
		ProfileStore: &profileStoreStub{profiles: map[int64]model.Profile{
			1: {UserID: 1, Name: "Sam"},
			2: {UserID: 2, Name: "Alex"},
		}},
		Notifier: notifier,
	})
	svc.runTx = func(ctx context.Context, _ *pgxpool.Pool, fn func(context.Context, pgx.Tx) error) error {
		return fn(ctx, nil)
	}

	return &fixture{svc: svc, swipes: swipes, matches: matches, notifier: notifier}
}

func TestRecordSwipeSelf(t *testing.T) {
	f := newFixture()

	if _, err := f.svc.RecordSwipe(context.Background(), 1, 1, enums.SwipeRight); !errors.Is(err, ErrSelfSwipe) {
		t.Fatalf("err = %v, want ErrSelfSwipe", err)
	}
}

func TestRecordSwipeTargetMissing(t *testing.T) {
	f := newFixture()

	if _, err := f.svc.RecordSwipe(context.Background(), 1, 99, enums.SwipeRight); !errors.Is(err, ErrTargetNotFound) {
		t.Fatalf("err = %v, want ErrTargetNotFound", err)
	}
}

func TestRecordSwipeInvalidDirection(t *testing.T) {
	f := newFixture()

	if _, err := f.svc.RecordSwipe(context.Background(), 1, 2, enums.SwipeDirection("up")); !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestRecordSwipeDuplicate(t *testing.T) {
	f := newFixture()
	f.swipes.createErr = pgrepo.ErrSwipeExists

	if _, err := f.svc.RecordSwipe(context.Background(), 1, 2, enums.SwipeLeft); !errors.Is(err, ErrAlreadySwiped) {
		t.Fatalf("err = %v, want ErrAlreadySwiped", err)
	}
}

func TestRecordSwipeRateLimited(t *testing.T) {
	f := newFixture()
	f.svc.rateLimiter = rateLimiterStub{allowed: false, retryAfter: 30}

	_, err := f.svc.RecordSwipe(context.Background(), 1, 2, enums.SwipeRight)
	var tooFast TooFastError
	if !errors.As(err, &tooFast) {
		t.Fatalf("err = %v, want TooFastError", err)
	}
	if tooFast.RetryAfterSec != 30 {
		t.Fatalf("retry after = %d, want 30", tooFast.RetryAfterSec)
	}
	if len(f.swipes.created) != 0 {
		t.Fatalf("swipe stored despite rate limit")
	}
}

func TestRecordSwipeLeftNeverChecksReciprocal(t *testing.T) {
	f := newFixture()
	f.swipes.hasRight = true

	result, err := f.svc.RecordSwipe(context.Background(), 1, 2, enums.SwipeLeft)
	if err != nil {
		t.Fatalf("RecordSwipe: %v", err)
	}
	if result.Message != MessageSkipped {
		t.Fatalf("message = %q, want %q", result.Message, MessageSkipped)
	}
	if result.Match != nil {
		t.Fatalf("left swipe produced a match")
	}
	if len(f.swipes.reciprocalArgs) != 0 {
		t.Fatalf("reciprocal check ran for a left swipe")
	}
	if f.matches.calls != 0 {
		t.Fatalf("match store called for a left swipe")
	}
}

func TestRecordSwipeRightWithoutReciprocal(t *testing.T) {
	f := newFixture()
	f.swipes.hasRight = false

	result, err := f.svc.RecordSwipe(context.Background(), 1, 2, enums.SwipeRight)
	if err != nil {
		t.Fatalf("RecordSwipe: %v", err)
	}
	if result.Message != MessageLiked {
		t.Fatalf("message = %q, want %q", result.Message, MessageLiked)
	}
	if result.Match != nil {
		t.Fatalf("unreciprocated like produced a match")
	}

	// The reciprocal check looks for the target's right swipe on the swiper.
	if len(f.swipes.reciprocalArgs) != 1 || f.swipes.reciprocalArgs[0] != [2]int64{2, 1} {
		t.Fatalf("reciprocal args = %v, want [[2 1]]", f.swipes.reciprocalArgs)
	}
}

func TestRecordSwipeMutualFormsMatchAndNotifiesBothSides(t *testing.T) {
	f := newFixture()
	f.swipes.hasRight = true
	f.matches.match = model.Match{ID: 10, UserAID: 1, UserBID: 2, IsActive: true}
	f.matches.created = true

	result, err := f.svc.RecordSwipe(context.Background(), 1, 2, enums.SwipeRight)
	if err != nil {
		t.Fatalf("RecordSwipe: %v", err)
	}
	if result.Message != MessageMatched {
		t.Fatalf("message = %q, want %q", result.Message, MessageMatched)
	}
	if result.Match == nil || result.Match.ID != 10 {
		t.Fatalf("match missing from result: %+v", result)
	}
	if result.Match.Partner.UserID != 2 {
		t.Fatalf("swiper sees partner %d, want 2", result.Match.Partner.UserID)
	}

	if len(f.notifier.notified) != 2 {
		t.Fatalf("notified %d users, want both sides", len(f.notifier.notified))
	}
	if f.notifier.notified[1].Partner.UserID != 2 || f.notifier.notified[2].Partner.UserID != 1 {
		t.Fatalf("partner resolution wrong: %+v", f.notifier.notified)
	}
}

func TestRecordSwipeMatchLoadFailureDoesNotFailSwipe(t *testing.T) {
	f := newFixture()
	f.swipes.hasRight = true
	f.matches.match = model.Match{ID: 10, UserAID: 1, UserBID: 5, IsActive: true}
	f.matches.created = true

	// Partner profile 5 does not exist in the stub.
	result, err := f.svc.RecordSwipe(context.Background(), 1, 2, enums.SwipeRight)
	if err != nil {
		t.Fatalf("RecordSwipe: %v", err)
	}
	if result.Message != MessageMatched {
		t.Fatalf("message = %q, want %q", result.Message, MessageMatched)
	}
	if result.Match != nil {
		t.Fatalf("expected nil match payload when partner load fails")
	}
}
