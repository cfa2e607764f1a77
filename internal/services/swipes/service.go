package swipes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/kindledapp/kindled/internal/domain/enums"
	"github.com/kindledapp/kindled/internal/domain/model"
	"github.com/kindledapp/kindled/internal/metrics"
	pgrepo "github.com/kindledapp/kindled/internal/repo/postgres"
)

const (
	MessageMatched = "It's a match!"
	MessageLiked   = "Liked! Waiting for them to like you back."
	MessageSkipped = "Skipped"
)

var (
	ErrValidation     = errors.New("validation error")
	ErrSelfSwipe      = errors.New("cannot swipe on yourself")
	ErrTargetNotFound = errors.New("target user not found")
	ErrAlreadySwiped  = errors.New("already swiped on this user")
)

// TooFastError carries the retry hint when the swipe rate limit trips.
type TooFastError struct {
	RetryAfterSec int64
}

func (e TooFastError) Error() string {
	return fmt.Sprintf("too many swipes, retry after %d seconds", e.RetryAfterSec)
}

type SwipeStore interface {
	Create(ctx context.Context, tx pgx.Tx, swiperID, targetID int64, direction enums.SwipeDirection, now time.Time) (model.Swipe, error)
	HasRightSwipe(ctx context.Context, tx pgx.Tx, swiperID, targetID int64) (bool, error)
}

type MatchStore interface {
	CreateActive(ctx context.Context, tx pgx.Tx, userID, targetID int64, now time.Time) (model.Match, bool, error)
}

type UserStore interface {
	ExistsActive(ctx context.Context, userID int64) (bool, error)
}

type ProfileStore interface {
	Get(ctx context.Context, userID int64) (model.Profile, error)
}

type RateLimiter interface {
	AllowSwipe(ctx context.Context, userID int64) (int64, bool, error)
}

// MatchNotifier pushes a newly formed match to a user's live connections.
// The realtime hub implements it; delivery is best effort.
type MatchNotifier interface {
	NotifyMatch(userID int64, match model.MatchWithPartner)
}

type Result struct {
	Swipe   model.Swipe
	Match   *model.MatchWithPartner
	Message string
}

type Dependencies struct {
	Pool         *pgxpool.Pool
	SwipeStore   SwipeStore
	MatchStore   MatchStore
	UserStore    UserStore
	ProfileStore ProfileStore
	RateLimiter  RateLimiter
	Notifier     MatchNotifier
	Metrics      *metrics.Metrics
	Logger       *zap.Logger
}

type Service struct {
	pool         *pgxpool.Pool
	swipeStore   SwipeStore
	matchStore   MatchStore
	userStore    UserStore
	profileStore ProfileStore
	rateLimiter  RateLimiter
	notifier     MatchNotifier
	metrics      *metrics.Metrics
	logger       *zap.Logger
	now          func() time.Time
	runTx        func(ctx context.Context, pool *pgxpool.Pool, fn func(context.Context, pgx.Tx) error) error
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		pool:         deps.Pool,
		swipeStore:   deps.SwipeStore,
		matchStore:   deps.MatchStore,
		userStore:    deps.UserStore,
		profileStore: deps.ProfileStore,
		rateLimiter:  deps.RateLimiter,
		notifier:     deps.Notifier,
		metrics:      deps.Metrics,
		logger:       logger,
		now:          time.Now,
		runTx:        pgrepo.WithTx,
	}
}

// RecordSwipe writes the swipe and, on a mutual right swipe, forms the
// match in the same transaction. Concurrent reciprocal swipes race on the
// active-pair unique index, so exactly one of them creates the match.
func (s *Service) RecordSwipe(ctx context.Context, swiperID, targetID int64, direction enums.SwipeDirection) (Result, error) {
	if swiperID <= 0 || targetID <= 0 {
		return Result{}, fmt.Errorf("invalid user id: %w", ErrValidation)
	}
	if swiperID == targetID {
		return Result{}, ErrSelfSwipe
	}
	if !direction.Valid() {
		return Result{}, fmt.Errorf("invalid swipe direction: %w", ErrValidation)
	}
	if s.swipeStore == nil || s.matchStore == nil || s.userStore == nil || s.profileStore == nil {
		return Result{}, fmt.Errorf("swipe dependencies are not configured")
	}

	exists, err := s.userStore.ExistsActive(ctx, targetID)
	if err != nil {
		return Result{}, fmt.Errorf("check target user: %w", err)
	}
	if !exists {
		return Result{}, ErrTargetNotFound
	}

	if s.rateLimiter != nil {
		retryAfter, allowed, err := s.rateLimiter.AllowSwipe(ctx, swiperID)
		if err != nil {
			return Result{}, fmt.Errorf("apply swipe rate limiter: %w", err)
		}
		if !allowed {
			return Result{}, TooFastError{RetryAfterSec: retryAfter}
		}
	}

	now := s.now().UTC()

	var (
		swipe        model.Swipe
		match        model.Match
		matchCreated bool
		matchFormed  bool
	)
	if err := s.runTx(ctx, s.pool, func(txCtx context.Context, tx pgx.Tx) error {
		created, err := s.swipeStore.Create(txCtx, tx, swiperID, targetID, direction, now)
		if err != nil {
			if errors.Is(err, pgrepo.ErrSwipeExists) {
				return ErrAlreadySwiped
			}
			return err
		}
		swipe = created

		if direction != enums.SwipeRight {
			return nil
		}

		reciprocal, err := s.swipeStore.HasRightSwipe(txCtx, tx, targetID, swiperID)
		if err != nil {
			return err
		}
		if !reciprocal {
			return nil
		}

		match, matchCreated, err = s.matchStore.CreateActive(txCtx, tx, swiperID, targetID, now)
		if err != nil {
			return err
		}
		matchFormed = true
		return nil
	}); err != nil {
		return Result{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordSwipe(string(direction))
		if matchCreated {
			s.metrics.RecordMatchCreated()
		}
	}

	result := Result{Swipe: swipe, Message: messageFor(direction, matchFormed)}

	if matchFormed {
		withPartner, err := s.matchForUser(ctx, match, swiperID)
		if err != nil {
			// The match exists; a failed partner load must not fail the swipe.
			s.logger.Warn("load match partner",
				zap.Int64("match_id", match.ID),
				zap.Error(err))
		} else {
			result.Match = &withPartner
		}
		s.notifyBothSides(ctx, match, swiperID, targetID)
	}

	return result, nil
}

// matchForUser resolves the partner profile as seen by userID.
func (s *Service) matchForUser(ctx context.Context, match model.Match, userID int64) (model.MatchWithPartner, error) {
	partner, err := s.profileStore.Get(ctx, match.PartnerID(userID))
	if err != nil {
		return model.MatchWithPartner{}, err
	}
	return model.MatchWithPartner{Match: match, Partner: partner}, nil
}

func (s *Service) notifyBothSides(ctx context.Context, match model.Match, swiperID, targetID int64) {
	if s.notifier == nil {
		return
	}

	for _, userID := range []int64{swiperID, targetID} {
		withPartner, err := s.matchForUser(ctx, match, userID)
		if err != nil {
			s.logger.Warn("notify match",
				zap.Int64("user_id", userID),
				zap.Int64("match_id", match.ID),
				zap.Error(err))
			continue
		}
		s.notifier.NotifyMatch(userID, withPartner)
	}
}

func messageFor(direction enums.SwipeDirection, matched bool) string {
	if direction == enums.SwipeLeft {
		return MessageSkipped
	}
	if matched {
		return MessageMatched
	}
	return MessageLiked
}
