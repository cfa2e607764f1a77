package matches

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kindledapp/kindled/internal/domain/model"
	pgrepo "github.com/kindledapp/kindled/internal/repo/postgres"
)

const defaultListLimit = 100

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("match not found")
	ErrForbidden  = errors.New("not a party to this match")
)

type MatchStore interface {
	GetByID(ctx context.Context, matchID int64) (model.Match, error)
	ListActiveForUser(ctx context.Context, userID int64, limit int) ([]model.Match, error)
	Deactivate(ctx context.Context, matchID int64, now time.Time) error
}

type ProfileStore interface {
	Get(ctx context.Context, userID int64) (model.Profile, error)
}

type MessageStore interface {
	Last(ctx context.Context, matchID int64) (*model.Message, error)
	UnreadCount(ctx context.Context, matchID, viewerID int64) (int, error)
}

type Dependencies struct {
	MatchStore   MatchStore
	ProfileStore ProfileStore
	MessageStore MessageStore
	Logger       *zap.Logger
}

type Service struct {
	matchStore   MatchStore
	profileStore ProfileStore
	messageStore MessageStore
	logger       *zap.Logger
	now          func() time.Time
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		matchStore:   deps.MatchStore,
		profileStore: deps.ProfileStore,
		messageStore: deps.MessageStore,
		logger:       logger,
		now:          time.Now,
	}
}

// List returns the viewer's active matches, newest first, each with the
// partner profile, the last message and the unread count for the inbox view.
func (s *Service) List(ctx context.Context, userID int64) ([]model.MatchSummary, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id: %w", ErrValidation)
	}
	if s.matchStore == nil || s.profileStore == nil || s.messageStore == nil {
		return nil, fmt.Errorf("match dependencies are not configured")
	}

	matches, err := s.matchStore.ListActiveForUser(ctx, userID, defaultListLimit)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}

	summaries := make([]model.MatchSummary, 0, len(matches))
	for _, match := range matches {
		partner, err := s.profileStore.Get(ctx, match.PartnerID(userID))
		if err != nil {
			// A match without a partner profile is a data defect; skip it
			// rather than failing the whole inbox.
			s.logger.Warn("load match partner",
				zap.Int64("match_id", match.ID),
				zap.Error(err))
			continue
		}

		last, err := s.messageStore.Last(ctx, match.ID)
		if err != nil {
			return nil, fmt.Errorf("load last message: %w", err)
		}
		unread, err := s.messageStore.UnreadCount(ctx, match.ID, userID)
		if err != nil {
			return nil, fmt.Errorf("count unread messages: %w", err)
		}

		summaries = append(summaries, model.MatchSummary{
			MatchWithPartner: model.MatchWithPartner{Match: match, Partner: partner},
			LastMessage:      last,
			UnreadCount:      unread,
		})
	}

	return summaries, nil
}

// Get returns one active match as seen by userID.
func (s *Service) Get(ctx context.Context, matchID, userID int64) (model.MatchWithPartner, error) {
	if matchID <= 0 || userID <= 0 {
		return model.MatchWithPartner{}, fmt.Errorf("invalid id: %w", ErrValidation)
	}
	if s.matchStore == nil || s.profileStore == nil {
		return model.MatchWithPartner{}, fmt.Errorf("match dependencies are not configured")
	}

	match, err := s.loadActiveMatchFor(ctx, matchID, userID)
	if err != nil {
		return model.MatchWithPartner{}, err
	}

	partner, err := s.profileStore.Get(ctx, match.PartnerID(userID))
	if err != nil {
		return model.MatchWithPartner{}, fmt.Errorf("load partner profile: %w", err)
	}

	return model.MatchWithPartner{Match: match, Partner: partner}, nil
}

// Unmatch deactivates the match permanently. The pair can never re-match;
// their swipes stay on record and discovery keeps excluding them.
func (s *Service) Unmatch(ctx context.Context, matchID, userID int64) error {
	if matchID <= 0 || userID <= 0 {
		return fmt.Errorf("invalid id: %w", ErrValidation)
	}
	if s.matchStore == nil {
		return fmt.Errorf("match store is nil")
	}

	if _, err := s.loadActiveMatchFor(ctx, matchID, userID); err != nil {
		return err
	}

	if err := s.matchStore.Deactivate(ctx, matchID, s.now().UTC()); err != nil {
		if errors.Is(err, pgrepo.ErrMatchNotFound) {
			// Lost a race with the other side's unmatch.
			return ErrNotFound
		}
		return fmt.Errorf("deactivate match: %w", err)
	}

	return nil
}

// EnsureParty verifies userID belongs to the active match. The realtime
// hub uses it to gate room joins.
func (s *Service) EnsureParty(ctx context.Context, matchID, userID int64) error {
	if matchID <= 0 || userID <= 0 {
		return fmt.Errorf("invalid id: %w", ErrValidation)
	}
	if s.matchStore == nil {
		return fmt.Errorf("match store is nil")
	}

	_, err := s.loadActiveMatchFor(ctx, matchID, userID)
	return err
}

// loadActiveMatchFor applies the shared access rules: unknown or inactive
// matches read as NotFound, a foreign match as Forbidden.
func (s *Service) loadActiveMatchFor(ctx context.Context, matchID, userID int64) (model.Match, error) {
	match, err := s.matchStore.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrMatchNotFound) {
			return model.Match{}, ErrNotFound
		}
		return model.Match{}, fmt.Errorf("get match: %w", err)
	}
	if !match.HasParty(userID) {
		return model.Match{}, ErrForbidden
	}
	if !match.IsActive {
		return model.Match{}, ErrNotFound
	}
	return match, nil
}
