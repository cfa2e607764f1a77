package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kindledapp/kindled/internal/domain/model"
	"github.com/kindledapp/kindled/internal/metrics"
	pgrepo "github.com/kindledapp/kindled/internal/repo/postgres"
)

const (
	maxContentRunes = 2000

	defaultPageLimit = 50
	maxPageLimit     = 100
)

var (
	ErrValidation    = errors.New("validation error")
	ErrMatchNotFound = errors.New("match not found")
	ErrForbidden     = errors.New("not a party to this match")
	ErrMatchInactive = errors.New("match is no longer active")
)

type MessageStore interface {
	Create(ctx context.Context, matchID, senderID int64, content string, now time.Time) (model.Message, error)
	ListByMatch(ctx context.Context, matchID int64, limit, offset int) ([]model.Message, int, error)
	UnreadCount(ctx context.Context, matchID, viewerID int64) (int, error)
	UnreadTotal(ctx context.Context, viewerID int64) (int, error)
	MarkRead(ctx context.Context, matchID, viewerID int64) error
}

type MatchStore interface {
	GetByID(ctx context.Context, matchID int64) (model.Match, error)
}

type Dependencies struct {
	MessageStore MessageStore
	MatchStore   MatchStore
	Metrics      *metrics.Metrics
}

// Page is a chronological slice of the conversation.
type Page struct {
	Messages    []model.Message
	Total       int
	UnreadCount int
}

type Service struct {
	messageStore MessageStore
	matchStore   MatchStore
	metrics      *metrics.Metrics
	now          func() time.Time
}

func NewService(deps Dependencies) *Service {
	return &Service{
		messageStore: deps.MessageStore,
		matchStore:   deps.MatchStore,
		metrics:      deps.Metrics,
		now:          time.Now,
	}
}

// ListMessages returns a page of the conversation in ascending send order.
// The unread count reflects the state before markAsRead is applied, so the
// client can render the divider it fetched against.
func (s *Service) ListMessages(ctx context.Context, matchID, userID int64, limit, offset int, markAsRead bool) (Page, error) {
	if matchID <= 0 || userID <= 0 {
		return Page{}, fmt.Errorf("invalid id: %w", ErrValidation)
	}
	if limit < 0 || offset < 0 {
		return Page{}, fmt.Errorf("invalid pagination: %w", ErrValidation)
	}
	if s.messageStore == nil || s.matchStore == nil {
		return Page{}, fmt.Errorf("chat dependencies are not configured")
	}

	if _, err := s.requireParty(ctx, matchID, userID, false); err != nil {
		return Page{}, err
	}

	if limit == 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	messages, total, err := s.messageStore.ListByMatch(ctx, matchID, limit, offset)
	if err != nil {
		return Page{}, fmt.Errorf("list messages: %w", err)
	}

	unread, err := s.messageStore.UnreadCount(ctx, matchID, userID)
	if err != nil {
		return Page{}, fmt.Errorf("count unread messages: %w", err)
	}

	if markAsRead && unread > 0 {
		if err := s.messageStore.MarkRead(ctx, matchID, userID); err != nil {
			return Page{}, fmt.Errorf("mark messages read: %w", err)
		}
	}

	// The store returns newest first for efficient paging; the client reads
	// the page oldest first.
	reverse(messages)

	return Page{Messages: messages, Total: total, UnreadCount: unread}, nil
}

// Send appends to the ledger. Only parties of an active match may write.
func (s *Service) Send(ctx context.Context, matchID, senderID int64, content string) (model.Message, error) {
	if matchID <= 0 || senderID <= 0 {
		return model.Message{}, fmt.Errorf("invalid id: %w", ErrValidation)
	}
	if s.messageStore == nil || s.matchStore == nil {
		return model.Message{}, fmt.Errorf("chat dependencies are not configured")
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return model.Message{}, fmt.Errorf("message content is required: %w", ErrValidation)
	}
	if utf8.RuneCountInString(content) > maxContentRunes {
		return model.Message{}, fmt.Errorf("message content exceeds %d characters: %w", maxContentRunes, ErrValidation)
	}

	if _, err := s.requireParty(ctx, matchID, senderID, true); err != nil {
		return model.Message{}, err
	}

	message, err := s.messageStore.Create(ctx, matchID, senderID, content, s.now().UTC())
	if err != nil {
		return model.Message{}, fmt.Errorf("store message: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordMessageSent()
	}

	return message, nil
}

// MarkRead flips the counterpart's messages to read.
func (s *Service) MarkRead(ctx context.Context, matchID, userID int64) error {
	if matchID <= 0 || userID <= 0 {
		return fmt.Errorf("invalid id: %w", ErrValidation)
	}
	if s.messageStore == nil || s.matchStore == nil {
		return fmt.Errorf("chat dependencies are not configured")
	}

	if _, err := s.requireParty(ctx, matchID, userID, false); err != nil {
		return err
	}

	if err := s.messageStore.MarkRead(ctx, matchID, userID); err != nil {
		return fmt.Errorf("mark messages read: %w", err)
	}
	return nil
}

// UnreadTotal counts unread messages for the user across active matches.
func (s *Service) UnreadTotal(ctx context.Context, userID int64) (int, error) {
	if userID <= 0 {
		return 0, fmt.Errorf("invalid user id: %w", ErrValidation)
	}
	if s.messageStore == nil {
		return 0, fmt.Errorf("message store is nil")
	}

	total, err := s.messageStore.UnreadTotal(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("count unread total: %w", err)
	}
	return total, nil
}

// Partner returns the other side of the match for notification routing.
func (s *Service) Partner(ctx context.Context, matchID, userID int64) (int64, error) {
	match, err := s.requireParty(ctx, matchID, userID, false)
	if err != nil {
		return 0, err
	}
	return match.PartnerID(userID), nil
}

// requireParty loads the match and checks membership. Reading history of an
// inactive match is allowed; writing needs mustBeActive.
func (s *Service) requireParty(ctx context.Context, matchID, userID int64, mustBeActive bool) (model.Match, error) {
	match, err := s.matchStore.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrMatchNotFound) {
			return model.Match{}, ErrMatchNotFound
		}
		return model.Match{}, fmt.Errorf("get match: %w", err)
	}
	if !match.HasParty(userID) {
		return model.Match{}, ErrForbidden
	}
	if mustBeActive && !match.IsActive {
		return model.Match{}, ErrMatchInactive
	}
	return match, nil
}

func reverse(messages []model.Message) {
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
}
