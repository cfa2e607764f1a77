package realtime

import (
	"encoding/json"
	"time"

	"github.com/kindledapp/kindled/internal/domain/model"
)

// Inbound event types.
const (
	EventJoinChat    = "joinChat"
	EventLeaveChat   = "leaveChat"
	EventSendMessage = "sendMessage"
	EventMarkAsRead  = "markAsRead"
	EventTyping      = "typing"
)

// Outbound event types.
const (
	EventNewMessage          = "newMessage"
	EventMessageNotification = "messageNotification"
	EventUserTyping          = "userTyping"
	EventNewMatch            = "newMatch"
	EventError               = "error"
)

const notificationPreviewRunes = 50

// Envelope is the wire frame: a type tag plus a type-specific payload.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type chatRef struct {
	MatchID int64 `json:"matchId"`
}

type sendMessagePayload struct {
	MatchID int64  `json:"matchId"`
	Content string `json:"content"`
}

type typingPayload struct {
	MatchID  int64 `json:"matchId"`
	IsTyping bool  `json:"isTyping"`
}

type messagePayload struct {
	ID       int64     `json:"id"`
	MatchID  int64     `json:"matchId"`
	SenderID int64     `json:"senderId"`
	Content  string    `json:"content"`
	IsRead   bool      `json:"isRead"`
	SentAt   time.Time `json:"sentAt"`
}

type messageNotificationPayload struct {
	MatchID  int64  `json:"matchId"`
	SenderID int64  `json:"senderId"`
	Preview  string `json:"preview"`
}

type userTypingPayload struct {
	MatchID  int64 `json:"matchId"`
	UserID   int64 `json:"userId"`
	IsTyping bool  `json:"isTyping"`
}

type matchPayload struct {
	ID        int64          `json:"id"`
	MatchedAt time.Time      `json:"matchedAt"`
	Partner   partnerPayload `json:"partner"`
}

type partnerPayload struct {
	UserID int64  `json:"userId"`
	Name   string `json:"name"`
	Age    int    `json:"age"`
	Bio    string `json:"bio"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func newEnvelope(eventType string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: eventType, Data: data})
}

func messageEvent(message model.Message) ([]byte, error) {
	return newEnvelope(EventNewMessage, messagePayload{
		ID:       message.ID,
		MatchID:  message.MatchID,
		SenderID: message.SenderID,
		Content:  message.Content,
		IsRead:   message.IsRead,
		SentAt:   message.SentAt,
	})
}

func notificationEvent(message model.Message) ([]byte, error) {
	return newEnvelope(EventMessageNotification, messageNotificationPayload{
		MatchID:  message.MatchID,
		SenderID: message.SenderID,
		Preview:  preview(message.Content),
	})
}

func matchEvent(match model.MatchWithPartner) ([]byte, error) {
	return newEnvelope(EventNewMatch, matchPayload{
		ID:        match.ID,
		MatchedAt: match.MatchedAt,
		Partner: partnerPayload{
			UserID: match.Partner.UserID,
			Name:   match.Partner.Name,
			Age:    match.Partner.Age,
			Bio:    match.Partner.Bio,
		},
	})
}

func typingEvent(matchID, userID int64, isTyping bool) ([]byte, error) {
	return newEnvelope(EventUserTyping, userTypingPayload{
		MatchID:  matchID,
		UserID:   userID,
		IsTyping: isTyping,
	})
}

func errorEvent(message string) ([]byte, error) {
	return newEnvelope(EventError, errorPayload{Message: message})
}

// preview truncates to the notification length without splitting a rune.
func preview(content string) string {
	runes := []rune(content)
	if len(runes) <= notificationPreviewRunes {
		return content
	}
	return string(runes[:notificationPreviewRunes])
}
