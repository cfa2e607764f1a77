package realtime

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/kindledapp/kindled/internal/domain/model"
)

func TestPreviewTruncatesAtFiftyRunes(t *testing.T) {
	if got := preview("short"); got != "short" {
		t.Fatalf("preview = %q, want unchanged", got)
	}

	long := strings.Repeat("я", 80)
	got := preview(long)
	if want := strings.Repeat("я", 50); got != want {
		t.Fatalf("preview kept %d runes, want 50", len([]rune(got)))
	}
}

func TestMessageEventShape(t *testing.T) {
	sentAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	frame, err := messageEvent(model.Message{
		ID: 5, MatchID: 10, SenderID: 1, Content: "hey", SentAt: sentAt,
	})
	if err != nil {
		t.Fatalf("messageEvent: %v", err)
	}

	var envelope Envelope
	if err := json.Unmarshal(frame, &envelope); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if envelope.Type != EventNewMessage {
		t.Fatalf("type = %q", envelope.Type)
	}

	var payload messagePayload
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.ID != 5 || payload.MatchID != 10 || payload.Content != "hey" || !payload.SentAt.Equal(sentAt) {
		t.Fatalf("payload = %+v", payload)
	}
}

func TestNotificationEventCarriesPreviewNotFullContent(t *testing.T) {
	frame, err := notificationEvent(model.Message{
		MatchID: 10, SenderID: 2, Content: strings.Repeat("a", 200),
	})
	if err != nil {
		t.Fatalf("notificationEvent: %v", err)
	}

	var envelope Envelope
	if err := json.Unmarshal(frame, &envelope); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	var payload messageNotificationPayload
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if len(payload.Preview) != 50 {
		t.Fatalf("preview length = %d, want 50", len(payload.Preview))
	}
	if payload.MatchID != 10 || payload.SenderID != 2 {
		t.Fatalf("payload = %+v", payload)
	}
}
