package realtime

import (
	"encoding/json"
	"testing"

	"github.com/kindledapp/kindled/internal/config"
)

func typingFrame(t *testing.T, matchID int64, isTyping bool) []byte {
	t.Helper()
	frame, err := json.Marshal(map[string]any{
		"type": EventTyping,
		"data": map[string]any{"matchId": matchID, "isTyping": isTyping},
	})
	if err != nil {
		t.Fatalf("marshal typing frame: %v", err)
	}
	return frame
}

func TestTypingRelayedOnlyInsideJoinedRoom(t *testing.T) {
	hub := NewHub(nil, nil)
	h := NewHandler(hub, nil, nil, nil, config.RealtimeConfig{}, nil)

	sender := newTestClient(1, 4)
	partner := newTestClient(2, 4)
	hub.Register(sender)
	hub.Register(partner)
	hub.JoinRoom(10, sender)
	hub.JoinRoom(10, partner)

	h.dispatch(sender, typingFrame(t, 10, true))

	got := drain(t, partner)
	var envelope Envelope
	if err := json.Unmarshal(got, &envelope); err != nil {
		t.Fatalf("decode relayed frame: %v", err)
	}
	if envelope.Type != EventUserTyping {
		t.Fatalf("unexpected event type: got %q want %q", envelope.Type, EventUserTyping)
	}
	if len(sender.send) != 0 {
		t.Fatal("typing echoed back to the sender")
	}
}

func TestTypingFromOutsideRoomNotRelayed(t *testing.T) {
	hub := NewHub(nil, nil)
	h := NewHandler(hub, nil, nil, nil, config.RealtimeConfig{}, nil)

	outsider := newTestClient(3, 4)
	member := newTestClient(2, 4)
	hub.Register(outsider)
	hub.Register(member)
	hub.JoinRoom(10, member)

	h.dispatch(outsider, typingFrame(t, 10, true))

	if len(member.send) != 0 {
		t.Fatal("typing from outside the room reached a member")
	}

	got := drain(t, outsider)
	var envelope Envelope
	if err := json.Unmarshal(got, &envelope); err != nil {
		t.Fatalf("decode error frame: %v", err)
	}
	if envelope.Type != EventError {
		t.Fatalf("unexpected event type: got %q want %q", envelope.Type, EventError)
	}
}
