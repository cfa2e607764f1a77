package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/kindledapp/kindled/internal/domain/model"
)

func newTestClient(userID int64, buffer int) *Client {
	return &Client{
		ID:     "conn-" + time.Now().Format("150405.000000000"),
		UserID: userID,
		send:   make(chan []byte, buffer),
	}
}

func drain(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case frame := <-c.send:
		return frame
	default:
		t.Fatalf("no frame queued for user %d", c.UserID)
		return nil
	}
}

func TestHubEmitToUserFansOutToAllConnections(t *testing.T) {
	hub := NewHub(nil, nil)

	phone := newTestClient(1, 4)
	laptop := newTestClient(1, 4)
	other := newTestClient(2, 4)
	hub.Register(phone)
	hub.Register(laptop)
	hub.Register(other)

	hub.EmitToUser(1, []byte(`{"type":"ping"}`))

	if got := drain(t, phone); string(got) != `{"type":"ping"}` {
		t.Fatalf("phone got %s", got)
	}
	drain(t, laptop)
	if len(other.send) != 0 {
		t.Fatalf("event leaked to another user")
	}
}

func TestHubRoomMembershipAndTypingExclusion(t *testing.T) {
	hub := NewHub(nil, nil)

	a := newTestClient(1, 4)
	b := newTestClient(2, 4)
	hub.Register(a)
	hub.Register(b)
	hub.JoinRoom(10, a)
	hub.JoinRoom(10, b)

	hub.EmitToRoomExcept(10, a, []byte(`x`))
	if len(a.send) != 0 {
		t.Fatalf("sender received its own room event")
	}
	drain(t, b)

	// Leaving is idempotent.
	hub.LeaveRoom(10, b)
	hub.LeaveRoom(10, b)
	hub.EmitToRoom(10, []byte(`y`))
	if len(b.send) != 0 {
		t.Fatalf("left client still receives room events")
	}
	drain(t, a)
}

func TestHubUnregisterRemovesOnlyThatConnection(t *testing.T) {
	hub := NewHub(nil, nil)

	phone := newTestClient(1, 4)
	laptop := newTestClient(1, 4)
	hub.Register(phone)
	hub.Register(laptop)
	hub.JoinRoom(10, phone)
	hub.JoinRoom(10, laptop)

	hub.Unregister(phone)

	if hub.ConnectedUsers() != 1 {
		t.Fatalf("connected users = %d, want 1 (laptop still open)", hub.ConnectedUsers())
	}
	if hub.InRoom(10, phone) {
		t.Fatalf("unregistered client still in room")
	}

	hub.EmitToUser(1, []byte(`z`))
	if len(phone.send) != 0 {
		t.Fatalf("unregistered client received event")
	}
	drain(t, laptop)

	hub.Unregister(laptop)
	if hub.ConnectedUsers() != 0 {
		t.Fatalf("connected users = %d, want 0", hub.ConnectedUsers())
	}
}

func TestHubDropsEventsForFullBuffer(t *testing.T) {
	hub := NewHub(nil, nil)

	slow := newTestClient(1, 1)
	hub.Register(slow)

	hub.EmitToUser(1, []byte(`first`))
	hub.EmitToUser(1, []byte(`second`)) // buffer full, dropped

	if got := drain(t, slow); string(got) != "first" {
		t.Fatalf("frame = %s, want first", got)
	}
	if len(slow.send) != 0 {
		t.Fatalf("overflow frame was queued")
	}
}

func TestHubNotifyMatch(t *testing.T) {
	hub := NewHub(nil, nil)

	client := newTestClient(1, 4)
	hub.Register(client)

	hub.NotifyMatch(1, model.MatchWithPartner{
		Match:   model.Match{ID: 10, UserAID: 1, UserBID: 2, IsActive: true},
		Partner: model.Profile{UserID: 2, Name: "Alex", Age: 27},
	})

	frame := drain(t, client)
	var envelope Envelope
	if err := json.Unmarshal(frame, &envelope); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if envelope.Type != EventNewMatch {
		t.Fatalf("type = %q, want %q", envelope.Type, EventNewMatch)
	}

	var payload matchPayload
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.ID != 10 || payload.Partner.UserID != 2 || payload.Partner.Name != "Alex" {
		t.Fatalf("payload = %+v", payload)
	}
}
