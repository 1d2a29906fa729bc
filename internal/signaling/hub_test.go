package signaling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func startHub(t *testing.T) *Hub {
	t.Helper()

	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	t.Cleanup(func() {
		cancel()
		<-h.Done()
	})
	return h
}

func newTestClient(h *Hub) *Client {
	return newClient(h, 16)
}

func expectMessage(t *testing.T, c *Client, wantType string) *Message {
	t.Helper()

	select {
	case msg, ok := <-c.send:
		if !ok {
			t.Fatalf("client %s: send queue closed, wanted %q", c.ID, wantType)
		}
		if msg.Type != wantType {
			t.Fatalf("client %s: got %q frame, want %q", c.ID, msg.Type, wantType)
		}
		return msg
	case <-time.After(time.Second):
		t.Fatalf("client %s: no %q frame received", c.ID, wantType)
	}
	return nil
}

// expectNoMessage waits for the hub to drain pending requests, then
// checks that nothing was queued for c.
func expectNoMessage(t *testing.T, h *Hub, c *Client) {
	t.Helper()

	h.Rooms()
	select {
	case msg, ok := <-c.send:
		if ok {
			t.Fatalf("client %s: unexpected %q frame", c.ID, msg.Type)
		}
	default:
	}
}

func mustJoin(t *testing.T, h *Hub, c *Client, code string) {
	t.Helper()

	got, err := h.Join(c, code)
	if err != nil {
		t.Fatalf("Join(%q) failed: %v", code, err)
	}
	if got != code {
		t.Fatalf("Join returned %q, want %q", got, code)
	}
	msg := expectMessage(t, c, TypeJoined)
	if msg.RoomCode != code {
		t.Fatalf("joined ack carries %q, want %q", msg.RoomCode, code)
	}
}

func TestJoinPairsTwoClients(t *testing.T) {
	h := startHub(t)
	x, y := newTestClient(h), newTestClient(h)

	mustJoin(t, h, x, "ABCD")
	expectNoMessage(t, h, x)

	if rooms := h.Rooms(); len(rooms) != 1 || rooms[0].Participants != 1 {
		t.Fatalf("rooms after first join = %+v", rooms)
	}

	mustJoin(t, h, y, "ABCD")
	expectMessage(t, x, TypeConnected)
	expectMessage(t, y, TypeConnected)
	expectNoMessage(t, h, x)
	expectNoMessage(t, h, y)

	rooms := h.Rooms()
	if len(rooms) != 1 || rooms[0] != (RoomInfo{Code: "ABCD", Participants: 2}) {
		t.Fatalf("rooms after pairing = %+v", rooms)
	}
}

func TestThirdJoinIsRejected(t *testing.T) {
	h := startHub(t)
	x, y, z := newTestClient(h), newTestClient(h), newTestClient(h)

	mustJoin(t, h, x, "room")
	mustJoin(t, h, y, "room")
	expectMessage(t, x, TypeConnected)
	expectMessage(t, y, TypeConnected)

	_, err := h.Join(z, "room")
	if !errors.Is(err, ErrRoomFull) {
		t.Fatalf("third join error = %v, want ErrRoomFull", err)
	}

	msg := expectMessage(t, z, TypeError)
	if msg.RoomCode != "room" || msg.Error != ErrRoomFull.Error() {
		t.Errorf("error frame = %+v", msg)
	}
	expectNoMessage(t, h, z)
	expectNoMessage(t, h, x)
	expectNoMessage(t, h, y)

	if rooms := h.Rooms(); rooms[0].Participants != 2 {
		t.Fatalf("room grew past two participants: %+v", rooms)
	}

	// The rejected client is roomless: its messages go nowhere.
	h.Relay(z, json.RawMessage(`"hello?"`))
	expectNoMessage(t, h, x)
	expectNoMessage(t, h, y)
}

func TestJoinWhileInRoomIsRejected(t *testing.T) {
	h := startHub(t)
	x := newTestClient(h)

	mustJoin(t, h, x, "first")

	_, err := h.Join(x, "second")
	if !errors.Is(err, ErrAlreadyInRoom) {
		t.Fatalf("second join error = %v, want ErrAlreadyInRoom", err)
	}
	expectMessage(t, x, TypeError)

	rooms := h.Rooms()
	if len(rooms) != 1 || rooms[0].Code != "first" {
		t.Fatalf("membership changed: %+v", rooms)
	}
}

func TestRelayDeliversToOtherParticipantOnly(t *testing.T) {
	h := startHub(t)
	x, y := newTestClient(h), newTestClient(h)

	mustJoin(t, h, x, "ABCD")
	mustJoin(t, h, y, "ABCD")
	expectMessage(t, x, TypeConnected)
	expectMessage(t, y, TypeConnected)

	content := json.RawMessage(`{"text":"hi","n":[1,2,3]}`)
	h.Relay(x, content)

	msg := expectMessage(t, y, TypeMessage)
	got, ok := msg.Content.(json.RawMessage)
	if !ok || string(got) != string(content) {
		t.Errorf("relayed content = %#v, want %s", msg.Content, content)
	}
	expectNoMessage(t, h, x)

	h.Relay(y, json.RawMessage(`"back"`))
	expectMessage(t, x, TypeMessage)
	expectNoMessage(t, h, y)
}

func TestRelayWithoutRoomIsNoop(t *testing.T) {
	h := startHub(t)
	x, y := newTestClient(h), newTestClient(h)

	// Before any join.
	h.Relay(x, json.RawMessage(`"early"`))
	expectNoMessage(t, h, x)

	mustJoin(t, h, x, "solo")

	// Alone in the room.
	h.Relay(x, json.RawMessage(`"anyone?"`))
	expectNoMessage(t, h, x)

	mustJoin(t, h, y, "solo")
	expectMessage(t, x, TypeConnected)
	expectMessage(t, y, TypeConnected)

	// After leaving.
	h.Leave(x)
	expectMessage(t, y, TypeDisconnected)
	h.Relay(x, json.RawMessage(`"late"`))
	expectNoMessage(t, h, y)
}

func TestRelaySkipsUnwritableParticipants(t *testing.T) {
	h := startHub(t)
	x, y := newTestClient(h), newTestClient(h)

	mustJoin(t, h, x, "r")
	mustJoin(t, h, y, "r")
	expectMessage(t, x, TypeConnected)
	expectMessage(t, y, TypeConnected)

	y.writable.Store(false)
	h.Relay(x, json.RawMessage(`1`))
	h.Rooms()
	y.writable.Store(true)
	expectNoMessage(t, h, y)

	// A backed-up queue drops frames instead of blocking the hub.
	for i := 0; i < cap(y.send)+5; i++ {
		h.Relay(x, json.RawMessage(fmt.Sprintf("%d", i)))
	}
	if n := h.RoomCount(); n != 1 {
		t.Fatalf("hub stalled or lost the room: %d rooms", n)
	}
	if len(y.send) != cap(y.send) {
		t.Errorf("queue length = %d, want %d", len(y.send), cap(y.send))
	}
}

func TestLeaveNotifiesRemainingAndCollectsRoom(t *testing.T) {
	h := startHub(t)
	x, y := newTestClient(h), newTestClient(h)

	mustJoin(t, h, x, "ABCD")
	mustJoin(t, h, y, "ABCD")
	expectMessage(t, x, TypeConnected)
	expectMessage(t, y, TypeConnected)

	h.Leave(y)
	expectMessage(t, x, TypeDisconnected)
	expectNoMessage(t, h, x)

	if rooms := h.Rooms(); len(rooms) != 1 || rooms[0].Participants != 1 {
		t.Fatalf("room after one leave = %+v", rooms)
	}

	// Leaving twice changes nothing and sends nothing.
	h.Leave(y)
	expectNoMessage(t, h, x)

	h.Leave(x)
	if n := h.RoomCount(); n != 0 {
		t.Fatalf("room not collected, %d rooms remain", n)
	}

	if _, ok := <-x.send; ok {
		t.Error("send queue still open after leave")
	}
}

func TestRoomReopensAfterPeerLeaves(t *testing.T) {
	h := startHub(t)
	x, y, z := newTestClient(h), newTestClient(h), newTestClient(h)

	mustJoin(t, h, x, "again")
	mustJoin(t, h, y, "again")
	expectMessage(t, x, TypeConnected)
	expectMessage(t, y, TypeConnected)

	h.Leave(y)
	expectMessage(t, x, TypeDisconnected)

	mustJoin(t, h, z, "again")
	expectMessage(t, x, TypeConnected)
	expectMessage(t, z, TypeConnected)

	h.Relay(z, json.RawMessage(`"new peer"`))
	expectMessage(t, x, TypeMessage)
}

func TestJoinLeaveRoundTrip(t *testing.T) {
	h := startHub(t)
	other := newTestClient(h)
	mustJoin(t, h, other, "keep")

	before := h.Rooms()

	c := newTestClient(h)
	mustJoin(t, h, c, "")
	h.Leave(c)

	after := h.Rooms()
	if len(after) != len(before) || after[0] != before[0] {
		t.Fatalf("rooms before %+v, after %+v", before, after)
	}
}

func TestConcurrentJoinsNeverOverfill(t *testing.T) {
	h := startHub(t)

	const n = 50
	clients := make([]*Client, n)
	errs := make([]error, n)
	for i := range clients {
		clients[i] = newTestClient(h)
	}

	var wg sync.WaitGroup
	for i, c := range clients {
		wg.Add(1)
		go func(i int, c *Client) {
			defer wg.Done()
			_, errs[i] = h.Join(c, "contended")
		}(i, c)
	}
	wg.Wait()

	joined, connected := 0, 0
	for i, c := range clients {
		switch {
		case errs[i] == nil:
			joined++
		case !errors.Is(errs[i], ErrRoomFull):
			t.Errorf("unexpected join error: %v", errs[i])
		}
		for len(c.send) > 0 {
			if msg := <-c.send; msg.Type == TypeConnected {
				connected++
			}
		}
	}

	if joined != MaxParticipants {
		t.Errorf("%d joins succeeded, want %d", joined, MaxParticipants)
	}
	if connected != MaxParticipants {
		t.Errorf("%d connected notifications, want %d", connected, MaxParticipants)
	}
	if rooms := h.Rooms(); len(rooms) != 1 || rooms[0].Participants != MaxParticipants {
		t.Errorf("rooms = %+v", rooms)
	}
}

func TestConcurrentChurnLeavesNoRooms(t *testing.T) {
	h := startHub(t)

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := newTestClient(h)
			code := fmt.Sprintf("room-%d", i%10)
			h.Join(c, code)
			h.Relay(c, json.RawMessage(`"burst"`))
			h.Leave(c)
		}(i)
	}
	wg.Wait()

	if rooms := h.Rooms(); len(rooms) != 0 {
		t.Fatalf("rooms left after churn: %+v", rooms)
	}
}

func TestStoppedHub(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	c := newTestClient(h)
	mustJoin(t, h, c, "bye")

	cancel()
	<-h.Done()

	if _, err := h.Join(newTestClient(h), "bye"); !errors.Is(err, ErrHubStopped) {
		t.Errorf("join after stop = %v, want ErrHubStopped", err)
	}
	if h.Register(newTestClient(h)) {
		t.Error("register succeeded on a stopped hub")
	}

	// Must not block.
	h.Relay(c, json.RawMessage(`"x"`))
	h.Leave(c)
	if rooms := h.Rooms(); rooms != nil {
		t.Errorf("rooms on stopped hub = %+v", rooms)
	}

	if _, ok := <-c.send; ok {
		t.Error("send queue still open after shutdown")
	}
}
