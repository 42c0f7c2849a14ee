package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"taskhub/internal/events"
)

func newTestHub(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub(zap.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dialHub(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendJoinFrame(t *testing.T, conn *websocket.Conn, userID string) {
	t.Helper()
	data, err := json.Marshal(userID)
	if err != nil {
		t.Fatalf("marshal join: %v", err)
	}
	frame, err := json.Marshal(Frame{Event: "join", Data: data})
	if err != nil {
		t.Fatalf("marshal frame: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		t.Fatalf("write join: %v", err)
	}
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		t.Fatalf("unmarshal frame %q: %v", raw, err)
	}
	return frame
}

func assertNoFrame(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(150 * time.Millisecond))
	if _, raw, err := conn.ReadMessage(); err == nil {
		t.Fatalf("unexpected frame: %s", raw)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestHubRoomTargetingAndBroadcast(t *testing.T) {
	hub, url := newTestHub(t)

	connA := dialHub(t, url)
	connB := dialHub(t, url)
	connC := dialHub(t, url) // connected but never joined

	sendJoinFrame(t, connA, "user-a")
	sendJoinFrame(t, connB, "user-b")
	waitFor(t, "rooms to fill", func() bool {
		return hub.RoomSize("user-a") == 1 && hub.RoomSize("user-b") == 1
	})
	waitFor(t, "all connections", func() bool { return hub.ConnectionCount() == 3 })

	if err := hub.PublishToUser("user-b", events.NotificationNew, map[string]string{"message": "for b"}); err != nil {
		t.Fatalf("PublishToUser: %v", err)
	}
	if err := hub.Publish(events.TaskCreated, map[string]string{"id": "t1"}); err != nil {
		t.Fatalf("Broadcast: %v", err)
	}

	// B sees the room event first, then the broadcast; frames on one
	// connection keep publish order.
	frame := readFrame(t, connB)
	if frame.Event != events.NotificationNew {
		t.Fatalf("b first frame = %q, want notification:new", frame.Event)
	}
	frame = readFrame(t, connB)
	if frame.Event != events.TaskCreated {
		t.Fatalf("b second frame = %q, want task:created", frame.Event)
	}

	// A and the unjoined C see only the broadcast.
	for name, conn := range map[string]*websocket.Conn{"a": connA, "c": connC} {
		frame := readFrame(t, conn)
		if frame.Event != events.TaskCreated {
			t.Fatalf("%s frame = %q, want task:created", name, frame.Event)
		}
		var payload map[string]string
		if err := json.Unmarshal(frame.Data, &payload); err != nil || payload["id"] != "t1" {
			t.Fatalf("%s payload = %s", name, frame.Data)
		}
		assertNoFrame(t, conn)
	}
}

func TestHubRejoinMovesRoom(t *testing.T) {
	hub, url := newTestHub(t)
	conn := dialHub(t, url)

	sendJoinFrame(t, conn, "u1")
	waitFor(t, "first room", func() bool { return hub.RoomSize("u1") == 1 })

	sendJoinFrame(t, conn, "u2")
	waitFor(t, "room move", func() bool {
		return hub.RoomSize("u2") == 1 && hub.RoomSize("u1") == 0
	})

	if err := hub.PublishToUser("u1", events.NotificationNew, "stale"); err != nil {
		t.Fatalf("PublishToUser: %v", err)
	}
	if err := hub.PublishToUser("u2", events.NotificationNew, "fresh"); err != nil {
		t.Fatalf("PublishToUser: %v", err)
	}

	frame := readFrame(t, conn)
	var payload string
	if err := json.Unmarshal(frame.Data, &payload); err != nil || payload != "fresh" {
		t.Fatalf("payload = %s, want the event for the current room only", frame.Data)
	}
	assertNoFrame(t, conn)
}

func TestHubDisconnectClearsMembership(t *testing.T) {
	hub, url := newTestHub(t)
	conn := dialHub(t, url)

	sendJoinFrame(t, conn, "u1")
	waitFor(t, "join", func() bool { return hub.RoomSize("u1") == 1 })

	conn.Close()
	waitFor(t, "cleanup", func() bool {
		return hub.ConnectionCount() == 0 && hub.RoomSize("u1") == 0
	})

	// Publishing into an empty room is not an error; the event is lost.
	if err := hub.PublishToUser("u1", events.NotificationNew, "gone"); err != nil {
		t.Fatalf("PublishToUser to empty room: %v", err)
	}
}

func TestHubIgnoresMalformedFrames(t *testing.T) {
	hub, url := newTestHub(t)
	conn := dialHub(t, url)
	waitFor(t, "connect", func() bool { return hub.ConnectionCount() == 1 })

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	// Join with a non-string payload is dropped, not applied.
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"join","data":{"id":"u1"}}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	sendJoinFrame(t, conn, "u1")
	waitFor(t, "join", func() bool { return hub.RoomSize("u1") == 1 })

	if hub.ConnectionCount() != 1 {
		t.Errorf("malformed frames must not drop the connection")
	}
}
