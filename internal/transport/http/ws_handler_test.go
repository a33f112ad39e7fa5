package http

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func readNext(t *testing.T, conn *websocket.Conn, expect string) map[string]any {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if msg.Type != expect {
		t.Fatalf("expected type %s, got %s (%v)", expect, msg.Type, msg.Payload)
	}
	return msg.Payload
}

func TestWebSocketAskFlow(t *testing.T) {
	ts := newTestServer(t)
	id := createSession(t, ts)

	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?session=" + id
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	readNext(t, conn, "ready")

	// no document yet
	if err := conn.WriteJSON(map[string]any{"type": "ask", "payload": map[string]any{"question": "Where?"}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if p := readNext(t, conn, "error"); p["status"] != float64(http.StatusConflict) {
		t.Fatalf("expected conflict, got %v", p)
	}

	if code, _ := upload(t, ts, id, "lesson.txt", []byte(lesson)); code != http.StatusCreated {
		t.Fatalf("upload: status %d", code)
	}
	if err := conn.WriteJSON(map[string]any{"type": "ask", "payload": map[string]any{"question": "Where does photosynthesis happen?"}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if p := readNext(t, conn, "answer"); p["text"] != "In the chloroplasts." {
		t.Fatalf("unexpected answer %v", p)
	}

	if err := conn.WriteJSON(map[string]any{"type": "history"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	p := readNext(t, conn, "history")
	if turns, ok := p["history"].([]any); !ok || len(turns) != 1 {
		t.Fatalf("unexpected history %v", p)
	}

	if err := conn.WriteJSON(map[string]any{"type": "dance"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	readNext(t, conn, "error")
}

func TestWebSocketUnknownSession(t *testing.T) {
	ts := newTestServer(t)
	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?session=nope"
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	if err == nil {
		t.Fatalf("expected dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", resp)
	}
}
