package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/logan/usecasehub/internal/refresh"
)

func TestRefresh_Epoch(t *testing.T) {
	signal := refresh.NewSignal()
	signal.Trigger()
	signal.Trigger()

	rec := httptest.NewRecorder()
	NewRefreshHandler(signal, "").Epoch(rec, httptest.NewRequest("GET", "/refresh", nil))

	var body epochMessage
	json.NewDecoder(rec.Body).Decode(&body)
	if body.Epoch != 2 {
		t.Errorf("epoch = %d, want 2", body.Epoch)
	}
}

func TestRefresh_Stream(t *testing.T) {
	signal := refresh.NewSignal()
	defer signal.Close()
	signal.Trigger()

	srv := httptest.NewServer(http.HandlerFunc(NewRefreshHandler(signal, "").Stream))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var msg epochMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read initial: %v", err)
	}
	if msg.Epoch != 1 {
		t.Errorf("initial epoch = %d, want 1", msg.Epoch)
	}

	deadline := time.Now().Add(time.Second)
	for signal.SubscriberCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	signal.Trigger()

	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read update: %v", err)
	}
	if msg.Epoch != 2 {
		t.Errorf("update epoch = %d, want 2", msg.Epoch)
	}
}

func TestRefresh_RejectsForeignOrigin(t *testing.T) {
	signal := refresh.NewSignal()
	defer signal.Close()

	srv := httptest.NewServer(http.HandlerFunc(NewRefreshHandler(signal, "https://app.example.com").Stream))
	defer srv.Close()

	header := http.Header{"Origin": []string{"https://evil.example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), header)
	if err == nil {
		t.Fatal("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403, got %v", resp)
	}
}
