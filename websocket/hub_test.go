package websocket

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

func dial(t *testing.T, hub *Hub, userID int64, role string) *websocket.Conn {
	t.Helper()
	e := echo.New()
	e.GET("/ws", func(c echo.Context) error {
		return HandleWebSocket(c, hub, userID, role)
	})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	// registration happens before the welcome message is queued
	var hello Notification
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("read welcome: %v", err)
	}
	if hello.Type != "connected" {
		t.Fatalf("first message type = %s, want connected", hello.Type)
	}
	return conn
}

func TestPublishReachesOnlyMatchingRole(t *testing.T) {
	hub := NewHub()
	admin := dial(t, hub, 1, "ADMIN")
	patient := dial(t, hub, 2, "PATIENT")

	if got := hub.Connected("ADMIN"); got != 1 {
		t.Fatalf("Connected(ADMIN) = %d, want 1", got)
	}

	hub.Publish("ADMIN", "booking_created", "New booking received", map[string]int{"bookingId": 9})

	var n Notification
	admin.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := admin.ReadJSON(&n); err != nil {
		t.Fatalf("admin read: %v", err)
	}
	if n.Type != "booking_created" {
		t.Errorf("admin got %s, want booking_created", n.Type)
	}

	patient.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if err := patient.ReadJSON(&n); err == nil {
		t.Errorf("patient unexpectedly received %s", n.Type)
	}
}

func TestSendToUser(t *testing.T) {
	hub := NewHub()
	conn := dial(t, hub, 5, "EMPLOYEE")

	if hub.SendToUser(99, Notification{Type: "x"}) {
		t.Error("SendToUser reported delivery to a user with no connection")
	}
	if !hub.SendToUser(5, Notification{Type: "salary_slip"}) {
		t.Fatal("SendToUser found no connection for user 5")
	}

	var n Notification
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&n); err != nil {
		t.Fatalf("read: %v", err)
	}
	if n.Type != "salary_slip" {
		t.Errorf("got %s, want salary_slip", n.Type)
	}
}

func TestPublishWithoutClientsDoesNotBlock(t *testing.T) {
	hub := NewHub()
	done := make(chan struct{})
	go func() {
		hub.Publish("ADMIN", "booking_created", "", nil)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked with no clients")
	}
}
