package transport

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"cdpclient/internal/cdp"
)

var upgrader = websocket.Upgrader{}

// echoResponder upgrades the connection and answers every command with an
// empty result frame bearing the same id.
func echoResponder(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				return
			}
			msg, err := cdp.ParseMessage(data)
			if err != nil {
				t.Errorf("server received unparseable frame: %v", err)
				return
			}
			reply := []byte(`{"id":` + strconv.FormatInt(msg.ID, 10) + `,"result":{}}`)
			if err := ws.WriteMessage(websocket.TextMessage, reply); err != nil {
				return
			}
		}
	}
}

func TestConn_SendReceiveRoundTrip(t *testing.T) {
	server := httptest.NewServer(echoResponder(t))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	var mu sync.Mutex
	var frames []*cdp.Message
	conn, err := Dial(wsURL, DefaultConfig(), func(msg *cdp.Message) {
		mu.Lock()
		defer mu.Unlock()
		frames = append(frames, msg)
	})
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	if err := conn.Send(&cdp.Message{ID: 7, Method: "Page.navigate", Params: map[string]interface{}{"url": "u"}}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := len(frames)
		mu.Unlock()
		if n > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for response frame")
		case <-time.After(5 * time.Millisecond):
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if !frames[0].IsResponse() || frames[0].ID != 7 {
		t.Errorf("expected response with id 7, got %+v", frames[0])
	}
}

func TestConn_SendRejectsNonCommandFrames(t *testing.T) {
	server := httptest.NewServer(echoResponder(t))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	conn, err := Dial(wsURL, DefaultConfig(), func(*cdp.Message) {})
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	if err := conn.Send(&cdp.Message{Method: "Page.loadEventFired"}); err == nil {
		t.Error("expected error sending an id-less frame")
	}
	if err := conn.Send(&cdp.Message{ID: 3}); err == nil {
		t.Error("expected error sending a method-less frame")
	}
}

func TestConn_OnCloseFiresOnRemoteHangup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ws.Close()
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	conn, err := Dial(wsURL, DefaultConfig(), func(*cdp.Message) {})
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	notified := make(chan struct{})
	conn.OnClose(func() { close(notified) })

	select {
	case <-notified:
	case <-time.After(2 * time.Second):
		t.Fatal("close notification never fired after remote hangup")
	}
}

func TestConn_OnCloseAfterCloseRunsImmediately(t *testing.T) {
	server := httptest.NewServer(echoResponder(t))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	conn, err := Dial(wsURL, DefaultConfig(), func(*cdp.Message) {})
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	fired := false
	conn.OnClose(func() { fired = true })
	if !fired {
		t.Error("registration on a closed connection must fire at once")
	}
}

func TestConn_SendAfterClose(t *testing.T) {
	server := httptest.NewServer(echoResponder(t))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	conn, err := Dial(wsURL, DefaultConfig(), func(*cdp.Message) {})
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}

	if err := conn.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// The send buffer may still accept a queued frame racing the shutdown;
	// repeated sends must eventually observe the closed state.
	deadline := time.After(time.Second)
	for {
		if err := conn.Send(&cdp.Message{ID: 1, Method: "Page.navigate"}); err != nil {
			return
		}
		select {
		case <-deadline:
			t.Fatal("Send never failed after Close")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestDial_Unreachable(t *testing.T) {
	_, err := Dial("ws://127.0.0.1:1/devtools", Config{ConnectTimeout: 100 * time.Millisecond}, func(*cdp.Message) {})
	if err == nil {
		t.Error("expected dial error")
	}
}
