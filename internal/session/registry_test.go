package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cdpclient/internal/catalog"
	"cdpclient/internal/cdp"
	"cdpclient/internal/codec"
	"cdpclient/internal/transport"
)

func TestRegistry_OpenAndRoute(t *testing.T) {
	r := NewRegistry(catalog.Default(), 0)

	sess, err := r.Open("T1", &fakeTransport{})
	require.NoError(t, err)

	calls := 0
	sess.On("DOM.documentUpdated", func(*codec.Occurrence) { calls++ })

	require.NoError(t, r.Route("T1", &cdp.Message{Method: "DOM.documentUpdated"}))
	assert.Equal(t, 1, calls)
}

func TestRegistry_OpenDuplicate(t *testing.T) {
	r := NewRegistry(catalog.Default(), 0)

	_, err := r.Open("T1", &fakeTransport{})
	require.NoError(t, err)

	_, err = r.Open("T1", &fakeTransport{})
	assert.Error(t, err)
}

func TestRegistry_RouteUnknownTarget(t *testing.T) {
	r := NewRegistry(catalog.Default(), 0)

	err := r.Route("ghost", &cdp.Message{Method: "DOM.documentUpdated"})
	var violation *cdp.ProtocolViolation
	assert.ErrorAs(t, err, &violation)
}

func TestRegistry_SessionsAreIsolated(t *testing.T) {
	r := NewRegistry(catalog.Default(), 0)

	s1, err := r.Open("T1", &fakeTransport{})
	require.NoError(t, err)
	s2, err := r.Open("T2", &fakeTransport{})
	require.NoError(t, err)

	var mu sync.Mutex
	var fromS1, fromS2 int
	s1.On("DOM.documentUpdated", func(*codec.Occurrence) {
		mu.Lock()
		fromS1++
		mu.Unlock()
	})
	s2.On("DOM.documentUpdated", func(*codec.Occurrence) {
		mu.Lock()
		fromS2++
		mu.Unlock()
	})

	// Same event name, same frame: only T1's listeners fire.
	require.NoError(t, r.Route("T1", &cdp.Message{Method: "DOM.documentUpdated"}))

	mu.Lock()
	assert.Equal(t, 1, fromS1)
	assert.Equal(t, 0, fromS2)
	mu.Unlock()
}

func TestRegistry_ResponseIDsAreScopedPerSession(t *testing.T) {
	r := NewRegistry(catalog.Default(), 0)

	tr1 := &fakeTransport{}
	tr2 := &fakeTransport{}
	s1, err := r.Open("T1", tr1)
	require.NoError(t, err)
	_, err = r.Open("T2", tr2)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := s1.Send(context.Background(), "Page", "navigate", map[string]interface{}{"url": "u"})
		done <- err
	}()

	require.Eventually(t, func() bool { return tr1.sentCount() == 1 }, time.Second, time.Millisecond)
	id := tr1.lastSent().ID

	// A colliding id in T2's namespace must not resolve T1's request.
	r.Route("T2", &cdp.Message{ID: id, Result: []byte(`{}`)})
	assert.Equal(t, 1, s1.PendingCount())

	r.Route("T1", &cdp.Message{ID: id, Result: []byte(`{"frameId":"F1"}`)})
	require.NoError(t, <-done)
}

func TestRegistry_CloseRejectsAllPending(t *testing.T) {
	r := NewRegistry(catalog.Default(), 0)

	tr := &fakeTransport{}
	sess, err := r.Open("T1", tr)
	require.NoError(t, err)

	const n = 4
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			_, err := sess.Send(context.Background(), "Page", "navigate", map[string]interface{}{"url": "u"})
			errs <- err
		}()
	}

	require.Eventually(t, func() bool { return sess.PendingCount() == n }, time.Second, time.Millisecond)

	require.NoError(t, r.Close("T1"))

	for i := 0; i < n; i++ {
		assert.ErrorIs(t, <-errs, cdp.ErrConnectionClosed)
	}
	assert.True(t, tr.isClosed())

	// Closed targets route no further frames.
	err = r.Route("T1", &cdp.Message{Method: "DOM.documentUpdated"})
	var violation *cdp.ProtocolViolation
	assert.ErrorAs(t, err, &violation)
}

func TestRegistry_TransportDeathClosesSession(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		// Accept one command, then drop the connection without answering.
		ws.ReadMessage()
		ws.Close()
	}))
	defer server.Close()

	r := NewRegistry(catalog.Default(), 0)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, err := transport.Dial(wsURL, transport.DefaultConfig(), func(msg *cdp.Message) {
		r.Route("T1", msg)
	})
	require.NoError(t, err)
	conn.OnClose(func() { r.Close("T1") })

	sess, err := r.Open("T1", conn)
	require.NoError(t, err)

	// The pending request must reject promptly, not hang until ctx expiry.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = sess.Send(ctx, "Page", "navigate", map[string]interface{}{"url": "u"})
	assert.ErrorIs(t, err, cdp.ErrConnectionClosed)
	assert.NotErrorIs(t, err, context.DeadlineExceeded)

	// The dead session no longer shows up as open.
	_, open := r.Get("T1")
	assert.False(t, open)
}

func TestRegistry_CloseUnknownTarget(t *testing.T) {
	r := NewRegistry(catalog.Default(), 0)
	assert.Error(t, r.Close("ghost"))
}

func TestRegistry_List(t *testing.T) {
	r := NewRegistry(catalog.Default(), 0)

	_, err := r.Open("T1", &fakeTransport{})
	require.NoError(t, err)
	sess, err := r.Open("T2", &fakeTransport{})
	require.NoError(t, err)
	sess.On("DOM.documentUpdated", func(*codec.Occurrence) {})

	dtos := r.List()
	require.Len(t, dtos, 2)

	byTarget := make(map[string]*SessionDTO)
	for _, dto := range dtos {
		byTarget[dto.TargetID] = dto
	}
	require.Contains(t, byTarget, "T2")
	assert.Equal(t, 1, byTarget["T2"].Listeners)
}

func TestRegistry_CloseAll(t *testing.T) {
	r := NewRegistry(catalog.Default(), 0)

	_, err := r.Open("T1", &fakeTransport{})
	require.NoError(t, err)
	_, err = r.Open("T2", &fakeTransport{})
	require.NoError(t, err)

	r.CloseAll()
	assert.Empty(t, r.List())
}
