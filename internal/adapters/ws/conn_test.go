package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tkondo/chatwire/internal/config"
)

func testWSConfig() config.WebSocketConfig {
	return config.WebSocketConfig{
		ReadLimit:  32768,
		PingPeriod: 50 * time.Millisecond,
		PongWait:   time.Second,
		WriteWait:  time.Second,
		SendBuffer: 16,
	}
}

type fakeConn struct {
	mu      sync.Mutex
	inbound chan []byte
	written [][]byte
	closed  bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{inbound: make(chan []byte, 16)}
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	data, ok := <-f.inbound
	if !ok {
		return 0, nil, errors.New("use of closed connection")
	}
	return websocket.TextMessage, data, nil
}

func (f *fakeConn) WriteMessage(mt int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.New("use of closed connection")
	}
	if mt == websocket.TextMessage {
		f.written = append(f.written, data)
	}
	return nil
}

func (f *fakeConn) Written() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.written))
	copy(out, f.written)
	return out
}

func (f *fakeConn) SetReadLimit(int64)                {}
func (f *fakeConn) SetReadDeadline(time.Time) error   { return nil }
func (f *fakeConn) SetPongHandler(func(string) error) {}
func (f *fakeConn) SetWriteDeadline(time.Time) error  { return nil }

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestClient_ReadPumpDispatchesThenCloses(t *testing.T) {
	conn := newFakeConn()
	client := NewClient(conn, testWSConfig())

	var mu sync.Mutex
	var frames []string
	closedCount := 0

	go client.ReadPump(context.Background(),
		func(data []byte) {
			mu.Lock()
			frames = append(frames, string(data))
			mu.Unlock()
		},
		func() {
			mu.Lock()
			closedCount++
			mu.Unlock()
		},
	)

	conn.inbound <- []byte("one")
	conn.inbound <- []byte("two")
	close(conn.inbound)

	waitFor(t, "read pump shutdown", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return closedCount == 1
	})

	mu.Lock()
	defer mu.Unlock()
	if len(frames) != 2 || frames[0] != "one" || frames[1] != "two" {
		t.Errorf("expected frames in order, got %v", frames)
	}
}

func TestClient_WritePumpDrainsSendBuffer(t *testing.T) {
	conn := newFakeConn()
	client := NewClient(conn, testWSConfig())

	go client.WritePump(context.Background())
	client.Send("joined_room", "lobby")

	waitFor(t, "frame on the wire", func() bool { return len(conn.Written()) == 1 })

	var env struct {
		Event string `json:"event"`
		Data  string `json:"data"`
	}
	if err := json.Unmarshal(conn.Written()[0], &env); err != nil {
		t.Fatalf("failed to decode written frame: %v", err)
	}
	if env.Event != "joined_room" || env.Data != "lobby" {
		t.Errorf("unexpected frame: %+v", env)
	}

	client.Close()
}

func TestClient_SendDropsOnBackpressure(t *testing.T) {
	cfg := testWSConfig()
	cfg.SendBuffer = 1
	client := NewClient(newFakeConn(), cfg)

	// No write pump running: the second send must drop, not block.
	client.Send("receive_message", "a")
	client.Send("receive_message", "b")

	if got := len(client.send); got != 1 {
		t.Errorf("expected 1 buffered frame, got %d", got)
	}
}

func TestClient_SendAfterClose(t *testing.T) {
	client := NewClient(newFakeConn(), testWSConfig())
	client.Close()
	client.Close() // idempotent

	// Must not panic on the closed channel.
	client.Send("receive_message", "late")
}
