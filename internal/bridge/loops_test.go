package bridge

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// hardwareEnd simulates the microcontroller side of the serial link.
type hardwareEnd struct {
	conn net.Conn
	cmds chan string
}

func newFakeSerial(t *testing.T) (*Link, *hardwareEnd) {
	t.Helper()
	local, remote := net.Pipe()
	hw := &hardwareEnd{conn: remote, cmds: make(chan string, 64)}
	go func() {
		scan := bufio.NewScanner(remote)
		for scan.Scan() {
			hw.cmds <- scan.Text()
		}
		close(hw.cmds)
	}()
	t.Cleanup(func() { remote.Close() })
	return NewLink(local), hw
}

func (h *hardwareEnd) emit(t *testing.T, line string) {
	t.Helper()
	h.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	_, err := h.conn.Write([]byte(line + "\n"))
	require.NoError(t, err)
}

func (h *hardwareEnd) nextCmd(t *testing.T) string {
	t.Helper()
	select {
	case cmd := <-h.cmds:
		return cmd
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for serial command")
		return ""
	}
}

func TestCashReaderForwardsInsertedCash(t *testing.T) {
	updates := make(chan map[string]any, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cash/active":
			json.NewEncoder(w).Encode(map[string]any{
				"sessions": []map[string]any{
					{"orderKey": "ORD-7", "totalRequired": 250.0, "amountInserted": 0.0, "remaining": 250.0},
				},
			})
		case "/cash/update":
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			updates <- body
			json.NewEncoder(w).Encode(UpdateResult{AmountInserted: 250, TotalRequired: 250, IsComplete: true})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	link, hw := newFakeSerial(t)
	reader := NewCashReader(link, newTestClient(t, srv.URL), 10*time.Millisecond, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- reader.Run(ctx) }()

	hw.emit(t, "READY")
	hw.emit(t, "BILL:250")

	select {
	case body := <-updates:
		require.Equal(t, "ORD-7", body["orderKey"])
		require.Equal(t, 250.0, body["amountAdded"])
	case <-time.After(2 * time.Second):
		t.Fatal("cash update never reached the server")
	}

	cancel()
	require.NoError(t, <-done)
}

func TestCashReaderIgnoresCashWithoutSession(t *testing.T) {
	var updates atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cash/active":
			json.NewEncoder(w).Encode(map[string]any{"sessions": []any{}})
		case "/cash/update":
			updates.Add(1)
			w.Write([]byte("{}"))
		}
	}))
	defer srv.Close()

	link, hw := newFakeSerial(t)
	reader := NewCashReader(link, newTestClient(t, srv.URL), 10*time.Millisecond, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- reader.Run(ctx) }()

	hw.emit(t, "COIN:5")
	time.Sleep(50 * time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	require.Equal(t, int32(0), updates.Load())
}

func TestCashReaderStopsWhenSerialDies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"sessions": []any{}})
	}))
	defer srv.Close()

	link, hw := newFakeSerial(t)
	reader := NewCashReader(link, newTestClient(t, srv.URL), 10*time.Millisecond, zaptest.NewLogger(t))

	done := make(chan error, 1)
	go func() { done <- reader.Run(context.Background()) }()

	hw.conn.Close()

	select {
	case err := <-done:
		require.Error(t, err)
		require.Contains(t, err.Error(), "serial read")
	case <-time.After(2 * time.Second):
		t.Fatal("reader did not stop on serial failure")
	}
}

func TestPrinterLoopPrintsAndReports(t *testing.T) {
	var served atomic.Bool
	completed := make(chan string, 1)
	longLine := strings.Repeat("x", 45)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/print/next":
			if served.Swap(true) {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"jobId":    "job-1",
				"orderKey": "ORD-7",
				"payload":  []string{"RECEIPT", "", longLine},
				"queuedAt": time.Now().UTC(),
			})
		case strings.HasPrefix(r.URL.Path, "/print/complete/"):
			completed <- strings.TrimPrefix(r.URL.Path, "/print/complete/")
			w.Write([]byte("{}"))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	link, hw := newFakeSerial(t)
	loop := NewPrinterLoop(link, newTestClient(t, srv.URL), 10*time.Millisecond, zaptest.NewLogger(t))
	loop.sleep = func(time.Duration) {}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	require.Equal(t, CmdPrintStart, hw.nextCmd(t))
	require.Equal(t, "PRINT:LINE:RECEIPT", hw.nextCmd(t))
	require.Equal(t, "PRINT:LINE:", hw.nextCmd(t))
	require.Equal(t, PrintLineCmd(longLine), hw.nextCmd(t))
	require.Equal(t, CmdPrintEnd, hw.nextCmd(t))

	select {
	case jobID := <-completed:
		require.Equal(t, "job-1", jobID)
	case <-time.After(2 * time.Second):
		t.Fatal("completion never reported")
	}

	cancel()
	require.NoError(t, <-done)
}

func TestPrinterLoopReportsSerialFailure(t *testing.T) {
	failed := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/print/next":
			json.NewEncoder(w).Encode(map[string]any{
				"jobId":    "job-9",
				"orderKey": "ORD-1",
				"payload":  []string{"hello"},
				"queuedAt": time.Now().UTC(),
			})
		case strings.HasPrefix(r.URL.Path, "/print/failed/"):
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			failed <- body["error"].(string)
			w.Write([]byte("{}"))
		}
	}))
	defer srv.Close()

	link, hw := newFakeSerial(t)
	hw.conn.Close() // every serial write now fails

	loop := NewPrinterLoop(link, newTestClient(t, srv.URL), 10*time.Millisecond, zaptest.NewLogger(t))
	loop.sleep = func(time.Duration) {}

	done := make(chan error, 1)
	go func() { done <- loop.Run(context.Background()) }()

	select {
	case msg := <-failed:
		require.NotEmpty(t, msg)
	case <-time.After(2 * time.Second):
		t.Fatal("failure never reported")
	}

	err := <-done
	require.Error(t, err)
	require.Contains(t, err.Error(), "job-9")
}
