package rendezvous

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/wormhole-core/wormhole/core"
	"github.com/wormhole-core/wormhole/internal/rendezvousserver"
	"github.com/wormhole-core/wormhole/pake"
	"github.com/wormhole-core/wormhole/wordlist"
)

// These tests run IO against a real rendezvousserver.Hub over an actual
// websocket upgrade (via httptest), unlike core's own rendezvous tests which
// drive the wire-level state machine directly with synthetic IOEvents. A
// pass here means the websocket.Dial/Read/Write plumbing in rendezvous.go
// actually round-trips against the broker it is grounded on.

func newTestServer(t *testing.T) (wsURL string, teardown func()) {
	t.Helper()
	hub := rendezvousserver.New(0)
	srv := httptest.NewServer(http.HandlerFunc(hub.Handler))
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/", srv.Close
}

func newTestIO(url string) *IO {
	boss := core.NewBoss(url, core.AppID("rendezvous-test"), pake.New(), wordlist.NewGenerator(), []byte(`{}`))
	return New(boss)
}

func TestIOStartReceivesWelcome(t *testing.T) {
	url, teardown := newTestServer(t)
	defer teardown()

	io := newTestIO(url)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go io.Run(ctx)
	io.Start(ctx)

	select {
	case act := <-io.Actions():
		if _, ok := act.(core.ActGotWelcome); !ok {
			t.Fatalf("expected ActGotWelcome first, got %#v", act)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for ActGotWelcome")
	}
}

func TestIOAllocateCodeRoundTrips(t *testing.T) {
	url, teardown := newTestServer(t)
	defer teardown()

	io := newTestIO(url)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go io.Run(ctx)
	io.Start(ctx)
	if err := io.Dispatch(ctx, core.EvAllocateCode{NumWords: 2}); err != nil {
		t.Fatalf("Dispatch EvAllocateCode: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case act := <-io.Actions():
			if got, ok := act.(core.ActGotCode); ok {
				if got.Code == "" {
					t.Fatal("expected a non-empty code")
				}
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for ActGotCode")
		}
	}
}

func TestIOCloseBeforeStartCompletesImmediately(t *testing.T) {
	url, teardown := newTestServer(t)
	defer teardown()

	io := newTestIO(url)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go io.Run(ctx)
	io.Close(ctx)

	select {
	case act := <-io.Actions():
		closed, ok := act.(core.ActGotClosed)
		if !ok {
			t.Fatalf("expected ActGotClosed, got %#v", act)
		}
		if closed.Mood != core.MoodHappy {
			t.Fatalf("expected a happy close, got mood %v err %v", closed.Mood, closed.Err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for ActGotClosed")
	}
}

func TestIOTimerStartAndCancelDoNotPanic(t *testing.T) {
	url, teardown := newTestServer(t)
	defer teardown()

	io := newTestIO(url)
	handle := core.TimerHandle{}
	io.startTimer(handle, 0.01)
	time.Sleep(20 * time.Millisecond)
	io.cancelTimer(handle)
}
