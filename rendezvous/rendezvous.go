// Package rendezvous is the glue layer between core.Boss and a real
// rendezvous server: it is the only place in this module that opens a
// socket or starts a wall-clock timer. It carries out the IOActions Boss
// asks for and feeds back IOEvents, translated from nhooyr.io/websocket the
// same way the teacher's wormhole/dial.go drives its signalling socket.
package rendezvous

import (
	"context"
	"sync"
	"time"

	"nhooyr.io/websocket"

	"github.com/wormhole-core/wormhole/core"
	"github.com/wormhole-core/wormhole/internal/wlog"
)

// IO drives one Boss's worth of sockets and timers. Nothing here decides
// protocol behavior; every decision comes back out of Boss as an IOAction.
type IO struct {
	boss *core.Boss
	log  *wlog.Logger

	mu     sync.Mutex
	conns  map[core.WSHandle]*websocket.Conn
	timers map[core.TimerHandle]*time.Timer

	events  chan core.IOEvent
	actions chan core.APIAction
}

// New wraps boss with a live socket/timer glue layer.
func New(boss *core.Boss) *IO {
	return &IO{
		boss:    boss,
		log:     wlog.New(wlog.LevelError),
		conns:   make(map[core.WSHandle]*websocket.Conn),
		timers:  make(map[core.TimerHandle]*time.Timer),
		events:  make(chan core.IOEvent, 32),
		actions: make(chan core.APIAction, 32),
	}
}

// SetLogger replaces the default error-only logger.
func (io *IO) SetLogger(l *wlog.Logger) { io.log = l }

// Actions is the stream of API actions Boss produces as this session runs;
// the caller reads from it to learn of welcomes, codes, keys and messages.
func (io *IO) Actions() <-chan core.APIAction { return io.actions }

// Dispatch feeds one APIEvent into the engine and carries out whatever
// IOActions it asks for. It is the single entry point Start/Send/Close and
// the wormhole façade package use to drive a session.
func (io *IO) Dispatch(ctx context.Context, ev core.APIEvent) error {
	apiActs, ioActs, err := io.boss.DispatchAPI(ev)
	if err != nil {
		return err
	}
	io.handle(ctx, ioActs)
	io.publish(apiActs)
	return nil
}

// Start kicks off the session's initial connection attempt. Call it once,
// after Run has been started in its own goroutine.
func (io *IO) Start(ctx context.Context) {
	io.Dispatch(ctx, core.EvStart{})
}

// Send submits one application payload for delivery once the key is
// verified, queuing it in the engine if it arrives earlier.
func (io *IO) Send(ctx context.Context, plaintext []byte) {
	io.Dispatch(ctx, core.EvSend{Plaintext: plaintext})
}

// Close begins an orderly shutdown; ActGotClosed arrives on Actions once
// every submachine has confirmed.
func (io *IO) Close(ctx context.Context) {
	io.Dispatch(ctx, core.EvClose{})
}

// Run processes IOEvents until ctx is cancelled. It must run in its own
// goroutine; Start/Send/Close may be called concurrently from others.
func (io *IO) Run(ctx context.Context) {
	defer close(io.actions)
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-io.events:
			apiActs, ioActs := io.boss.DispatchIO(ev)
			io.handle(ctx, ioActs)
			io.publish(apiActs)
		}
	}
}

func (io *IO) publish(acts []core.APIAction) {
	for _, a := range acts {
		io.actions <- a
	}
}

func (io *IO) handle(ctx context.Context, acts []core.IOAction) {
	for _, a := range acts {
		switch act := a.(type) {
		case core.ActWebSocketOpen:
			go io.open(ctx, act.Handle, act.URL)
		case core.ActWebSocketSendMessage:
			go io.send(ctx, act.Handle, act.Text)
		case core.ActWebSocketClose:
			io.closeSocket(act.Handle)
		case core.ActStartTimer:
			io.startTimer(act.Handle, act.Seconds)
		case core.ActCancelTimer:
			io.cancelTimer(act.Handle)
		}
	}
}

func (io *IO) open(ctx context.Context, handle core.WSHandle, url string) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		io.log.Errorf("dial %s: %v", url, err)
		io.deliver(core.EvWebSocketConnectionLost{Handle: handle, Reason: err.Error()})
		return
	}
	// 32 MiB: mailbox messages can carry arbitrary application payloads.
	conn.SetReadLimit(32 << 20)

	io.mu.Lock()
	io.conns[handle] = conn
	io.mu.Unlock()

	io.log.Infof("connected to %s", url)
	io.deliver(core.EvWebSocketConnectionMade{Handle: handle})
	io.readLoop(ctx, handle, conn)
}

func (io *IO) readLoop(ctx context.Context, handle core.WSHandle, conn *websocket.Conn) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			io.log.Infof("connection lost: %v", err)
			io.deliver(core.EvWebSocketConnectionLost{Handle: handle, Reason: err.Error()})
			return
		}
		io.deliver(core.EvWebSocketMessageReceived{Handle: handle, Text: string(data)})
	}
}

func (io *IO) send(ctx context.Context, handle core.WSHandle, text string) {
	io.mu.Lock()
	conn := io.conns[handle]
	io.mu.Unlock()
	if conn == nil {
		return
	}
	// A write failure here is reported as a connection loss on the next
	// read, same as any other transport error.
	conn.Write(ctx, websocket.MessageText, []byte(text))
}

func (io *IO) closeSocket(handle core.WSHandle) {
	io.mu.Lock()
	conn := io.conns[handle]
	delete(io.conns, handle)
	io.mu.Unlock()
	if conn == nil {
		return
	}
	conn.Close(websocket.StatusNormalClosure, "")
}

func (io *IO) startTimer(handle core.TimerHandle, seconds float64) {
	t := time.AfterFunc(time.Duration(seconds*float64(time.Second)), func() {
		io.deliver(core.EvTimerExpired{Handle: handle})
	})
	io.mu.Lock()
	io.timers[handle] = t
	io.mu.Unlock()
}

func (io *IO) cancelTimer(handle core.TimerHandle) {
	io.mu.Lock()
	t := io.timers[handle]
	delete(io.timers, handle)
	io.mu.Unlock()
	if t != nil {
		t.Stop()
	}
}

func (io *IO) deliver(ev core.IOEvent) {
	io.events <- ev
}
