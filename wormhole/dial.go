// Package wormhole is the blocking, io.ReadWriteCloser-shaped façade over
// core.Boss: it wires up the concrete pake.Crypto and wordlist.Generator
// backends and the rendezvous.IO glue layer the way the teacher's New/Join
// wired up a *webrtc.PeerConnection, but the channel here is the rendezvous
// mailbox itself rather than a WebRTC DataChannel.
package wormhole

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"

	"github.com/wormhole-core/wormhole/core"
	"github.com/wormhole-core/wormhole/pake"
	"github.com/wormhole-core/wormhole/rendezvous"
	"github.com/wormhole-core/wormhole/wordlist"
)

// Versions is sent unconditionally in the version phase once the key is
// derived, mirroring the "app_versions" blob of spec.md §4.8. This façade
// has no capabilities of its own to negotiate, so it sends an empty object.
var Versions = []byte("{}")

// Conn is one end of a verified, encrypted message channel established over
// a rendezvous server. Each Write is delivered as one application message;
// each Read returns bytes from a single received message, finishing a
// partly read message before starting the next.
type Conn struct {
	io     *rendezvous.IO
	cancel context.CancelFunc
	codec  chan string // non-nil only for a Conn returned by New

	ready     chan struct{} // closed once the key is verified or the session fails first
	readyOnce sync.Once
	readyErr  error

	closed chan struct{} // closed once ActGotClosed has been processed

	msgs     chan []byte
	leftover []byte

	mu       sync.Mutex
	welcome  json.RawMessage
	verifier core.Verifier
	versions json.RawMessage
	closeErr error
}

func newConn(serverURL string, appID core.AppID) *Conn {
	boss := core.NewBoss(serverURL, appID, pake.New(), wordlist.NewGenerator(), Versions)
	ctx, cancel := context.WithCancel(context.Background())
	c := &Conn{
		io:     rendezvous.New(boss),
		cancel: cancel,
		ready:  make(chan struct{}),
		closed: make(chan struct{}),
		msgs:   make(chan []byte, 16),
	}
	go c.io.Run(ctx)
	go c.pump()
	c.io.Start(ctx)
	return c
}

func (c *Conn) pump() {
	for act := range c.io.Actions() {
		switch a := act.(type) {
		case core.ActGotWelcome:
			c.mu.Lock()
			c.welcome = a.Welcome
			c.mu.Unlock()
		case core.ActGotCode:
			if c.codec != nil {
				c.codec <- string(a.Code)
			}
		case core.ActGotVerifier:
			c.mu.Lock()
			c.verifier = a.Verifier
			c.mu.Unlock()
		case core.ActGotVersions:
			c.mu.Lock()
			c.versions = a.Versions
			c.mu.Unlock()
			// The peer's version phase decrypted: the key is confirmed.
			c.signalReady(nil)
		case core.ActGotMessage:
			c.msgs <- a.Message
		case core.ActGotClosed:
			close(c.msgs)
			err := a.Err
			if err == nil && a.Mood != core.MoodHappy {
				err = &core.WormholeError{Class: "protocol", Err: errors.New(a.Mood.String())}
			}
			c.mu.Lock()
			c.closeErr = err
			c.mu.Unlock()
			c.signalReady(err)
			close(c.closed)
		}
	}
}

func (c *Conn) signalReady(err error) {
	c.readyOnce.Do(func() {
		c.readyErr = err
		close(c.ready)
	})
}

// New allocates a fresh nameplate and a numWords-word code, delivered once
// over codec as soon as the server assigns the nameplate. Call Wait on the
// returned Conn to block until the peer has joined and the key is verified.
func New(serverURL, appID string, numWords int) (codec <-chan string, conn *Conn) {
	c := newConn(serverURL, core.AppID(appID))
	c.codec = make(chan string, 1)
	c.io.Dispatch(context.Background(), core.EvAllocateCode{NumWords: numWords})
	return c.codec, c
}

// Dial joins an existing code generated by the peer's New.
func Dial(serverURL, appID, code string) *Conn {
	c := newConn(serverURL, core.AppID(appID))
	c.io.Dispatch(context.Background(), core.EvSetCode{Code: core.Code(code)})
	return c
}

// Wait blocks until the PAKE key is verified or the session fails, and
// returns the Conn ready for Read/Write, or the error that ended it.
func (c *Conn) Wait(ctx context.Context) (*Conn, error) {
	select {
	case <-c.ready:
		return c, c.readyErr
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Verifier returns the session's key fingerprint, safe to display for human
// out-of-band comparison. Only meaningful after Wait returns successfully.
func (c *Conn) Verifier() core.Verifier {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.verifier
}

// Welcome returns the rendezvous server's raw welcome payload, if any.
func (c *Conn) Welcome() json.RawMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.welcome
}

// Read returns bytes from received application messages, blocking until at
// least one is available. It returns io.EOF once the session has closed
// with no more buffered messages.
func (c *Conn) Read(p []byte) (int, error) {
	if len(c.leftover) == 0 {
		msg, ok := <-c.msgs
		if !ok {
			return 0, io.EOF
		}
		c.leftover = msg
	}
	n := copy(p, c.leftover)
	c.leftover = c.leftover[n:]
	return n, nil
}

// Write sends plaintext as a single application message.
func (c *Conn) Write(p []byte) (int, error) {
	cp := append([]byte(nil), p...)
	c.io.Send(context.Background(), cp)
	return len(p), nil
}

// Close begins an orderly shutdown and waits for the engine to confirm it
// before tearing down the socket/timer glue layer.
func (c *Conn) Close() error {
	c.io.Close(context.Background())
	<-c.closed
	c.cancel()
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeErr
}
