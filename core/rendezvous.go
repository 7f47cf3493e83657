package core

import (
	"encoding/json"
	"errors"
	"strconv"
)

type rendezvousState int

const (
	rendezvousIdle rendezvousState = iota
	rendezvousConnecting
	rendezvousConnected // bound, RxWelcome not yet seen
	rendezvousOpen      // bound and welcomed
	rendezvousWaiting   // backoff timer running after a lost connection
	rendezvousClosing
	rendezvousClosed
)

// backoffSchedule is the literal 1s, 2s, 4s, 8s... capped-at-30s schedule
// from spec.md scenario S5.
var backoffSchedule = []float64{1, 2, 4, 8, 16, 30}

// Rendezvous maintains the single connection to the server: it owns the
// opaque socket and timer handles, serializes/deserializes wire frames (see
// wire.go), and reconnects with exponential backoff on loss, replaying the
// bind on every (re)connect. See spec.md §4.2.
type Rendezvous struct {
	url   string
	appID AppID
	side  MySide

	state       rendezvousState
	ws          WSHandle
	timer       TimerHandle
	haveWS      bool
	haveTimer   bool
	backoffStep int

	idCounter int
	handles   *handleFactory
}

func NewRendezvous(url string, appID AppID, side MySide, handles *handleFactory) *Rendezvous {
	return &Rendezvous{url: url, appID: appID, side: side, handles: handles}
}

// Start kicks off the initial connection attempt.
func (r *Rendezvous) Start() Events {
	if r.state != rendezvousIdle {
		return nil
	}
	return r.connect()
}

func (r *Rendezvous) connect() Events {
	r.state = rendezvousConnecting
	r.ws = r.handles.socket()
	r.haveWS = true
	return Events{ActWebSocketOpen{Handle: r.ws, URL: r.url}}
}

func (r *Rendezvous) Process(ev Event) Events {
	switch e := ev.(type) {
	case EvWebSocketConnectionMade:
		return r.connected(e.Handle)
	case EvWebSocketConnectionLost:
		return r.lost(e.Handle)
	case EvTimerExpired:
		return r.timerFired(e.Handle)
	case EvWebSocketMessageReceived:
		return r.received(e.Handle, e.Text)
	case RxWelcome:
		if msg := welcomeError(e.Welcome); msg != "" {
			return Events{CloseErrory{
				Err:  &WormholeError{Class: "server", Err: errors.New(msg)},
				Mood: MoodUnwelcome,
			}}
		}
		r.state = rendezvousOpen
		r.backoffStep = 0
		return Events{ActGotWelcome{Welcome: e.Welcome}, RendezvousConnected{}}
	case RxError:
		return Events{CloseErrory{
			Err:  &WormholeError{Class: "server", Err: errors.New(e.Message)},
			Mood: MoodUnwelcome,
		}}
	case RendezvousStop:
		return r.stop()
	case TxBind, TxList, TxAllocate, TxClaim, TxRelease, TxOpen, TxAdd, TxClose, TxPing:
		return r.send(ev)
	}
	return nil
}

func (r *Rendezvous) connected(h WSHandle) Events {
	if !r.haveWS || h != r.ws || r.state != rendezvousConnecting {
		return nil
	}
	r.state = rendezvousConnected
	return r.send(TxBind{AppID: r.appID, Side: r.side})
}

func (r *Rendezvous) lost(h WSHandle) Events {
	if !r.haveWS || h != r.ws {
		return nil
	}
	r.haveWS = false
	if r.state == rendezvousClosing {
		r.state = rendezvousClosed
		return Events{RendezvousStopped{}}
	}
	r.state = rendezvousWaiting
	r.timer = r.handles.timer()
	r.haveTimer = true
	seconds := backoffSchedule[r.backoffStep]
	if r.backoffStep < len(backoffSchedule)-1 {
		r.backoffStep++
	}
	return Events{RendezvousLost{}, ActStartTimer{Handle: r.timer, Seconds: seconds}}
}

func (r *Rendezvous) received(h WSHandle, text string) Events {
	if !r.haveWS || h != r.ws {
		return nil
	}
	ev, err := decodeFrame(text)
	if err != nil || ev == nil {
		return nil
	}
	// Re-queue the decoded frame so the dispatcher routes it (possibly back
	// to this same machine, for welcome/error) to whichever submachine owns
	// that event type.
	return Events{ev}
}

func (r *Rendezvous) timerFired(h TimerHandle) Events {
	if !r.haveTimer || h != r.timer || r.state != rendezvousWaiting {
		return nil
	}
	r.haveTimer = false
	return r.connect()
}

func (r *Rendezvous) stop() Events {
	if r.state == rendezvousClosed {
		return Events{RendezvousStopped{}}
	}
	r.state = rendezvousClosing
	var out Events
	if r.haveTimer {
		out = append(out, ActCancelTimer{Handle: r.timer})
		r.haveTimer = false
	}
	if r.haveWS {
		out = append(out, ActWebSocketClose{Handle: r.ws})
	} else {
		out = append(out, RendezvousStopped{})
		r.state = rendezvousClosed
	}
	return out
}

// welcomeError reports the server's refusal reason embedded in a welcome
// frame's "error" field, if any. The rest of the welcome payload (e.g. motd)
// is forwarded to the application unfiltered regardless.
func welcomeError(welcome json.RawMessage) string {
	var w struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(welcome, &w); err != nil {
		return ""
	}
	return w.Error
}

func (r *Rendezvous) send(ev Event) Events {
	if !r.haveWS {
		return nil
	}
	r.idCounter++
	id := strconv.Itoa(r.idCounter)
	text, ok := encodeFrame(id, ev)
	if !ok {
		return nil
	}
	return Events{ActWebSocketSendMessage{Handle: r.ws, Text: text}}
}
