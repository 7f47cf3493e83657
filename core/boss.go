package core

import (
	"encoding/json"
	"strconv"
)

// Boss is the top-level engine: it owns every submachine, the handle
// factory, and the single event FIFO, and is the only thing the glue layer
// and application talk to. See spec.md §3 and §5.
//
// Dispatch is run-to-completion: every event produced while handling one
// input event is itself fully processed, in order, before Dispatch returns.
// Nothing outside this package ever sees a partially-drained queue.
type Boss struct {
	appID AppID
	side  MySide

	handles handleFactory

	rendezvous *Rendezvous
	lister     *Lister
	allocator  *Allocator
	nameplate  *NameplateMachine
	mailbox    *MailboxMachine
	order      *Order
	key        *KeyMachine
	receive    *Receive
	send       *Send
	code       *CodeMachine
	input      *Input
	terminator *Terminator

	sendCounter int // assigns the decimal application phase numbers for EvSend
}

// NewBoss builds a session against the rendezvous server at url, in
// application namespace appID. versions is the application's own version
// blob, sent unconditionally as soon as the PAKE completes (spec.md §4.8).
func NewBoss(url string, appID AppID, crypto Crypto, gen CodeGenerator, versions []byte) *Boss {
	side := NewMySide()
	b := &Boss{appID: appID, side: side}
	b.rendezvous = NewRendezvous(url, appID, side, &b.handles)
	b.lister = NewLister()
	b.allocator = NewAllocator(gen)
	b.nameplate = NewNameplate()
	b.mailbox = NewMailbox(side)
	b.order = NewOrder()
	b.key = NewKey(side, crypto, versions)
	b.receive = NewReceive(side, crypto)
	b.send = NewSend(side, crypto)
	b.input = NewInput()
	if wm, ok := gen.(WordMatcher); ok {
		b.input.matcher = wm
	}
	b.code = NewCode(b.input)
	b.terminator = NewTerminator()
	return b
}

// Side is this session's own identifier, as sent in every "bind" frame.
func (b *Boss) Side() MySide { return b.side }

// Input exposes the interactive nameplate/word completion helper, for
// callers building a receiver-side "choose from a list" UI.
func (b *Boss) Input() *Input { return b.input }

// Stats is a point-in-time snapshot of internal queue depths, for the
// metrics surface described in SPEC_FULL.md §3. None of it is part of the
// protocol; it exists purely for operational visibility.
type Stats struct {
	OrderQueueLen     int
	SendQueueLen      int
	MailboxPendingLen int
}

func (b *Boss) Stats() Stats {
	return Stats{
		OrderQueueLen:     b.order.QueueLen(),
		SendQueueLen:      b.send.QueueLen(),
		MailboxPendingLen: b.mailbox.PendingLen(),
	}
}

// DispatchAPI feeds one application-originated event into the engine and
// returns everything it produced, split into actions the application should
// observe and actions the glue layer should carry out. A non-nil error is
// returned synchronously, without touching the FIFO at all, when ev
// represents a misuse of the Input helper's call ordering (spec.md §7); it
// is not a protocol error and the session is unaffected.
func (b *Boss) DispatchAPI(ev APIEvent) ([]APIAction, []IOAction, error) {
	var seed Events
	switch e := ev.(type) {
	case EvStart:
		seed = b.rendezvous.Start()
	case EvClose:
		seed = Events{Close{}}
	case EvSend:
		phase := Phase(strconv.Itoa(b.sendCounter))
		b.sendCounter++
		seed = Events{SendQueue{Phase: phase, Plaintext: e.Plaintext}}
	case EvAllocateCode, EvSetCode, EvInputCode:
		seed = b.code.Process(ev)
	case EvInputHelperRefreshNameplates:
		evs, err := b.input.RefreshNameplates()
		if err != nil {
			return nil, nil, err
		}
		seed = evs
	case EvInputHelperChooseNameplate:
		evs, err := b.input.ChooseNameplate(e.Nameplate)
		if err != nil {
			return nil, nil, err
		}
		seed = evs
	case EvInputHelperChooseWords:
		evs, err := b.input.ChooseWords(e.Words)
		if err != nil {
			return nil, nil, err
		}
		seed = evs
	}
	apiActs, ioActs := b.drain(seed)
	return apiActs, ioActs, nil
}

// DispatchIO feeds one glue-layer-originated event (a completed socket open,
// a received frame, a fired timer, ...) into the engine.
func (b *Boss) DispatchIO(ev IOEvent) ([]APIAction, []IOAction) {
	return b.drain(Events{ev.(Event)})
}

// drain runs the FIFO to completion, peeling off APIAction/IOAction leaves
// as they appear and feeding everything else back through route.
func (b *Boss) drain(seed Events) ([]APIAction, []IOAction) {
	queue := append(Events{}, seed...)
	var apiActs []APIAction
	var ioActs []IOAction
	for len(queue) > 0 {
		ev := queue[0]
		queue = queue[1:]
		if a, ok := ev.(APIAction); ok {
			apiActs = append(apiActs, a)
			continue
		}
		if a, ok := ev.(IOAction); ok {
			ioActs = append(ioActs, a)
			continue
		}
		queue = append(queue, b.route(ev)...)
	}
	return apiActs, ioActs
}

// route sends one internal event to the submachine(s) that own it, and
// translates the handful of internal hops (allocatorGotCode,
// keyVerifierDerived, receiveGotVersions, receiveGotPlaintext) that exist
// only to keep individual submachines ignorant of the application-facing
// action shapes.
func (b *Boss) route(ev Event) Events {
	switch e := ev.(type) {
	case EvWebSocketConnectionMade, EvWebSocketConnectionLost, EvTimerExpired, EvWebSocketMessageReceived,
		RxWelcome, RxError, RendezvousStop,
		TxBind, TxList, TxAllocate, TxClaim, TxRelease, TxOpen, TxAdd, TxClose, TxPing:
		return b.rendezvous.Process(ev)

	case RendezvousConnected, RendezvousLost:
		var out Events
		out = append(out, b.lister.Process(ev)...)
		out = append(out, b.allocator.Process(ev)...)
		out = append(out, b.mailbox.Process(ev)...)
		out = append(out, b.nameplate.Process(ev)...)
		return out

	case ListerWantRefresh, RxNameplates:
		return b.lister.Process(ev)

	case GotNameplates:
		b.input.setNameplates(e.Nameplates)
		return nil

	case AllocatorAllocate, RxAllocated:
		return b.allocator.Process(ev)

	case allocatorGotCode:
		return Events{ActGotCode{Code: e.Code}}

	case NameplateSet, NameplateRelease, RxClaimed, RxReleased:
		return b.nameplate.Process(ev)

	case NameplateGotMailbox:
		return Events{MailboxSet{Mailbox: e.Mailbox}}

	case MailboxSet, AddMessage, RxMessage, RxAck, MailboxClose, RxClosed:
		return b.mailbox.Process(ev)

	case MailboxClosed, NameplateReleased, RendezvousStopped:
		return b.terminator.Process(ev)

	case OrderGotMessage:
		return b.order.Process(ev)

	case KeyGotCode, KeyGotPake:
		return b.key.Process(ev)

	case keyVerifierDerived:
		return Events{ActGotUnverifiedKey{Key: e.Key}, ActGotVerifier{Verifier: e.Verifier}}

	case KeyGotKey:
		return b.receive.Process(ev)

	case KeyGotVerifiedKey:
		return b.send.Process(ev)

	case ReceiveGotMessage:
		return b.receive.Process(ev)

	case receiveGotVersions:
		return Events{ActGotVersions{Versions: json.RawMessage(e.Versions)}}

	case receiveGotPlaintext:
		return Events{ActGotMessage{Message: e.Message}}

	case SendQueue:
		return b.send.Process(ev)

	case Close, CloseErrory:
		return b.terminator.Process(ev)
	}
	return nil
}
