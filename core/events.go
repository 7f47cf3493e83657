package core

import "encoding/json"

// Event is the tagged union of everything that flows through the engine's
// internal FIFO. Submachines never call each other directly; they return the
// Events they want emitted and the dispatcher queues them for the next
// round, which is what gives the whole engine its "events emitted during one
// step are processed, in order, before the next external event" guarantee.
type Event interface{ event() }

// Events is a small ordered batch, the return type of every submachine's
// Process method.
type Events []Event

// ---- Rendezvous events (received by core.Rendezvous, emitted by the glue) ----

type RxWelcome struct{ Welcome json.RawMessage }
type RxNameplates struct{ Nameplates []Nameplate }
type RxAllocated struct{ Nameplate Nameplate }
type RxClaimed struct{ Mailbox Mailbox }
type RxReleased struct{}
type RxMessage struct {
	// Side is the raw side string from the wire frame; the Mailbox machine
	// compares it against its own MySide to tell a loopback echo of our own
	// message from a genuine peer message.
	Side  string
	Phase Phase
	Body  []byte
}
type RxClosed struct{}
type RxAck struct{ ID string }
type RxError struct{ Message string }
type RendezvousLost struct{}
type RendezvousConnected struct{}

func (RxWelcome) event()           {}
func (RxNameplates) event()        {}
func (RxAllocated) event()         {}
func (RxClaimed) event()           {}
func (RxReleased) event()          {}
func (RxMessage) event()           {}
func (RxClosed) event()            {}
func (RxAck) event()               {}
func (RxError) event()             {}
func (RendezvousLost) event()      {}
func (RendezvousConnected) event() {}

// ---- Outbound rendezvous commands (emitted by core submachines, consumed by the glue) ----

type TxBind struct {
	AppID AppID
	Side  MySide
}
type TxList struct{}
type TxAllocate struct{}
type TxClaim struct{ Nameplate Nameplate }
type TxRelease struct{}
type TxOpen struct{ Mailbox Mailbox }
type TxAdd struct {
	ID    string
	Phase Phase
	Body  []byte
}
type TxClose struct {
	Mailbox Mailbox
	Mood    Mood
}

// TxPing is the keepalive frame from spec.md §6's outbound wire surface. The
// engine has no internal timer driving it (reconnect backoff is the only
// timer Rendezvous owns). Boss routes it to Rendezvous like the other Tx
// frames, but neither DispatchAPI nor DispatchIO accepts it, so nothing
// outside this package can emit one. The server's "pong" reply is decoded
// and dropped.
type TxPing struct{ Payload string }

func (TxBind) event()     {}
func (TxList) event()     {}
func (TxAllocate) event() {}
func (TxClaim) event()    {}
func (TxRelease) event()  {}
func (TxOpen) event()     {}
func (TxAdd) event()      {}
func (TxClose) event()    {}
func (TxPing) event()     {}

// ---- Lister events ----

type ListerWantRefresh struct{}

func (ListerWantRefresh) event() {}

// ---- Input events ----

type GotNameplates struct{ Nameplates []Nameplate }

func (GotNameplates) event() {}

// ---- Allocator ----

type AllocatorAllocate struct{ NumWords int }
type AllocatorGotWordlist struct{ Words []string }

func (AllocatorAllocate) event()     {}
func (AllocatorGotWordlist) event()  {}

// ---- Nameplate ----

type NameplateSet struct{ Nameplate Nameplate }
type NameplateGotMailbox struct{ Mailbox Mailbox }
type NameplateRelease struct{}
type NameplateReleased struct{}

func (NameplateSet) event()        {}
func (NameplateGotMailbox) event() {}
func (NameplateRelease) event()    {}
func (NameplateReleased) event()   {}

// ---- Mailbox ----

type MailboxSet struct{ Mailbox Mailbox }
type AddMessage struct {
	Phase Phase
	Body  []byte
}
type MailboxClose struct{ Mood Mood }
type MailboxClosed struct{}

func (MailboxSet) event()    {}
func (AddMessage) event()    {}
func (MailboxClose) event()  {}
func (MailboxClosed) event() {}

// ---- Order ----

type OrderGotMessage struct {
	Side  TheirSide
	Phase Phase
	Body  []byte
}

func (OrderGotMessage) event() {}

// ---- Key ----

type KeyGotCode struct {
	Code Code
	// Leader is true on the side that allocated the nameplate. The CPace
	// backend is asymmetric (spec.md §4.8 / SPEC_FULL.md §4.8): the leader
	// waits for the peer's pake element before it can answer, the follower
	// sends first.
	Leader bool
}
type KeyGotPake struct{ Body []byte }
type KeyGotKey struct{ Key Key }
type KeyGotVerifiedKey struct{ Key Key }

func (KeyGotCode) event()        {}
func (KeyGotPake) event()        {}
func (KeyGotKey) event()         {}
func (KeyGotVerifiedKey) event() {}

// ---- Receive ----

type ReceiveGotMessage struct {
	Side  TheirSide
	Phase Phase
	Body  []byte
}

func (ReceiveGotMessage) event() {}

// ---- Send ----

type SendQueue struct {
	Phase     Phase
	Plaintext []byte
}

func (SendQueue) event() {}

// ---- Terminator ----

type Close struct{}

// CloseErrory carries a fatal error up to the Terminator. Mood, if not
// MoodUnknown, pins the close mood the error maps to (MoodScared for a
// verification-phase decrypt failure, MoodUnwelcome for a server-class
// refusal); MoodUnknown lets Terminator fall back to the generic MoodErrory.
type CloseErrory struct {
	Err  error
	Mood Mood
}
type RendezvousStopped struct{}

func (Close) event()             {}
func (CloseErrory) event()       {}
func (RendezvousStopped) event() {}

// ---- API events (from application into Boss) ----

type APIEvent interface{ apiEvent() }

type EvStart struct{}
type EvAllocateCode struct{ NumWords int }
type EvInputCode struct{}
type EvInputHelperRefreshNameplates struct{}
type EvInputHelperChooseNameplate struct{ Nameplate string }
type EvInputHelperChooseWords struct{ Words string }
type EvSetCode struct{ Code Code }
type EvSend struct{ Plaintext []byte }
type EvClose struct{}

func (EvStart) apiEvent()                          {}
func (EvAllocateCode) apiEvent()                   {}
func (EvInputCode) apiEvent()                      {}
func (EvInputHelperRefreshNameplates) apiEvent()   {}
func (EvInputHelperChooseNameplate) apiEvent()     {}
func (EvInputHelperChooseWords) apiEvent()         {}
func (EvSetCode) apiEvent()                        {}
func (EvSend) apiEvent()                           {}
func (EvClose) apiEvent()                          {}

// ---- API actions (from Boss out to the application) ----

type APIAction interface{ apiAction() }

type ActGotWelcome struct{ Welcome json.RawMessage }
type ActGotCode struct{ Code Code }
type ActGotUnverifiedKey struct{ Key Key }
type ActGotVerifier struct{ Verifier Verifier }
type ActGotVersions struct{ Versions json.RawMessage }
type ActGotMessage struct{ Message []byte }
type ActGotClosed struct {
	Mood Mood
	Err  error
}

func (ActGotWelcome) apiAction()       {}
func (ActGotCode) apiAction()          {}
func (ActGotUnverifiedKey) apiAction() {}
func (ActGotVerifier) apiAction()      {}
func (ActGotVersions) apiAction()      {}
func (ActGotMessage) apiAction()       {}
func (ActGotClosed) apiAction()        {}

// APIAction values are also Events: submachines emit them directly into the
// same FIFO (e.g. Rendezvous answering RxWelcome with ActGotWelcome), and
// Boss.drain pulls them back out by type-switch as the queue empties.
func (ActGotWelcome) event()       {}
func (ActGotCode) event()          {}
func (ActGotUnverifiedKey) event() {}
func (ActGotVerifier) event()      {}
func (ActGotVersions) event()      {}
func (ActGotMessage) event()       {}
func (ActGotClosed) event()        {}

// ---- I/O events (from the glue layer into Boss.DispatchIO) ----

type IOEvent interface{ ioEvent() }

type EvTimerExpired struct{ Handle TimerHandle }
type EvWebSocketConnectionMade struct{ Handle WSHandle }
type EvWebSocketMessageReceived struct {
	Handle WSHandle
	Text   string
}
type EvWebSocketConnectionLost struct {
	Handle WSHandle
	Reason string
}

func (EvTimerExpired) ioEvent()             {}
func (EvWebSocketConnectionMade) ioEvent()  {}
func (EvWebSocketMessageReceived) ioEvent() {}
func (EvWebSocketConnectionLost) ioEvent()  {}

// These also satisfy Event: Boss seeds the dispatch FIFO with them directly
// and Rendezvous.Process switches on them like any other internal event.
func (EvTimerExpired) event()             {}
func (EvWebSocketConnectionMade) event()  {}
func (EvWebSocketMessageReceived) event() {}
func (EvWebSocketConnectionLost) event()  {}

// ---- I/O actions (from Boss out to the glue layer) ----

type IOAction interface{ ioAction() }

type ActStartTimer struct {
	Handle  TimerHandle
	Seconds float64
}
type ActCancelTimer struct{ Handle TimerHandle }
type ActWebSocketOpen struct {
	Handle WSHandle
	URL    string
}
type ActWebSocketSendMessage struct {
	Handle WSHandle
	Text   string
}
type ActWebSocketClose struct{ Handle WSHandle }

func (ActStartTimer) ioAction()           {}
func (ActCancelTimer) ioAction()          {}
func (ActWebSocketOpen) ioAction()        {}
func (ActWebSocketSendMessage) ioAction() {}
func (ActWebSocketClose) ioAction()       {}

// IOAction values are also Events, for the same reason APIAction values are.
func (ActStartTimer) event()           {}
func (ActCancelTimer) event()          {}
func (ActWebSocketOpen) event()        {}
func (ActWebSocketSendMessage) event() {}
func (ActWebSocketClose) event()       {}
