package core

type nameplateState int

const (
	nameplateIdle nameplateState = iota
	nameplateClaiming
	nameplateClaimed
	nameplateReleasing
	nameplateReleased
)

// NameplateMachine claims/releases a nameplate and learns the mailbox id
// from the claim response. See spec.md §4.5.
type NameplateMachine struct {
	state nameplateState
	np    Nameplate
}

func NewNameplate() *NameplateMachine { return &NameplateMachine{} }

func (n *NameplateMachine) Process(ev Event) Events {
	switch e := ev.(type) {
	case NameplateSet:
		if n.state != nameplateIdle {
			return nil
		}
		n.np = e.Nameplate
		n.state = nameplateClaiming
		return Events{TxClaim{Nameplate: e.Nameplate}}
	case RxClaimed:
		if n.state != nameplateClaiming {
			return nil
		}
		n.state = nameplateClaimed
		return Events{NameplateGotMailbox{Mailbox: e.Mailbox}}
	case NameplateRelease:
		if n.state == nameplateReleasing || n.state == nameplateReleased {
			return nil
		}
		if n.state == nameplateIdle {
			// Nothing was ever claimed; there is nothing for the server to
			// release, and no RxReleased will ever arrive to complete it.
			n.state = nameplateReleased
			return Events{NameplateReleased{}}
		}
		n.state = nameplateReleasing
		return Events{TxRelease{}}
	case RxReleased:
		// Idempotent: the server may echo more than one released frame.
		n.state = nameplateReleased
		return Events{NameplateReleased{}}
	case RendezvousConnected:
		if n.state == nameplateClaiming {
			// Replay the claim after a reconnect; the server may not have
			// seen it before the connection dropped.
			return Events{TxClaim{Nameplate: n.np}}
		}
	}
	return nil
}
