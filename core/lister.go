package core

// listerState is one of the four (want, connected) combinations from
// spec.md §4.3. Named s0a/s0b/s1a/s1b to match the original state machine
// this was ported from rather than inventing new names.
type listerState int

const (
	listerS0A listerState = iota // not wanting, unconnected
	listerS0B                    // not wanting, connected
	listerS1A                    // wanting, unconnected
	listerS1B                    // wanting, connected
)

// Lister requests the nameplate list for receiver-side code completion. A
// single Refresh is satisfied by a single RxNameplates response; after that
// it drops back to "not wanting" and sends no further TxList until the next
// Refresh. Nameplate lists the server pushes while not wanting are still
// forwarded.
type Lister struct {
	state listerState
}

func NewLister() *Lister { return &Lister{state: listerS0A} }

func (l *Lister) Process(ev Event) Events {
	switch l.state {
	case listerS0A:
		return l.doS0A(ev)
	case listerS0B:
		return l.doS0B(ev)
	case listerS1A:
		return l.doS1A(ev)
	case listerS1B:
		return l.doS1B(ev)
	default:
		return nil
	}
}

func (l *Lister) doS0A(ev Event) Events {
	switch ev.(type) {
	case RendezvousConnected:
		l.state = listerS0B
	case ListerWantRefresh:
		l.state = listerS1A
	}
	return nil
}

func (l *Lister) doS0B(ev Event) Events {
	switch e := ev.(type) {
	case ListerWantRefresh:
		l.state = listerS1B
		return Events{TxList{}}
	case RendezvousLost:
		l.state = listerS0A
	case RxNameplates:
		// stays S0B: no outstanding want, but the server may still push one.
		return Events{GotNameplates{Nameplates: e.Nameplates}}
	case RendezvousConnected:
	}
	return nil
}

func (l *Lister) doS1A(ev Event) Events {
	switch ev.(type) {
	case RendezvousConnected:
		l.state = listerS1B
		return Events{TxList{}}
	}
	// Already wanting; a further refresh (or anything else) waits for the
	// connection.
	return nil
}

func (l *Lister) doS1B(ev Event) Events {
	switch e := ev.(type) {
	case RendezvousLost:
		l.state = listerS1A
	case ListerWantRefresh:
		return Events{TxList{}}
	case RxNameplates:
		l.state = listerS0B
		return Events{GotNameplates{Nameplates: e.Nameplates}}
	case RendezvousConnected:
	}
	return nil
}
