package core

// orderedMsg is a peer message queued by Order until the local PAKE has been
// processed, so Receive never sees anything before Key does.
type orderedMsg struct {
	side  TheirSide
	phase Phase
	body  []byte
}

// Order ensures the peer's "pake" message is always the first thing Key
// processes, even though the server (or the peer itself, legally) may
// deliver the "version" message, or an application phase, ahead of it.
//
// Ported from the original src/core/order.rs, which this package's queue
// drain-on-pake behavior mirrors exactly.
type Order struct {
	gotPake bool
	queue   []orderedMsg
}

func NewOrder() *Order { return &Order{} }

func (o *Order) Process(ev Event) Events {
	m, ok := ev.(OrderGotMessage)
	if !ok {
		return nil
	}

	if o.gotPake {
		return Events{ReceiveGotMessage{Side: m.Side, Phase: m.Phase, Body: m.Body}}
	}

	if m.Phase != PhasePake {
		o.queue = append(o.queue, orderedMsg{side: m.Side, phase: m.Phase, body: m.Body})
		return nil
	}

	o.gotPake = true
	out := Events{KeyGotPake{Body: m.Body}}
	for _, q := range o.queue {
		out = append(out, ReceiveGotMessage{Side: q.side, Phase: q.phase, Body: q.body})
	}
	o.queue = nil
	return out
}

// QueueLen reports the number of peer messages buffered waiting on the PAKE,
// for the metrics snapshot described in SPEC_FULL.md §3.
func (o *Order) QueueLen() int { return len(o.queue) }
