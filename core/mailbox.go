package core

import "strconv"

type mailboxState int

const (
	mailboxClosedNoMailbox   mailboxState = iota // S0A
	mailboxClosedHaveMailbox                     // S0B: transient, collapses into open immediately
	mailboxOpenNoProcess                         // S1A
	mailboxOpenActive                             // S1B
	mailboxClosing                                // S2
	mailboxClosed                                 // S3
)

// outboundMsg is one entry in the outbound buffer described in spec.md §3:
// queued before the mailbox is open, flushed in insertion order once open,
// and retransmitted on every TxOpen until a matching ack arrives — the
// ack-gated retry policy from SPEC_FULL.md §4.2.
type outboundMsg struct {
	id    string
	phase Phase
	body  []byte
	acked bool
}

// MailboxMachine opens/closes a mailbox, buffers outgoing messages until
// open, and dedupes incoming peer messages. See spec.md §4.6.
type MailboxMachine struct {
	mySide MySide

	state mailboxState
	addr  Mailbox
	mood  Mood

	nextID  int
	pending []outboundMsg

	seen map[Phase]struct{} // dedup key is (TheirSide, Phase); side is constant for the session
}

func NewMailbox(mySide MySide) *MailboxMachine {
	return &MailboxMachine{mySide: mySide, seen: make(map[Phase]struct{})}
}

func (m *MailboxMachine) Process(ev Event) Events {
	switch e := ev.(type) {
	case MailboxSet:
		return m.open(e.Mailbox)
	case AddMessage:
		return m.enqueue(e.Phase, e.Body)
	case RxMessage:
		return m.receive(e)
	case RxAck:
		m.ack(e.ID)
		return nil
	case RendezvousLost:
		if m.state == mailboxOpenActive || m.state == mailboxOpenNoProcess {
			m.state = mailboxOpenNoProcess
		}
		return nil
	case RendezvousConnected:
		if m.state == mailboxOpenNoProcess {
			return m.flush()
		}
		return nil
	case MailboxClose:
		return m.close(e.Mood)
	case RxClosed:
		if m.state != mailboxClosing {
			return nil
		}
		m.state = mailboxClosed
		return Events{MailboxClosed{}}
	}
	return nil
}

func (m *MailboxMachine) open(addr Mailbox) Events {
	if m.state != mailboxClosedNoMailbox {
		return nil
	}
	m.addr = addr
	m.state = mailboxOpenNoProcess
	return m.flush()
}

// flush sends TxOpen and retransmits every un-acked outbound message, per
// the retry policy: server-side delivery across reconnects is not
// guaranteed until acknowledged.
func (m *MailboxMachine) flush() Events {
	m.state = mailboxOpenActive
	out := Events{TxOpen{Mailbox: m.addr}}
	for _, p := range m.pending {
		if p.acked {
			continue
		}
		out = append(out, TxAdd{ID: p.id, Phase: p.phase, Body: p.body})
	}
	return out
}

func (m *MailboxMachine) enqueue(phase Phase, body []byte) Events {
	m.nextID++
	id := strconv.Itoa(m.nextID)
	m.pending = append(m.pending, outboundMsg{id: id, phase: phase, body: body})

	if m.state == mailboxOpenActive {
		return Events{TxAdd{ID: id, Phase: phase, Body: body}}
	}
	// Buffered: will be sent (or retransmitted) on the next flush.
	return nil
}

func (m *MailboxMachine) ack(id string) {
	for i := range m.pending {
		if m.pending[i].id == id {
			m.pending[i].acked = true
			return
		}
	}
}

func (m *MailboxMachine) receive(e RxMessage) Events {
	if e.Side == string(m.mySide) {
		// The server echoed our own message back; it is not forwarded, but
		// it does confirm delivery, same as an explicit ack.
		for i := range m.pending {
			if m.pending[i].phase == e.Phase {
				m.pending[i].acked = true
			}
		}
		return nil
	}
	if _, dup := m.seen[e.Phase]; dup {
		return nil
	}
	m.seen[e.Phase] = struct{}{}
	return Events{OrderGotMessage{Side: TheirSide(e.Side), Phase: e.Phase, Body: e.Body}}
}

func (m *MailboxMachine) close(mood Mood) Events {
	if m.state == mailboxClosing || m.state == mailboxClosed {
		return nil
	}
	if m.state == mailboxClosedNoMailbox {
		// No mailbox was ever opened; there is nothing for the server to
		// close, and no RxClosed will ever arrive to complete it.
		m.state = mailboxClosed
		return Events{MailboxClosed{}}
	}
	m.mood = mood
	m.state = mailboxClosing
	return Events{TxClose{Mailbox: m.addr, Mood: mood}}
}

// PendingLen reports the number of outbound messages not yet acked, for the
// metrics snapshot described in SPEC_FULL.md §3.
func (m *MailboxMachine) PendingLen() int {
	n := 0
	for _, p := range m.pending {
		if !p.acked {
			n++
		}
	}
	return n
}
