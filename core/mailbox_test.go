package core

import "testing"

func TestMailboxOpenFlushesPending(t *testing.T) {
	m := NewMailbox(MySide("me"))

	m.Process(AddMessage{Phase: PhasePake, Body: []byte("p")})
	out := m.Process(MailboxSet{Mailbox: "12"})
	if len(out) != 2 {
		t.Fatalf("expected TxOpen plus the buffered TxAdd, got %#v", out)
	}
	if _, ok := out[0].(TxOpen); !ok {
		t.Fatalf("expected TxOpen first, got %#v", out[0])
	}
	if add, ok := out[1].(TxAdd); !ok || add.Phase != PhasePake {
		t.Fatalf("expected buffered pake TxAdd, got %#v", out[1])
	}
}

func TestMailboxSendsImmediatelyOnceOpen(t *testing.T) {
	m := NewMailbox(MySide("me"))
	m.Process(MailboxSet{Mailbox: "12"})

	out := m.Process(AddMessage{Phase: Phase("app"), Body: []byte("hi")})
	if len(out) != 1 {
		t.Fatalf("expected a single TxAdd, got %#v", out)
	}
}

func TestMailboxDropsOwnEchoButAcksIt(t *testing.T) {
	m := NewMailbox(MySide("me"))
	m.Process(MailboxSet{Mailbox: "12"})
	m.Process(AddMessage{Phase: Phase("app"), Body: []byte("hi")})
	if m.PendingLen() != 1 {
		t.Fatalf("expected one un-acked message, got %d", m.PendingLen())
	}

	out := m.Process(RxMessage{Side: "me", Phase: Phase("app"), Body: []byte("hi")})
	if len(out) != 0 {
		t.Fatalf("our own echoed message must not be forwarded, got %#v", out)
	}
	if m.PendingLen() != 0 {
		t.Fatalf("the echo should ack the pending send, got pending=%d", m.PendingLen())
	}
}

func TestMailboxForwardsPeerMessageOnce(t *testing.T) {
	m := NewMailbox(MySide("me"))
	m.Process(MailboxSet{Mailbox: "12"})

	out := m.Process(RxMessage{Side: "peer", Phase: Phase("app"), Body: []byte("hi")})
	if len(out) != 1 {
		t.Fatalf("expected a single OrderGotMessage, got %#v", out)
	}
	if _, ok := out[0].(OrderGotMessage); !ok {
		t.Fatalf("expected OrderGotMessage, got %#v", out[0])
	}

	out = m.Process(RxMessage{Side: "peer", Phase: Phase("app"), Body: []byte("hi")})
	if len(out) != 0 {
		t.Fatalf("a duplicate delivery of the same phase must be dropped, got %#v", out)
	}
}

func TestMailboxCloseAfterOpenRoundTrips(t *testing.T) {
	m := NewMailbox(MySide("me"))
	m.Process(MailboxSet{Mailbox: "12"})

	out := m.Process(MailboxClose{Mood: MoodHappy})
	if len(out) != 1 {
		t.Fatalf("expected TxClose, got %#v", out)
	}
	if _, ok := out[0].(TxClose); !ok {
		t.Fatalf("expected TxClose, got %#v", out[0])
	}

	out = m.Process(RxClosed{})
	if len(out) != 1 {
		t.Fatalf("expected MailboxClosed, got %#v", out)
	}
}

// TestMailboxCloseWithoutOpenCompletesImmediately guards against the
// deadlock a naive close would cause: closing a session that never reached
// MailboxSet must still resolve, since the server has no mailbox to close
// and will never send RxClosed for one.
func TestMailboxCloseWithoutOpenCompletesImmediately(t *testing.T) {
	m := NewMailbox(MySide("me"))

	out := m.Process(MailboxClose{Mood: MoodLonely})
	if len(out) != 1 {
		t.Fatalf("expected an immediate MailboxClosed, got %#v", out)
	}
	if _, ok := out[0].(MailboxClosed); !ok {
		t.Fatalf("expected MailboxClosed, got %#v", out[0])
	}
}
