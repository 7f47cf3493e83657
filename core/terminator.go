package core

// RendezvousStop asks the Rendezvous machine to close its connection as
// part of an orderly shutdown; it always answers with RendezvousStopped.
type RendezvousStop struct{}

func (RendezvousStop) event() {}

type terminatorState int

const (
	terminatorIdle terminatorState = iota
	terminatorClosing
	terminatorDone
)

// Terminator orchestrates a graceful close across Nameplate, Mailbox, and
// Rendezvous, and is the only thing that ever emits the session's single
// GotClosed. See spec.md §4.12. Idempotent: a repeated Close once closing is
// already in progress is a no-op. An application Close always ends with
// MoodHappy, whether or not a peer ever joined; MoodLonely is never produced.
type Terminator struct {
	state terminatorState
	mood  Mood
	err   error

	nameplateDone   bool
	mailboxDone     bool
	rendezvousDone  bool
}

func NewTerminator() *Terminator { return &Terminator{} }

func (t *Terminator) Process(ev Event) Events {
	switch e := ev.(type) {
	case Close:
		return t.begin(MoodHappy, nil)
	case CloseErrory:
		mood := e.Mood
		switch {
		case e.Err == nil:
			mood = MoodHappy
		case mood == MoodUnknown:
			mood = MoodErrory
		}
		return t.begin(mood, e.Err)
	case NameplateReleased:
		t.nameplateDone = true
		return t.maybeDone()
	case MailboxClosed:
		t.mailboxDone = true
		return t.maybeDone()
	case RendezvousStopped:
		t.rendezvousDone = true
		return t.maybeDone()
	}
	return nil
}

func (t *Terminator) begin(mood Mood, err error) Events {
	if t.state != terminatorIdle {
		return nil
	}
	t.state = terminatorClosing
	t.mood = mood
	t.err = err
	return Events{
		NameplateRelease{},
		MailboxClose{Mood: mood},
		RendezvousStop{},
	}
}

func (t *Terminator) maybeDone() Events {
	if t.state != terminatorClosing {
		return nil
	}
	if !t.nameplateDone || !t.mailboxDone || !t.rendezvousDone {
		return nil
	}
	t.state = terminatorDone
	return Events{ActGotClosed{Mood: t.mood, Err: t.err}}
}
