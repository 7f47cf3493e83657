package core

// phaseEncrypter is the subset of the pake package's key schedule Send needs;
// expressed as an interface here so core stays free of any crypto import and
// fully testable with a fake.
type phaseEncrypter interface {
	Encrypt(side MySide, key Key, phase Phase, plaintext []byte) (ciphertext []byte)
}

type queuedSend struct {
	phase     Phase
	plaintext []byte
}

// Send encrypts outgoing application payloads once a verified key exists,
// queuing anything submitted earlier. Ported from src/core/send.rs.
type Send struct {
	side MySide
	enc  phaseEncrypter
	key  Key // nil until GotVerifiedKey
	got  bool
	queue []queuedSend
}

func NewSend(side MySide, enc phaseEncrypter) *Send {
	return &Send{side: side, enc: enc}
}

func (s *Send) Process(ev Event) Events {
	switch e := ev.(type) {
	case KeyGotVerifiedKey:
		if s.got {
			// Re-deriving/re-confirming the key twice is a programming
			// error per spec.md §3 "Lifecycles": the key is derived exactly
			// once.
			panic("core: Send.Process: GotVerifiedKey delivered twice")
		}
		s.got = true
		s.key = e.Key
		out := make(Events, 0, len(s.queue))
		for _, q := range s.queue {
			out = append(out, s.deliver(q.phase, q.plaintext))
		}
		s.queue = nil
		return out
	case SendQueue:
		if !s.got {
			s.queue = append(s.queue, queuedSend{phase: e.Phase, plaintext: e.Plaintext})
			return nil
		}
		return Events{s.deliver(e.Phase, e.Plaintext)}
	}
	return nil
}

func (s *Send) deliver(phase Phase, plaintext []byte) Event {
	ciphertext := s.enc.Encrypt(s.side, s.key, phase, plaintext)
	return AddMessage{Phase: phase, Body: ciphertext}
}

// QueueLen reports the number of application payloads waiting on the
// verified key, for the metrics snapshot described in SPEC_FULL.md §3.
func (s *Send) QueueLen() int { return len(s.queue) }
