package core

// receiveState mirrors spec.md §4.9's S0..S3 states.
type receiveState int

const (
	receiveNoKey receiveState = iota
	receiveUnverified
	receiveVerified
	receiveScared
)

type bufferedMsg struct {
	side  TheirSide
	phase Phase
	body  []byte
}

// Receive decrypts verified peer application messages. It is the sole
// authority on key confirmation: the first successful decryption of the
// peer's "version" phase is what makes the session verified. See spec.md
// §4.9.
type Receive struct {
	side   MySide
	crypto Crypto

	state receiveState
	key   Key
	buf   []bufferedMsg
}

func NewReceive(side MySide, crypto Crypto) *Receive {
	return &Receive{side: side, crypto: crypto}
}

func (r *Receive) Process(ev Event) Events {
	switch e := ev.(type) {
	case KeyGotKey:
		return r.gotKey(e.Key)
	case ReceiveGotMessage:
		return r.gotMessage(e.Side, e.Phase, e.Body)
	}
	return nil
}

func (r *Receive) gotKey(key Key) Events {
	r.key = key
	r.state = receiveUnverified
	buf := r.buf
	r.buf = nil
	var out Events
	for _, m := range buf {
		out = append(out, r.decrypt(m.side, m.phase, m.body)...)
	}
	return out
}

func (r *Receive) gotMessage(side TheirSide, phase Phase, body []byte) Events {
	if r.state == receiveNoKey {
		r.buf = append(r.buf, bufferedMsg{side: side, phase: phase, body: body})
		return nil
	}
	return r.decrypt(side, phase, body)
}

func (r *Receive) decrypt(side TheirSide, phase Phase, body []byte) Events {
	plaintext, err := r.crypto.Decrypt(string(side), r.key, phase, body)
	if err != nil {
		if phase == PhaseVersion || r.state == receiveVerified {
			// A decrypt failure on the verification message, or on anything
			// once verified, means the two sides derived different keys:
			// the code was wrong. This is fatal per spec.md §7.
			r.state = receiveScared
			return Events{CloseErrory{Err: err, Mood: MoodScared}}
		}
		// Pre-verification failures on non-version phases are dropped; the
		// version message is still outstanding and may yet succeed.
		return nil
	}

	if phase == PhaseVersion && r.state == receiveUnverified {
		r.state = receiveVerified
		// Receive is the sole authority on key confirmation (spec.md §4.10):
		// Send's queue only drains once the version phase has decrypted here.
		return Events{receiveGotVersions{Versions: plaintext}, KeyGotVerifiedKey{Key: r.key}}
	}
	if r.state != receiveVerified {
		// Shouldn't happen in practice (Order gates pake before anything
		// else, and version always precedes application phases), but if an
		// application phase somehow decrypts before verification we hold it
		// rather than deliver unverified content upward.
		r.buf = append(r.buf, bufferedMsg{side: side, phase: phase, body: body})
		return nil
	}
	return Events{receiveGotPlaintext{Message: plaintext}}
}

// receiveGotVersions and receiveGotPlaintext are internal hops Boss
// translates into ActGotVersions / ActGotMessage.
type receiveGotVersions struct{ Versions []byte }
type receiveGotPlaintext struct{ Message []byte }

func (receiveGotVersions) event()  {}
func (receiveGotPlaintext) event() {}
