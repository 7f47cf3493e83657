package core

// KeyMachine runs the PAKE to derive the shared secret, then the verifier
// and the version phase key from it. See spec.md §4.8; the PAKE/HKDF backend
// is supplied via the Crypto interface (package pake).
//
// CPace is asymmetric, unlike the original protocol's SPAKE2: the leader
// (the side that allocated the nameplate) must see the follower's pake
// element before it can answer. So only the follower sends anything on
// KeyGotCode; the leader waits for KeyGotPake and answers and derives the
// key in the same step.
type KeyMachine struct {
	side     MySide
	crypto   Crypto
	versions []byte // our half of the version phase, sent unconditionally once K is known

	leader   bool
	password string
	session  PakeSession
	done     bool // GotPake already processed; re-derivation is a programming error
}

func NewKey(side MySide, crypto Crypto, versions []byte) *KeyMachine {
	return &KeyMachine{side: side, crypto: crypto, versions: versions}
}

func (k *KeyMachine) Process(ev Event) Events {
	switch e := ev.(type) {
	case KeyGotCode:
		return k.start(e.Code, e.Leader)
	case KeyGotPake:
		return k.finish(e.Body)
	}
	return nil
}

func (k *KeyMachine) start(code Code, leader bool) Events {
	k.leader = leader
	k.password = passwordFromCode(code)
	if k.leader {
		// Nothing to send yet; the leader answers once it sees the
		// follower's pake element.
		return nil
	}
	msgOut, session, err := k.crypto.StartPake(k.password)
	if err != nil {
		return Events{CloseErrory{Err: err}}
	}
	k.session = session
	return Events{AddMessage{Phase: PhasePake, Body: msgOut}}
}

func (k *KeyMachine) finish(peerMsg []byte) Events {
	if k.done {
		// The key is derived exactly once per spec.md §3; a second pake
		// message reaching Key is a programming error in Order, not a
		// protocol condition to recover from.
		panic("core: Key.Process: GotPake delivered twice")
	}
	k.done = true

	var out Events
	var sharedKey Key
	if k.leader {
		msgOut, key, err := k.crypto.ExchangePake(k.password, peerMsg)
		if err != nil {
			return Events{CloseErrory{Err: err}}
		}
		sharedKey = key
		out = append(out, AddMessage{Phase: PhasePake, Body: msgOut})
	} else {
		key, err := k.session.Finish(peerMsg)
		if err != nil {
			return Events{CloseErrory{Err: err}}
		}
		sharedKey = key
	}

	verifier := k.crypto.DeriveVerifier(sharedKey)

	// The version phase is sent optimistically right after K is derived, not
	// gated on confirmation; Receive is what decides, on decrypting the
	// peer's version message, whether K is actually shared (spec.md §4.8).
	versionBody := k.crypto.Encrypt(k.side, sharedKey, PhaseVersion, k.versions)

	out = append(out,
		KeyGotKey{Key: sharedKey},
		keyVerifierDerived{Key: sharedKey, Verifier: verifier},
		AddMessage{Phase: PhaseVersion, Body: versionBody},
	)
	return out
}

// keyVerifierDerived is an internal hop used by Boss to both notify the
// application (GotUnverifiedKey / GotVerifier) and kick off the version
// handshake, without Key needing to know about either.
type keyVerifierDerived struct {
	Key      Key
	Verifier Verifier
}

func (keyVerifierDerived) event() {}

// passwordFromCode extracts the word portion of a code (everything after the
// first "-") to use as the PAKE password input, per spec.md §4.8.
func passwordFromCode(code Code) string {
	s := string(code)
	for i := 0; i < len(s); i++ {
		if s[i] == '-' {
			return s[i+1:]
		}
	}
	return s
}
