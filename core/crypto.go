package core

// PakeSession is one side's in-progress PAKE exchange, returned by
// Crypto.StartPake. Finish consumes the peer's message and yields the raw
// shared secret.
type PakeSession interface {
	Finish(peerMsg []byte) (Key, error)
}

// Crypto bundles everything the Key, Send, and Receive machines need from
// the PAKE/AEAD layer, which spec.md §1 scopes out of the engine as "treated
// as pure functions". Package pake implements this over CPace + HKDF +
// secretbox; core never imports a crypto package directly, which keeps the
// state machines testable with a fake.
//
// CPace, unlike the original protocol's SPAKE2, is not symmetric: one side
// must see the other's message before it can answer. StartPake/PakeSession
// is the side that speaks first (the follower); ExchangePake is the side
// that waits and answers in one step (the leader). See SPEC_FULL.md §4.8.
type Crypto interface {
	// StartPake begins a PAKE exchange for password, returning this side's
	// outbound message and a session to finish it with.
	StartPake(password string) (msgOut []byte, session PakeSession, err error)
	// ExchangePake answers a peer's pake message, producing this side's
	// reply and the shared key in a single step.
	ExchangePake(password string, peerMsg []byte) (msgOut []byte, key Key, err error)
	// DeriveVerifier produces the human-comparable fingerprint of key.
	DeriveVerifier(key Key) Verifier
	// Encrypt seals plaintext under the phase key derived from (side, key, phase).
	Encrypt(side MySide, key Key, phase Phase, plaintext []byte) []byte
	// Decrypt opens ciphertext under the phase key derived from (side, key, phase).
	// side here is the side that produced ciphertext, i.e. TheirSide on the
	// receiving end, re-typed to MySide's underlying representation since the
	// derivation only cares about the byte string.
	Decrypt(side string, key Key, phase Phase, ciphertext []byte) ([]byte, error)
}
