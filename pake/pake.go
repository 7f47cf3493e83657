// Package pake implements core.Crypto over CPace, HKDF-SHA256 and
// NaCl secretbox: the concrete PAKE and per-message AEAD backend for the
// wormhole engine. Ported from the key exchange in dial.go and
// wormhole/dial.go, generalized from a fixed WebRTC offer/answer exchange to
// the engine's arbitrary phase/plaintext shape.
package pake

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"

	"filippo.io/cpace"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"

	"github.com/wormhole-core/wormhole/core"
)

// appInfo scopes the CPace exchange to this protocol; cpace.NewContextInfo's
// three arguments are the two peer identities (unknown ahead of time here,
// same as the teacher's comment on the Unknown Key-Share Attack) and an
// optional extra info blob.
var appInfo = cpace.NewContextInfo("", "", nil)

// Crypto is the pake package's core.Crypto implementation. It is stateless;
// every method is safe to call from multiple sessions concurrently.
type Crypto struct{}

// New returns the default Crypto backend.
func New() *Crypto { return &Crypto{} }

// followerState is the subset of *cpace.State this package depends on,
// named locally so callers never need to import filippo.io/cpace directly.
type followerState interface {
	Finish(peerMsg []byte) ([]byte, error)
}

type followerSession struct {
	state followerState
}

func (f *followerSession) Finish(peerMsg []byte) (core.Key, error) {
	mk, err := f.state.Finish(peerMsg)
	if err != nil {
		return nil, err
	}
	return deriveKey(mk)
}

// StartPake begins the follower side of the exchange: it speaks first.
func (Crypto) StartPake(password string) (msgOut []byte, session core.PakeSession, err error) {
	msgA, st, err := cpace.Start(password, appInfo)
	if err != nil {
		return nil, nil, err
	}
	return msgA, &followerSession{state: st}, nil
}

// ExchangePake answers the leader side: it has already seen the follower's
// message and produces its own reply and the shared key in one step.
func (Crypto) ExchangePake(password string, peerMsg []byte) (msgOut []byte, key core.Key, err error) {
	msgB, mk, err := cpace.Exchange(password, appInfo, peerMsg)
	if err != nil {
		return nil, nil, err
	}
	key, err = deriveKey(mk)
	if err != nil {
		return nil, nil, err
	}
	return msgB, key, nil
}

// deriveKey stretches CPace's raw group element into a 32-byte key via
// HKDF-SHA256 with no salt or info, exactly as the teacher's dial.go does
// for the WebRTC offer/answer box key.
func deriveKey(mk []byte) (core.Key, error) {
	out := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, mk, nil, nil), out); err != nil {
		return nil, err
	}
	return core.Key(out), nil
}

// DeriveVerifier derives a second, independent 32 bytes from key via a
// distinct HKDF info string, so it can be displayed without revealing
// anything about the phase keys.
func (Crypto) DeriveVerifier(key core.Key) core.Verifier {
	out := make([]byte, 32)
	// HKDF only fails if asked for more output than the hash permits;
	// 32 bytes from SHA-256 never does.
	io.ReadFull(hkdf.New(sha256.New, key, nil, []byte("wormhole:verifier")), out)
	return core.Verifier(out)
}

// Encrypt seals plaintext under a key derived from (key, side, phase),
// secretbox-style: a fresh random 24-byte nonce prefixed to the ciphertext.
func (Crypto) Encrypt(side core.MySide, key core.Key, phase core.Phase, plaintext []byte) []byte {
	phaseKey := derivePhaseKey(key, string(side), phase)
	var nonce [24]byte
	// crypto/rand.Read does not fail on supported platforms.
	rand.Read(nonce[:])
	return secretbox.Seal(nonce[:], plaintext, &nonce, &phaseKey)
}

// Decrypt opens ciphertext sealed by the peer's Encrypt using its own side
// string as the derivation input (side here is whichever side produced the
// message, i.e. TheirSide's string form on the receiving end).
func (Crypto) Decrypt(side string, key core.Key, phase core.Phase, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < 24 {
		return nil, errors.New("pake: ciphertext too short")
	}
	phaseKey := derivePhaseKey(key, side, phase)
	var nonce [24]byte
	copy(nonce[:], ciphertext[:24])
	plaintext, ok := secretbox.Open(nil, ciphertext[24:], &nonce, &phaseKey)
	if !ok {
		return nil, errors.New("pake: message authentication failed")
	}
	return plaintext, nil
}

// derivePhaseKey HKDFs a distinct 32-byte secretbox key per (side, phase),
// so the "pake" transcript, the "version" handshake, and every application
// phase are sealed under independent keys even though they share K.
func derivePhaseKey(key core.Key, side string, phase core.Phase) [32]byte {
	sum := sha256.Sum256([]byte(side + string(phase)))
	info := append([]byte("wormhole:phase:"), sum[:]...)
	var out [32]byte
	io.ReadFull(hkdf.New(sha256.New, key, nil, info), out[:])
	return out
}
