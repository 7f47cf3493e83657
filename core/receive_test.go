package core

import "testing"

func TestReceiveBuffersBeforeKey(t *testing.T) {
	r := NewReceive(MySide("me"), fakeCrypto{})

	out := r.Process(ReceiveGotMessage{Side: "peer", Phase: PhaseVersion, Body: []byte("me|version|k|{}")})
	if len(out) != 0 {
		t.Fatalf("messages before a key must be buffered, got %#v", out)
	}
}

func TestReceiveVerifiesOnVersionPhase(t *testing.T) {
	r := NewReceive(MySide("me"), fakeCrypto{})

	ciphertext := fakeCrypto{}.Encrypt(MySide("peer"), Key("k"), PhaseVersion, []byte("{}"))
	r.Process(ReceiveGotMessage{Side: "peer", Phase: PhaseVersion, Body: ciphertext})

	out := r.Process(KeyGotKey{Key: Key("k")})

	versions, ok := findEvent[receiveGotVersions](out)
	if !ok || string(versions.Versions) != "{}" {
		t.Fatalf("expected decrypted versions on buffered replay, got %#v", out)
	}
	if _, ok := findEvent[KeyGotVerifiedKey](out); !ok {
		t.Fatalf("expected key to be confirmed, got %#v", out)
	}
}

func TestReceiveDecryptFailureOnVersionIsFatal(t *testing.T) {
	r := NewReceive(MySide("me"), fakeCrypto{})
	r.Process(KeyGotKey{Key: Key("k")})

	out := r.Process(ReceiveGotMessage{Side: "peer", Phase: PhaseVersion, Body: []byte("garbage")})
	if len(out) != 1 {
		t.Fatalf("expected a single fatal close event, got %#v", out)
	}
	closeErrory, ok := out[0].(CloseErrory)
	if !ok {
		t.Fatalf("expected CloseErrory on bad version decrypt, got %#v", out[0])
	}
	if closeErrory.Mood != MoodScared {
		t.Fatalf("expected mood scared on bad version decrypt, got %v", closeErrory.Mood)
	}
}

func TestReceiveDropsPreVerificationNonVersionFailures(t *testing.T) {
	r := NewReceive(MySide("me"), fakeCrypto{})
	r.Process(KeyGotKey{Key: Key("k")})

	out := r.Process(ReceiveGotMessage{Side: "peer", Phase: Phase("app"), Body: []byte("garbage")})
	if len(out) != 0 {
		t.Fatalf("pre-verification non-version decrypt failures should be dropped, got %#v", out)
	}
}

func TestReceiveDeliversPlaintextOnceVerified(t *testing.T) {
	r := NewReceive(MySide("me"), fakeCrypto{})
	r.Process(KeyGotKey{Key: Key("k")})
	versionCT := fakeCrypto{}.Encrypt(MySide("peer"), Key("k"), PhaseVersion, []byte("{}"))
	r.Process(ReceiveGotMessage{Side: "peer", Phase: PhaseVersion, Body: versionCT})

	appCT := fakeCrypto{}.Encrypt(MySide("peer"), Key("k"), Phase("app"), []byte("payload"))
	out := r.Process(ReceiveGotMessage{Side: "peer", Phase: Phase("app"), Body: appCT})

	plain, ok := findEvent[receiveGotPlaintext](out)
	if !ok || string(plain.Message) != "payload" {
		t.Fatalf("expected decrypted application payload, got %#v", out)
	}
}
