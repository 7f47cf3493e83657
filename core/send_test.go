package core

import "testing"

type fakeEncrypter struct{}

func (fakeEncrypter) Encrypt(side MySide, key Key, phase Phase, plaintext []byte) []byte {
	return []byte(string(side) + "/" + string(key) + "/" + string(phase) + "/" + string(plaintext))
}

func TestSendQueuesBeforeVerifiedKey(t *testing.T) {
	s := NewSend(MySide("me"), fakeEncrypter{})

	out := s.Process(SendQueue{Phase: Phase("app"), Plaintext: []byte("hello")})
	if len(out) != 0 {
		t.Fatalf("send before a verified key must queue, got %#v", out)
	}
	if s.QueueLen() != 1 {
		t.Fatalf("expected one queued send, got %d", s.QueueLen())
	}

	out = s.Process(KeyGotVerifiedKey{Key: Key("k")})
	if len(out) != 1 {
		t.Fatalf("verified key should flush the queue, got %#v", out)
	}
	add, ok := out[0].(AddMessage)
	if !ok || string(add.Body) != "me/k/app/hello" {
		t.Fatalf("unexpected flushed message %#v", out[0])
	}
	if s.QueueLen() != 0 {
		t.Fatalf("queue should be empty after flush, got %d", s.QueueLen())
	}
}

func TestSendDeliversImmediatelyOnceVerified(t *testing.T) {
	s := NewSend(MySide("me"), fakeEncrypter{})
	s.Process(KeyGotVerifiedKey{Key: Key("k")})

	out := s.Process(SendQueue{Phase: Phase("app"), Plaintext: []byte("hi")})
	if len(out) != 1 {
		t.Fatalf("expected immediate delivery, got %#v", out)
	}
	if _, ok := out[0].(AddMessage); !ok {
		t.Fatalf("expected AddMessage, got %#v", out[0])
	}
}

func TestSendDoubleVerifiedKeyPanics(t *testing.T) {
	s := NewSend(MySide("me"), fakeEncrypter{})
	s.Process(KeyGotVerifiedKey{Key: Key("k")})

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected a panic on a second GotVerifiedKey")
		}
	}()
	s.Process(KeyGotVerifiedKey{Key: Key("k2")})
}
