package core

import "testing"

func TestEncodeFrameOutbound(t *testing.T) {
	cases := []struct {
		name string
		ev   Event
		want string
	}{
		{"bind", TxBind{AppID: "app", Side: "aaaaa"}, `{"type":"bind","id":"1","appid":"app","side":"aaaaa"}`},
		{"list", TxList{}, `{"type":"list","id":"1"}`},
		{"allocate", TxAllocate{}, `{"type":"allocate","id":"1"}`},
		{"claim", TxClaim{Nameplate: "12"}, `{"type":"claim","id":"1","nameplate":"12"}`},
		{"release", TxRelease{}, `{"type":"release","id":"1"}`},
		{"open", TxOpen{Mailbox: "12"}, `{"type":"open","id":"1","mailbox":"12"}`},
		{"close", TxClose{Mailbox: "12", Mood: MoodHappy}, `{"type":"close","id":"1","mailbox":"12","mood":"happy"}`},
		{"ping", TxPing{Payload: "1"}, `{"type":"ping","id":"1","ping":"1"}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := encodeFrame("1", c.ev)
			if !ok {
				t.Fatalf("expected a wire frame for %#v", c.ev)
			}
			if got != c.want {
				t.Fatalf("got %s, want %s", got, c.want)
			}
		})
	}
}

func TestEncodeFrameAddUsesItsOwnID(t *testing.T) {
	got, ok := encodeFrame("should-be-ignored", TxAdd{ID: "7", Phase: PhasePake, Body: []byte("hi")})
	if !ok {
		t.Fatal("expected a wire frame")
	}
	want := `{"type":"add","id":"7","phase":"pake","body":"6869"}`
	if got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestEncodeFrameRejectsNonWireEvents(t *testing.T) {
	if _, ok := encodeFrame("1", KeyGotKey{Key: Key("k")}); ok {
		t.Fatal("expected encodeFrame to reject a non-wire event")
	}
}

func TestDecodeFrameInbound(t *testing.T) {
	ev, err := decodeFrame(`{"type":"allocated","nameplate":"12"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	alloc, ok := ev.(RxAllocated)
	if !ok || alloc.Nameplate != Nameplate("12") {
		t.Fatalf("unexpected event %#v", ev)
	}

	ev, err = decodeFrame(`{"type":"message","side":"bbbbb","phase":"pake","body":"6869"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	msg, ok := ev.(RxMessage)
	if !ok || msg.Side != "bbbbb" || msg.Phase != PhasePake || string(msg.Body) != "hi" {
		t.Fatalf("unexpected event %#v", ev)
	}

	ev, err = decodeFrame(`{"type":"nameplates","nameplates":[{"id":"12"},{"id":"34"}]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	nps, ok := ev.(RxNameplates)
	if !ok || len(nps.Nameplates) != 2 || nps.Nameplates[0] != Nameplate("12") {
		t.Fatalf("unexpected event %#v", ev)
	}
}

func TestDecodeFrameUnknownType(t *testing.T) {
	if _, err := decodeFrame(`{"type":"mystery"}`); err == nil {
		t.Fatal("expected an error for an unknown frame type")
	}
}

func TestDecodeFramePongIsIgnored(t *testing.T) {
	ev, err := decodeFrame(`{"type":"pong"}`)
	if err != nil || ev != nil {
		t.Fatalf("expected a nil, nil no-op for pong, got %#v, %v", ev, err)
	}
}
