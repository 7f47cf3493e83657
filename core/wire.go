package core

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Wire frame shapes for the rendezvous server protocol, per spec.md §6. The
// engine itself serializes and deserializes these — the glue layer (package
// rendezvous) only pumps opaque text over a socket, since spec.md scopes
// "serialization of the server JSON wire format" to what the engine
// dispatches on.
//
// Every outbound frame carries a monotonic "id", servers echo it back in an
// "ack" frame; this is what backs the ack-gated retransmission resolved in
// SPEC_FULL.md §4.2.

type wireOut struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	AppID     string `json:"appid,omitempty"`
	Side      string `json:"side,omitempty"`
	Nameplate string `json:"nameplate,omitempty"`
	Mailbox   string `json:"mailbox,omitempty"`
	Mood      string `json:"mood,omitempty"`
	Phase     string `json:"phase,omitempty"`
	Body      string `json:"body,omitempty"` // hex-encoded
	Ping      string `json:"ping,omitempty"`
}

type wireIn struct {
	Type       string            `json:"type"`
	ID         string            `json:"id,omitempty"`
	Welcome    json.RawMessage   `json:"welcome,omitempty"`
	Nameplates []wireNameplate   `json:"nameplates,omitempty"`
	Nameplate  string            `json:"nameplate,omitempty"`
	Mailbox    string            `json:"mailbox,omitempty"`
	Side       string            `json:"side,omitempty"`
	Phase      string            `json:"phase,omitempty"`
	Body       string            `json:"body,omitempty"`
	Message    string            `json:"message,omitempty"` // error frame text
}

type wireNameplate struct {
	ID string `json:"id"`
}

// encodeFrame renders one outbound engine event as wire JSON text, tagging
// it with the dispatcher-assigned monotonic id (all types but TxAdd, which
// carries its own Mailbox-assigned id so retransmits keep the original).
// It returns "", false for events that are not rendezvous frames.
func encodeFrame(id string, ev Event) (string, bool) {
	var w wireOut
	switch e := ev.(type) {
	case TxBind:
		w = wireOut{Type: "bind", ID: id, AppID: string(e.AppID), Side: string(e.Side)}
	case TxList:
		w = wireOut{Type: "list", ID: id}
	case TxAllocate:
		w = wireOut{Type: "allocate", ID: id}
	case TxClaim:
		w = wireOut{Type: "claim", ID: id, Nameplate: string(e.Nameplate)}
	case TxRelease:
		w = wireOut{Type: "release", ID: id}
	case TxOpen:
		w = wireOut{Type: "open", ID: id, Mailbox: string(e.Mailbox)}
	case TxAdd:
		w = wireOut{Type: "add", ID: e.ID, Phase: string(e.Phase), Body: hex.EncodeToString(e.Body)}
	case TxClose:
		w = wireOut{Type: "close", ID: id, Mailbox: string(e.Mailbox), Mood: e.Mood.String()}
	case TxPing:
		w = wireOut{Type: "ping", ID: id, Ping: e.Payload}
	default:
		return "", false
	}
	buf, err := json.Marshal(w)
	if err != nil {
		return "", false
	}
	return string(buf), true
}

// decodeFrame parses inbound wire JSON text into the matching typed core
// event. The Mailbox machine, not this layer, decides whether a "message"
// frame is a loopback echo of our own side or a genuine peer message.
func decodeFrame(text string) (Event, error) {
	var w wireIn
	if err := json.Unmarshal([]byte(text), &w); err != nil {
		return nil, fmt.Errorf("core: decoding wire frame: %w", err)
	}
	switch w.Type {
	case "welcome":
		return RxWelcome{Welcome: w.Welcome}, nil
	case "nameplates":
		out := make([]Nameplate, len(w.Nameplates))
		for i, n := range w.Nameplates {
			out[i] = Nameplate(n.ID)
		}
		return RxNameplates{Nameplates: out}, nil
	case "allocated":
		return RxAllocated{Nameplate: Nameplate(w.Nameplate)}, nil
	case "claimed":
		return RxClaimed{Mailbox: Mailbox(w.Mailbox)}, nil
	case "released":
		return RxReleased{}, nil
	case "message":
		body, err := hex.DecodeString(w.Body)
		if err != nil {
			return nil, err
		}
		return RxMessage{Side: w.Side, Phase: Phase(w.Phase), Body: body}, nil
	case "closed":
		return RxClosed{}, nil
	case "ack":
		return RxAck{ID: w.ID}, nil
	case "pong":
		return nil, nil
	case "error":
		return RxError{Message: w.Message}, nil
	default:
		return nil, fmt.Errorf("core: unknown wire frame type %q", w.Type)
	}
}

