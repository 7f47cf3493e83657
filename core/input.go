package core

import "errors"

// These errors report misuse of the Input helper's call ordering. Per
// spec.md §7 this is an API-misuse class error: it is returned synchronously
// to the caller and the session continues.
var (
	ErrInputInactive                = errors.New("wormhole: input helper is not active; call InputCode first")
	ErrInputMustChooseNameplateFirst = errors.New("wormhole: must choose a nameplate before choosing words")
	ErrInputAlreadyChoseNameplate    = errors.New("wormhole: nameplate already chosen, cannot go back")
	ErrInputAlreadyChoseWords        = errors.New("wormhole: words already chosen")
)

type inputState int

const (
	inputInactive inputState = iota
	inputActive
	inputNameplateChosen
	inputWordsChosen
)

// Input is the interactive nameplate/word completion helper described in
// spec.md §4.11. Its methods are called directly and synchronously by Boss
// (not routed through the event FIFO), since API misuse is reported inline
// rather than asynchronously.
type Input struct {
	state      inputState
	nameplate  string
	nameplates []Nameplate // last list seen from RefreshNameplates, for completion UIs
	matcher    WordMatcher // nil unless the CodeGenerator passed to NewBoss also implements it
}

func NewInput() *Input { return &Input{} }

// Activate is invoked on EvInputCode.
func (in *Input) Activate() {
	if in.state == inputInactive {
		in.state = inputActive
	}
}

// setNameplates records the latest list pushed by Lister, for Nameplates.
func (in *Input) setNameplates(list []Nameplate) { in.nameplates = list }

// Nameplates returns the nameplate list as of the last RefreshNameplates
// round trip, for an interactive completion UI.
func (in *Input) Nameplates() []Nameplate { return in.nameplates }

// MatchWord returns a completion hint for a partially typed word, backed by
// the same word list RandomWords draws from. It returns "" once the chosen
// CodeGenerator has no WordMatcher to offer, or prefix matches nothing.
func (in *Input) MatchWord(prefix string) string {
	if in.matcher == nil {
		return ""
	}
	return in.matcher.Match(prefix)
}

// RefreshNameplates asks Lister to re-fetch the nameplate list.
func (in *Input) RefreshNameplates() (Events, error) {
	if in.state == inputInactive {
		return nil, ErrInputInactive
	}
	return Events{ListerWantRefresh{}}, nil
}

// ChooseNameplate locks in the nameplate half of the code.
func (in *Input) ChooseNameplate(nameplate string) (Events, error) {
	switch in.state {
	case inputInactive:
		return nil, ErrInputInactive
	case inputNameplateChosen, inputWordsChosen:
		return nil, ErrInputAlreadyChoseNameplate
	}
	in.nameplate = nameplate
	in.state = inputNameplateChosen
	return nil, nil
}

// ChooseWords finalizes the code as "<nameplate>-<words>" and feeds it
// directly to Nameplate and Key, exactly like SetCode.
func (in *Input) ChooseWords(words string) (Events, error) {
	switch in.state {
	case inputInactive:
		return nil, ErrInputInactive
	case inputActive:
		return nil, ErrInputMustChooseNameplateFirst
	case inputWordsChosen:
		return nil, ErrInputAlreadyChoseWords
	}
	in.state = inputWordsChosen
	code := Code(in.nameplate + "-" + words)
	return codeFinalized(code), nil
}

// codeFinalized is the common event triple for both SetCode and
// Input.ChooseWords: the Nameplate and Key machines learn the code, and the
// application is told.
func codeFinalized(code Code) Events {
	nameplate := Nameplate(passwordlessPrefix(code))
	return Events{
		NameplateSet{Nameplate: nameplate},
		// Leader is always false here: this path never goes through
		// Allocator, so the nameplate in code was allocated by the peer.
		KeyGotCode{Code: code, Leader: false},
		allocatorGotCode{Code: code},
	}
}

func passwordlessPrefix(code Code) string {
	s := string(code)
	for i := 0; i < len(s); i++ {
		if s[i] == '-' {
			return s[:i]
		}
	}
	return s
}
