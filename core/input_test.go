package core

import "testing"

type stubMatcher struct{ hint string }

func (s stubMatcher) Match(prefix string) string { return s.hint }

func TestInputMatchWordWithNoMatcherReturnsEmpty(t *testing.T) {
	in := NewInput()
	if hint := in.MatchWord("ac"); hint != "" {
		t.Fatalf("expected no hint without a matcher, got %q", hint)
	}
}

func TestInputMatchWordDelegatesToMatcher(t *testing.T) {
	in := NewInput()
	in.matcher = stubMatcher{hint: "acorn"}
	if hint := in.MatchWord("ac"); hint != "acorn" {
		t.Fatalf("got %q, want acorn", hint)
	}
}

func TestInputChooseNameplateThenWordsFinalizesCode(t *testing.T) {
	in := NewInput()
	in.Activate()

	if _, err := in.ChooseWords("foo"); err != ErrInputMustChooseNameplateFirst {
		t.Fatalf("expected ErrInputMustChooseNameplateFirst, got %v", err)
	}

	if _, err := in.ChooseNameplate("12"); err != nil {
		t.Fatalf("ChooseNameplate: %v", err)
	}
	if _, err := in.ChooseNameplate("34"); err != ErrInputAlreadyChoseNameplate {
		t.Fatalf("expected ErrInputAlreadyChoseNameplate, got %v", err)
	}

	events, err := in.ChooseWords("correct-horse")
	if err != nil {
		t.Fatalf("ChooseWords: %v", err)
	}
	nameplateSet, ok := findEvent[NameplateSet](events)
	if !ok || nameplateSet.Nameplate != Nameplate("12") {
		t.Fatalf("expected NameplateSet{12}, got %#v", events)
	}
	gotCode, ok := findEvent[KeyGotCode](events)
	if !ok || gotCode.Code != Code("12-correct-horse") || gotCode.Leader {
		t.Fatalf("expected a non-leader KeyGotCode for 12-correct-horse, got %#v", events)
	}

	if _, err := in.ChooseWords("again"); err != ErrInputAlreadyChoseWords {
		t.Fatalf("expected ErrInputAlreadyChoseWords, got %v", err)
	}
}

func TestInputRefreshNameplatesRequiresActivation(t *testing.T) {
	in := NewInput()
	if _, err := in.RefreshNameplates(); err != ErrInputInactive {
		t.Fatalf("expected ErrInputInactive, got %v", err)
	}

	in.Activate()
	events, err := in.RefreshNameplates()
	if err != nil {
		t.Fatalf("RefreshNameplates: %v", err)
	}
	if _, ok := findEvent[ListerWantRefresh](events); !ok {
		t.Fatalf("expected ListerWantRefresh, got %#v", events)
	}
}

func TestInputNameplatesReflectsLastSetNameplates(t *testing.T) {
	in := NewInput()
	if len(in.Nameplates()) != 0 {
		t.Fatalf("expected no nameplates before any are set")
	}
	in.setNameplates([]Nameplate{"12", "34"})
	got := in.Nameplates()
	if len(got) != 2 || got[0] != "12" || got[1] != "34" {
		t.Fatalf("unexpected nameplates %#v", got)
	}
}

func TestCodeMachineAllocateAndSetCode(t *testing.T) {
	c := NewCode(NewInput())

	events := c.Process(EvAllocateCode{NumWords: 2})
	if _, ok := findEvent[AllocatorAllocate](events); !ok {
		t.Fatalf("expected AllocatorAllocate, got %#v", events)
	}

	events = c.Process(EvSetCode{Code: "12-correct-horse"})
	gotCode, ok := findEvent[KeyGotCode](events)
	if !ok || gotCode.Code != Code("12-correct-horse") {
		t.Fatalf("expected KeyGotCode, got %#v", events)
	}
}

func TestCodeMachineInputCodeActivatesInput(t *testing.T) {
	in := NewInput()
	c := NewCode(in)

	c.Process(EvInputCode{})
	if _, err := in.ChooseNameplate("12"); err != nil {
		t.Fatalf("expected Input to be active after EvInputCode, got %v", err)
	}
}
