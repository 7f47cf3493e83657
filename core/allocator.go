package core

// CodeGenerator produces the random word portion of a code, on the sender
// side of AllocateCode. Package wordlist implements this; core stays free of
// any concrete wordlist so the machine can be tested with a fake.
type CodeGenerator interface {
	// RandomWords returns n hyphen-ready words of fresh randomness.
	RandomWords(n int) ([]string, error)
}

// WordMatcher offers prefix-completion hints over the same word list a
// CodeGenerator draws from, for Input's interactive completion UI. A
// CodeGenerator that also implements this is wired into Input automatically
// by NewBoss; core stays free of any concrete wordlist either way.
type WordMatcher interface {
	// Match returns the first word with the given prefix, or "" if none.
	Match(prefix string) string
}

type allocatorState int

const (
	allocatorIdle allocatorState = iota
	allocatorConnectedIdle
	allocatorWantingDisconnected
	allocatorWantingConnected
	allocatorAllocated
)

// Allocator requests a nameplate from the server for the sender role, then
// combines it with freshly generated words to form the final Code. See
// spec.md §4.4.
type Allocator struct {
	state    allocatorState
	gen      CodeGenerator
	numWords int
}

func NewAllocator(gen CodeGenerator) *Allocator {
	return &Allocator{gen: gen}
}

func (a *Allocator) Process(ev Event) Events {
	switch e := ev.(type) {
	case RendezvousConnected:
		switch a.state {
		case allocatorIdle:
			a.state = allocatorConnectedIdle
		case allocatorWantingDisconnected:
			a.state = allocatorWantingConnected
			return Events{TxAllocate{}}
		}
		return nil
	case RendezvousLost:
		switch a.state {
		case allocatorConnectedIdle:
			a.state = allocatorIdle
		case allocatorWantingConnected:
			a.state = allocatorWantingDisconnected
		}
		return nil
	case AllocatorAllocate:
		a.numWords = e.NumWords
		switch a.state {
		case allocatorIdle:
			a.state = allocatorWantingDisconnected
		case allocatorConnectedIdle:
			a.state = allocatorWantingConnected
			return Events{TxAllocate{}}
		}
		return nil
	case RxAllocated:
		if a.state != allocatorWantingConnected && a.state != allocatorWantingDisconnected {
			return nil
		}
		a.state = allocatorAllocated
		words, err := a.gen.RandomWords(a.numWords)
		if err != nil {
			return Events{CloseErrory{Err: err}}
		}
		code := Code(string(e.Nameplate))
		for _, w := range words {
			code += Code("-" + w)
		}
		return Events{
			NameplateSet{Nameplate: e.Nameplate},
			KeyGotCode{Code: code, Leader: true},
			allocatorGotCode{Code: code},
		}
	}
	return nil
}

// allocatorGotCode is an internal hop Boss translates into ActGotCode.
type allocatorGotCode struct{ Code Code }

func (allocatorGotCode) event() {}
