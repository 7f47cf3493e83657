package core

// CodeMachine routes the three ways a session can acquire a Code — generate
// one (sender), type one in directly, or drive the interactive Input helper
// — into the same KeyGotCode/NameplateSet pair the rest of the engine
// expects. See spec.md §4.11.
type CodeMachine struct {
	input *Input
}

func NewCode(input *Input) *CodeMachine { return &CodeMachine{input: input} }

func (c *CodeMachine) Process(ev APIEvent) Events {
	switch e := ev.(type) {
	case EvAllocateCode:
		return Events{AllocatorAllocate{NumWords: e.NumWords}}
	case EvSetCode:
		return codeFinalized(e.Code)
	case EvInputCode:
		c.input.Activate()
	}
	return nil
}
