package types

import "fmt"

// Data is an item flowing through a source pipeline: a Token or a Signal.
type Data interface {
	isData()
}

// SignalKind says whether a signal opens or closes a replacement scope.
type SignalKind int

const (
	Activate SignalKind = iota
	Deactivate
)

// Signal is a control item telling the replacement engine to change its
// rule-set stack. Activate pushes Phrases (Also marks REPLACE ALSO);
// Deactivate pops the most recent rule-set when Last is set and clears the
// whole stack otherwise.
type Signal struct {
	Kind    SignalKind
	Phrases []ReplacingPhrase
	Also    bool
	Last    bool
	At      Position
}

func (Signal) isData() {}

// String renders the signal for debugging.
func (s Signal) String() string {
	switch s.Kind {
	case Activate:
		return fmt.Sprintf("activate(%d phrases, also=%t)", len(s.Phrases), s.Also)
	default:
		return fmt.Sprintf("deactivate(last=%t)", s.Last)
	}
}
