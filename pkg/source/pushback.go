package source

import "github.com/praetorian-inc/cobprep/pkg/types"

// Pushback is the unshift buffer shared by all stages. Embed it and call
// Pop before computing a new item.
type Pushback struct {
	items []types.Data
}

// Unshift pushes d back.
func (p *Pushback) Unshift(d types.Data) {
	p.items = append(p.items, d)
}

// Pop returns the most recently unshifted item.
func (p *Pushback) Pop() (types.Data, bool) {
	if len(p.items) == 0 {
		return nil, false
	}
	d := p.items[len(p.items)-1]
	p.items = p.items[:len(p.items)-1]
	return d, true
}

// Pending reports how many items are waiting.
func (p *Pushback) Pending() int {
	return len(p.items)
}

// DrainPushback removes every waiting item, in the order Pop would return them.
func (p *Pushback) DrainPushback() []types.Data {
	out := make([]types.Data, 0, len(p.items))
	for i := len(p.items) - 1; i >= 0; i-- {
		out = append(out, p.items[i])
	}
	p.items = nil
	return out
}

// Decorator is the base of a stage wrapping one inner source. It provides
// pushback, Close and Unwrap; stages implement Next.
type Decorator struct {
	Pushback
	Inner Source
}

// Close closes the inner source.
func (d *Decorator) Close() error {
	if d.Inner == nil {
		return nil
	}
	return d.Inner.Close()
}

// Unwrap returns the inner source.
func (d *Decorator) Unwrap() Source {
	return d.Inner
}

// Component delegates to the inner source. Stages that can be looked up
// override it.
func (d *Decorator) Component(target any) bool {
	if d.Inner == nil {
		return false
	}
	return d.Inner.Component(target)
}

// Drain removes the items held in the pushback buffer.
func (d *Decorator) Drain() []types.Data {
	return d.DrainPushback()
}
