package source

import (
	"io"

	"github.com/praetorian-inc/cobprep/pkg/types"
)

// Slice is a leaf source over a fixed list of items.
type Slice struct {
	Pushback
	items []types.Data
}

// NewSlice creates a source yielding items in order.
func NewSlice(items ...types.Data) *Slice {
	return &Slice{items: items}
}

// FromTokens creates a source yielding tokens in order.
func FromTokens(tokens []types.Token) *Slice {
	items := make([]types.Data, len(tokens))
	for i, t := range tokens {
		items[i] = t
	}
	return &Slice{items: items}
}

// Next returns the next item.
func (s *Slice) Next() (types.Data, error) {
	if d, ok := s.Pop(); ok {
		return d, nil
	}
	if len(s.items) == 0 {
		return nil, io.EOF
	}
	d := s.items[0]
	s.items = s.items[1:]
	return d, nil
}

// Close drops the remaining items.
func (s *Slice) Close() error {
	s.items = nil
	return nil
}

// Unwrap returns nil.
func (s *Slice) Unwrap() Source {
	return nil
}

// Component answers for the slice itself.
func (s *Slice) Component(target any) bool {
	if p, ok := target.(**Slice); ok {
		*p = s
		return true
	}
	return false
}
