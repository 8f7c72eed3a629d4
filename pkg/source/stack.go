package source

import (
	"errors"
	"io"

	"github.com/praetorian-inc/cobprep/pkg/types"
)

// Stack is a composite source. Next drains the top source; when it reports
// io.EOF the top is closed and popped and reading continues with the new
// top. An empty stack yields io.EOF.
//
// Pushing sources in reverse order of desired emission splices them into
// the stream without any recursion. Unshifted items go back into the
// current top source, so a source pushed later is still read first.
type Stack struct {
	sources []Source
}

// NewStack creates a stack holding base at the bottom.
func NewStack(base ...Source) *Stack {
	return &Stack{sources: base}
}

// Push places s on top; it is read before everything below it.
func (s *Stack) Push(src Source) {
	s.sources = append(s.sources, src)
}

// Depth returns the number of sources on the stack.
func (s *Stack) Depth() int {
	return len(s.sources)
}

// Unshift returns d to the current top source.
func (s *Stack) Unshift(d types.Data) {
	if len(s.sources) == 0 {
		s.Push(NewSlice(d))
		return
	}
	s.sources[len(s.sources)-1].Unshift(d)
}

// Next returns the next item of the top-most non-exhausted source.
func (s *Stack) Next() (types.Data, error) {
	for len(s.sources) > 0 {
		top := s.sources[len(s.sources)-1]
		d, err := top.Next()
		if err == nil {
			return d, nil
		}
		if !errors.Is(err, io.EOF) {
			return nil, err
		}
		s.sources = s.sources[:len(s.sources)-1]
		if cerr := top.Close(); cerr != nil {
			return nil, cerr
		}
	}
	return nil, io.EOF
}

// Close closes every remaining source.
func (s *Stack) Close() error {
	var errs []error
	for i := len(s.sources) - 1; i >= 0; i-- {
		if err := s.sources[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.sources = nil
	return errors.Join(errs...)
}

// Unwrap returns nil: a stack has no single inner source.
func (s *Stack) Unwrap() Source {
	return nil
}

// Component answers for the stack itself only.
func (s *Stack) Component(target any) bool {
	if p, ok := target.(**Stack); ok {
		*p = s
		return true
	}
	return false
}
