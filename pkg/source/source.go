// Package source defines the pull protocol every preprocessing stage speaks.
//
// A Source yields one types.Data per Next call and io.EOF once it is
// exhausted. Items handed back with Unshift are returned again, most recent
// first, before anything else is read. Stages decorate exactly one inner
// Source and expose it through Unwrap. Each stage answers Component for
// itself or delegates to its inner source, so Find can locate a component
// anywhere in a chain.
package source

import (
	"errors"
	"io"

	"github.com/praetorian-inc/cobprep/pkg/types"
)

// Source is a pull endpoint with unlimited pushback.
type Source interface {
	// Next returns the next item, or io.EOF at end of input.
	Next() (types.Data, error)

	// Unshift pushes an item back; the next call to Next returns it.
	Unshift(d types.Data)

	// Close releases the source and everything it decorates.
	Close() error

	// Unwrap returns the decorated inner source, or nil for leaves.
	Unwrap() Source

	// Component reports whether this source, or one it decorates, is of
	// the type target points to and stores it there. target must be a
	// non-nil pointer, as with errors.As.
	Component(target any) bool
}

// Drainer is implemented by stages that hold look-ahead items which have
// been read from below but not yet handed downstream.
type Drainer interface {
	// Drain removes and returns the held items in stream order.
	Drain() []types.Data
}

// Find asks the chain starting at s for its first component of type T.
func Find[T any](s Source) (T, bool) {
	var c T
	if s == nil {
		return c, false
	}
	ok := s.Component(&c)
	return c, ok
}

// NextToken returns the next item if it is a token. Any other item is
// pushed back and ok is false.
func NextToken(s Source) (tok types.Token, ok bool, err error) {
	d, err := s.Next()
	if err != nil {
		return types.Token{}, false, err
	}
	if t, isTok := d.(types.Token); isTok {
		return t, true, nil
	}
	s.Unshift(d)
	return types.Token{}, false, nil
}

// UnshiftAll pushes items back so that they are returned in their original order.
func UnshiftAll[T types.Data](s Source, items []T) {
	for i := len(items) - 1; i >= 0; i-- {
		s.Unshift(items[i])
	}
}

// ReadAll drains s and returns every token it yields. Signals are dropped.
func ReadAll(s Source) ([]types.Token, error) {
	var out []types.Token
	for {
		d, err := s.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		if t, ok := d.(types.Token); ok {
			out = append(out, t)
		}
	}
}

// ReadData drains s and returns every item it yields.
func ReadData(s Source) ([]types.Data, error) {
	var out []types.Data
	for {
		d, err := s.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, d)
	}
}
