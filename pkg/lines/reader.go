// Package lines turns a character stream into line tokens.
package lines

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/praetorian-inc/cobprep/pkg/source"
	"github.com/praetorian-inc/cobprep/pkg/types"
)

// DefaultEndings are tried in order at every character.
var DefaultEndings = []string{"\r\n", "\n", "\r"}

// Config controls line-ending detection.
type Config struct {
	// Endings are the recognized line endings, tried in order.
	// Empty means DefaultEndings.
	Endings []string

	// Sticky makes the first ending found the only one recognized for the
	// rest of the input.
	Sticky bool
}

// Validate checks the configuration.
func (c Config) Validate() error {
	for _, e := range c.Endings {
		if e == "" {
			return errors.New("line ending must not be empty")
		}
	}
	return nil
}

// Reader is a leaf source emitting one untagged token per line of content,
// followed by an END_OF_LINE token carrying the literal ending. An empty line
// yields only its ending; a final line without an ending yields only its
// content.
type Reader struct {
	source.Pushback

	in      *bufio.Reader
	closer  io.Closer
	endings [][]rune
	sticky  bool
	chosen  []rune

	pos     types.Position
	ahead   []rune
	atEOF   bool
	pending *types.Token
}

// NewReader creates a reader over r, naming positions after resource.
func NewReader(resource string, r io.Reader, cfg Config) (*Reader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	endings := cfg.Endings
	if len(endings) == 0 {
		endings = DefaultEndings
	}
	lr := &Reader{
		in:     bufio.NewReader(r),
		sticky: cfg.Sticky,
		pos:    types.StartOf(resource),
	}
	if c, ok := r.(io.Closer); ok {
		lr.closer = c
	}
	for _, e := range endings {
		lr.endings = append(lr.endings, []rune(e))
	}
	return lr, nil
}

// Open creates a reader over the named file.
func Open(path string, cfg Config) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	lr, err := NewReader(path, f, cfg)
	if err != nil {
		f.Close()
		return nil, err
	}
	return lr, nil
}

// Next returns the next line content or line ending token.
func (l *Reader) Next() (types.Data, error) {
	if d, ok := l.Pop(); ok {
		return d, nil
	}
	if l.pending != nil {
		eol := *l.pending
		l.pending = nil
		return eol, nil
	}

	start := l.pos
	var content []rune
	for {
		ending, err := l.matchEnding()
		if err != nil {
			return nil, err
		}
		if ending != nil {
			l.ahead = l.ahead[len(ending):]
			l.pos = start.OffsetBy(len(content))
			eol := types.NewToken(string(ending), l.pos, types.EndOfLine)
			l.pos = types.Position{
				Resource: l.pos.Resource,
				Offset:   l.pos.Offset + len(ending),
				Line:     l.pos.Line + 1,
				Column:   1,
			}
			if len(content) == 0 {
				return eol, nil
			}
			l.pending = &eol
			return types.NewToken(string(content), start, 0), nil
		}

		r, ok, err := l.readRune()
		if err != nil {
			return nil, err
		}
		if !ok {
			if len(content) == 0 {
				return nil, io.EOF
			}
			l.pos = start.OffsetBy(len(content))
			return types.NewToken(string(content), start, 0), nil
		}
		content = append(content, r)
	}
}

// Position returns the position of the next unread character.
func (l *Reader) Position() types.Position {
	return l.pos
}

// Close closes the underlying reader when it is closable.
func (l *Reader) Close() error {
	if l.closer == nil {
		return nil
	}
	err := l.closer.Close()
	l.closer = nil
	return err
}

// Unwrap returns nil.
func (l *Reader) Unwrap() source.Source {
	return nil
}

// Component answers for the reader itself.
func (l *Reader) Component(target any) bool {
	if p, ok := target.(**Reader); ok {
		*p = l
		return true
	}
	return false
}

// matchEnding returns the ending found at the current character, if any.
func (l *Reader) matchEnding() ([]rune, error) {
	candidates := l.endings
	if l.chosen != nil {
		candidates = [][]rune{l.chosen}
	}
	for _, e := range candidates {
		if err := l.fill(len(e)); err != nil {
			return nil, err
		}
		if hasPrefix(l.ahead, e) {
			if l.sticky {
				l.chosen = e
			}
			return e, nil
		}
	}
	return nil, nil
}

// readRune consumes one character.
func (l *Reader) readRune() (rune, bool, error) {
	if err := l.fill(1); err != nil {
		return 0, false, err
	}
	if len(l.ahead) == 0 {
		return 0, false, nil
	}
	r := l.ahead[0]
	l.ahead = l.ahead[1:]
	return r, true, nil
}

// fill buffers at least n characters unless input ends first.
func (l *Reader) fill(n int) error {
	for len(l.ahead) < n && !l.atEOF {
		r, _, err := l.in.ReadRune()
		if errors.Is(err, io.EOF) {
			l.atEOF = true
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", l.pos.Resource, err)
		}
		l.ahead = append(l.ahead, r)
	}
	return nil
}

func hasPrefix(s, prefix []rune) bool {
	if len(s) < len(prefix) {
		return false
	}
	for i, r := range prefix {
		if s[i] != r {
			return false
		}
	}
	return true
}
