// Package directive applies compiler directives that change how the
// following lines are laid out.
package directive

import (
	"errors"
	"io"

	"github.com/praetorian-inc/cobprep/pkg/diag"
	"github.com/praetorian-inc/cobprep/pkg/grammar"
	"github.com/praetorian-inc/cobprep/pkg/source"
	"github.com/praetorian-inc/cobprep/pkg/types"
)

// Matcher recognizes compiler directive lines.
type Matcher interface {
	AcceptsDirective(tokens []types.Token) (*grammar.Tree, bool)
}

// Scanner tags every raw line with the current source format and marks
// directive lines. A source format directive takes effect from its own
// end-of-line token onwards and only within the file it appears in: a
// copybook starts in the format of the text that includes it, and the
// including text resumes in its own format once the copybook ends.
type Scanner struct {
	source.Decorator
	matcher   Matcher
	logger    diag.Logger
	frames    []frame // innermost last; frames[0] is the main source
	directive bool    // the line being passed through is a directive
}

// frame is the format state of one open file, keyed by the replacement
// marker its lines carry (nil for the main source).
type frame struct {
	key    *types.Replaced
	format types.SourceFormat
}

// NewScanner creates a scanner starting in the given format.
func NewScanner(inner source.Source, matcher Matcher, format types.SourceFormat, logger diag.Logger) *Scanner {
	return &Scanner{
		Decorator: source.Decorator{Inner: inner},
		matcher:   matcher,
		logger:    diag.OrNoop(logger),
		frames:    []frame{{format: format}},
	}
}

// Format returns the source format of the innermost open file.
func (s *Scanner) Format() types.SourceFormat {
	return s.top().format
}

// Component answers for the scanner and delegates anything else.
func (s *Scanner) Component(target any) bool {
	if p, ok := target.(**Scanner); ok {
		*p = s
		return true
	}
	return s.Decorator.Component(target)
}

func (s *Scanner) top() *frame {
	return &s.frames[len(s.frames)-1]
}

// enter selects the frame for a line marked with r, closing copybooks that
// have ended and opening one for a newly included copybook.
func (s *Scanner) enter(r *types.Replaced) {
	if s.top().key == r {
		return
	}
	for i := len(s.frames) - 1; i > 0; i-- {
		if s.frames[i].key == r {
			s.frames = s.frames[:i+1]
			return
		}
	}
	var outer *types.Replaced
	if r != nil {
		outer = r.Outer
	}
	for len(s.frames) > 1 && s.top().key != outer {
		s.frames = s.frames[:len(s.frames)-1]
	}
	if r == nil {
		return
	}
	s.frames = append(s.frames, frame{key: r, format: s.top().format})
}

// Next returns the next line token.
func (s *Scanner) Next() (types.Data, error) {
	if d, ok := s.Pop(); ok {
		return d, nil
	}
	d, err := s.Inner.Next()
	if err != nil {
		return nil, err
	}
	tok, ok := d.(types.Token)
	if !ok || tok.Tags.Any(types.FormatTags) {
		return d, nil
	}
	s.enter(tok.ReplacedBy)

	if tok.Is(types.EndOfLine) {
		tags := s.Format().Tag()
		if s.directive {
			tags |= types.CompilerDirective
			s.directive = false
		}
		return tok.Retag(types.FormatTags, tags), nil
	}

	line := []types.Token{tok}
	nd, err := s.Inner.Next()
	switch {
	case errors.Is(err, io.EOF):
	case err != nil:
		return nil, err
	default:
		if eol, ok := nd.(types.Token); ok && eol.Is(types.EndOfLine) {
			line = append(line, eol)
		}
		s.Inner.Unshift(nd)
	}

	tree, ok := s.matcher.AcceptsDirective(line)
	if !ok {
		return tok.Retag(types.FormatTags, s.Format().Tag()), nil
	}

	out := tok.Retag(types.FormatTags, s.Format().Tag()|types.CompilerDirective)
	s.directive = true
	s.apply(tree, tok)
	return out, nil
}

func (s *Scanner) apply(tree *grammar.Tree, tok types.Token) {
	switch types.DirectiveKind(tree.Value("kind")) {
	case types.DirectiveSourceFormat:
		format, err := types.ParseSourceFormat(tree.Value("format"))
		if err != nil {
			s.logger.Log(diag.At(diag.Warning, diag.DirectiveUnknown, tok, "%v", err))
			return
		}
		s.top().format = format
	case types.DirectiveUnknown:
		s.logger.Log(diag.At(diag.Info, diag.DirectiveUnknown, tok, "directive %q has no effect", tok.Text))
	}
}
