package lexer

import (
	"errors"
	"io"

	"github.com/praetorian-inc/cobprep/pkg/source"
	"github.com/praetorian-inc/cobprep/pkg/types"
)

// InlineComments retags program text from a "*>" marker to the end of the
// line as comment.
type InlineComments struct {
	source.Decorator
	active bool
}

// NewInlineComments creates the marker over inner.
func NewInlineComments(inner source.Source) *InlineComments {
	return &InlineComments{Decorator: source.Decorator{Inner: inner}}
}

// Next returns the next token.
func (c *InlineComments) Next() (types.Data, error) {
	if d, ok := c.Pop(); ok {
		return d, nil
	}
	d, err := c.Inner.Next()
	if err != nil {
		return nil, err
	}
	tok, ok := d.(types.Token)
	if !ok || tok.IsSkipped() {
		return d, nil
	}
	if tok.Is(types.EndOfLine) {
		c.active = false
		return tok, nil
	}
	if !tok.Is(types.ProgramTextArea) {
		return tok, nil
	}
	if c.active {
		return toComment(tok), nil
	}
	if tok.Text != "*" {
		return tok, nil
	}

	nd, err := c.Inner.Next()
	if errors.Is(err, io.EOF) {
		return tok, nil
	}
	if err != nil {
		return nil, err
	}
	next, ok := nd.(types.Token)
	if ok && next.Text == ">" && next.Is(types.ProgramTextArea) && !next.IsSkipped() {
		c.active = true
		c.Unshift(toComment(next))
		return toComment(tok), nil
	}
	c.Inner.Unshift(nd)
	return tok, nil
}

func toComment(tok types.Token) types.Token {
	return tok.Retag(types.ProgramTextArea, types.Comment)
}
