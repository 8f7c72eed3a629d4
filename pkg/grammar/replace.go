package grammar

import (
	"fmt"

	"github.com/praetorian-inc/cobprep/pkg/types"
)

// ParseReplace parses one of
//
//	REPLACE OFF [LAST] .
//	REPLACE LAST OFF .
//	REPLACE [ALSO] phrase... .
//
// The tree has children off, last, also and instruction.
func ParseReplace(tokens []types.Token) (*Tree, error) {
	items, err := scan(tokens)
	if err != nil {
		return nil, err
	}
	p := &parser{items: items}
	tree := &Tree{Name: "replace", Tokens: tokens}

	if err := p.expectWord("REPLACE"); err != nil {
		return nil, err
	}

	if it, ok := p.acceptWord("LAST"); ok {
		tree.add(&Tree{Name: "last", Text: it.raw, Tokens: it.tokens})
		off, ok := p.acceptWord("OFF")
		if !ok {
			return nil, p.errorf("expected OFF")
		}
		tree.add(&Tree{Name: "off", Text: off.raw, Tokens: off.tokens})
		return tree, p.expectEnd()
	}

	if it, ok := p.acceptWord("OFF"); ok {
		tree.add(&Tree{Name: "off", Text: it.raw, Tokens: it.tokens})
		if last, ok := p.acceptWord("LAST"); ok {
			tree.add(&Tree{Name: "last", Text: last.raw, Tokens: last.tokens})
		}
		return tree, p.expectEnd()
	}

	if it, ok := p.acceptWord("ALSO"); ok {
		tree.add(&Tree{Name: "also", Text: it.raw, Tokens: it.tokens})
	}
	for {
		if end, ok := p.peek(); !ok || end.kind == itemPunct && end.text == "." {
			break
		}
		phrase, err := p.phrase()
		if err != nil {
			return nil, err
		}
		tree.add(phrase)
	}
	if !tree.Has("instruction") {
		return nil, fmt.Errorf("REPLACE requires OFF or at least one phrase")
	}
	if err := p.expectEnd(); err != nil {
		return nil, err
	}
	return tree, nil
}

// AcceptsReplaceStatement reports whether tokens form a REPLACE statement.
func AcceptsReplaceStatement(tokens []types.Token) (*Tree, bool) {
	tree, err := ParseReplace(tokens)
	return tree, err == nil
}
