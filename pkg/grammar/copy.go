package grammar

import (
	"fmt"

	"github.com/praetorian-inc/cobprep/pkg/types"
)

// ParseCopy parses
//
//	COPY text-name [OF|IN library-name] [SUPPRESS] [REPLACING phrase...] .
//
// The tree has children textName, libraryName, suppress and
// replacing/instruction.
func ParseCopy(tokens []types.Token) (*Tree, error) {
	items, err := scan(tokens)
	if err != nil {
		return nil, err
	}
	p := &parser{items: items}
	tree := &Tree{Name: "copy", Tokens: tokens}

	if err := p.expectWord("COPY"); err != nil {
		return nil, err
	}

	name, err := p.name("text-name")
	if err != nil {
		return nil, err
	}
	tree.add(&Tree{Name: "textName", Text: name.raw, Tokens: name.tokens})

	if _, ok := p.acceptWord("OF"); ok {
		lib, err := p.name("library-name")
		if err != nil {
			return nil, err
		}
		tree.add(&Tree{Name: "libraryName", Text: lib.raw, Tokens: lib.tokens})
	} else if _, ok := p.acceptWord("IN"); ok {
		lib, err := p.name("library-name")
		if err != nil {
			return nil, err
		}
		tree.add(&Tree{Name: "libraryName", Text: lib.raw, Tokens: lib.tokens})
	}

	if it, ok := p.acceptWord("SUPPRESS"); ok {
		tree.add(&Tree{Name: "suppress", Text: it.raw, Tokens: it.tokens})
	}

	if it, ok := p.acceptWord("REPLACING"); ok {
		replacing := tree.add(&Tree{Name: "replacing", Text: it.raw, Tokens: it.tokens})
		for {
			if end, ok := p.peek(); !ok || end.kind == itemPunct && end.text == "." {
				break
			}
			phrase, err := p.phrase()
			if err != nil {
				return nil, err
			}
			replacing.add(phrase)
		}
		if len(replacing.Children) == 0 {
			return nil, fmt.Errorf("REPLACING requires at least one phrase")
		}
	}

	if err := p.expectEnd(); err != nil {
		return nil, err
	}
	return tree, nil
}

// AcceptsCopyStatement reports whether tokens form a COPY statement.
func AcceptsCopyStatement(tokens []types.Token) (*Tree, bool) {
	tree, err := ParseCopy(tokens)
	return tree, err == nil
}

// name parses a text-name or library-name: a word or a literal.
func (p *parser) name(what string) (item, error) {
	it, ok := p.peek()
	if !ok || (it.kind != itemWord && it.kind != itemLiteral) {
		return item{}, p.errorf("expected %s", what)
	}
	p.pos++
	return it, nil
}
