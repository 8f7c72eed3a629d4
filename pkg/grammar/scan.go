package grammar

import (
	"fmt"
	"strings"

	"github.com/praetorian-inc/cobprep/pkg/types"
)

type itemKind int

const (
	itemWord itemKind = iota
	itemLiteral
	itemPseudoText
	itemPunct
)

// item is one significant element of a statement: a text-word, a literal,
// a pseudo-text operand or a punctuation character.
type item struct {
	kind   itemKind
	text   string        // normalized text; raw text for literals
	raw    string        // text as written
	tokens []types.Token // pseudo-text content excludes the delimiters
}

func (it item) isWord(keyword string) bool {
	return it.kind == itemWord && it.text == keyword
}

// scan groups statement tokens into items. Separators between items are
// dropped; adjacent word and number tokens form one word.
func scan(tokens []types.Token) ([]item, error) {
	var items []item
	for i := 0; i < len(tokens); {
		t := tokens[i]
		switch {
		case isPseudoDelimiter(tokens, i):
			end := -1
			for j := i + 2; j < len(tokens); j++ {
				if isPseudoDelimiter(tokens, j) {
					end = j
					break
				}
			}
			if end < 0 {
				return nil, fmt.Errorf("unterminated pseudo-text at %s", t.Start)
			}
			content := tokens[i+2 : end]
			items = append(items, item{
				kind:   itemPseudoText,
				text:   strings.Join(types.TextWords(content), " "),
				raw:    types.Concat(tokens[i : end+2]),
				tokens: content,
			})
			i = end + 2
		case types.IsTextWordSeparator(t):
			i++
		case types.IsWordPart(t):
			j := i
			for j < len(tokens) && types.IsWordPart(tokens[j]) {
				j++
			}
			raw := types.Concat(tokens[i:j])
			items = append(items, item{kind: itemWord, text: types.NormalizeWord(raw), raw: raw, tokens: tokens[i:j]})
			i = j
		case t.Is(types.String):
			items = append(items, item{kind: itemLiteral, text: t.Text, raw: t.Text, tokens: tokens[i : i+1]})
			i++
		default:
			items = append(items, item{kind: itemPunct, text: t.Text, raw: t.Text, tokens: tokens[i : i+1]})
			i++
		}
	}
	return items, nil
}

// isPseudoDelimiter reports whether tokens[i] and tokens[i+1] form "==".
func isPseudoDelimiter(tokens []types.Token, i int) bool {
	if i+1 >= len(tokens) {
		return false
	}
	a, b := tokens[i], tokens[i+1]
	return a.Text == "=" && b.Text == "=" && !a.IsSkipped() && !b.IsSkipped() &&
		!a.Is(types.Comment) && !b.Is(types.Comment)
}

// parser walks a scanned statement.
type parser struct {
	items []item
	pos   int
}

func (p *parser) peek() (item, bool) {
	if p.pos >= len(p.items) {
		return item{}, false
	}
	return p.items[p.pos], true
}

func (p *parser) acceptWord(keyword string) (item, bool) {
	it, ok := p.peek()
	if ok && it.isWord(keyword) {
		p.pos++
		return it, true
	}
	return item{}, false
}

func (p *parser) expectWord(keyword string) error {
	if _, ok := p.acceptWord(keyword); ok {
		return nil
	}
	return p.errorf("expected %s", keyword)
}

// expectEnd requires the terminating period as the last item.
func (p *parser) expectEnd() error {
	it, ok := p.peek()
	if !ok || it.kind != itemPunct || it.text != "." {
		return p.errorf("expected terminating period")
	}
	p.pos++
	if p.pos != len(p.items) {
		return p.errorf("unexpected text after period")
	}
	return nil
}

func (p *parser) errorf(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	if it, ok := p.peek(); ok {
		return fmt.Errorf("%s, found %q", msg, it.raw)
	}
	return fmt.Errorf("%s, found end of statement", msg)
}

// phrase parses "[LEADING|TRAILING] operand BY operand".
func (p *parser) phrase() (*Tree, error) {
	node := &Tree{Name: "instruction"}
	mode := types.Matching
	if it, ok := p.acceptWord("LEADING"); ok {
		mode = types.Leading
		node.add(&Tree{Name: "leading", Text: it.raw, Tokens: it.tokens})
	} else if it, ok := p.acceptWord("TRAILING"); ok {
		mode = types.Trailing
		node.add(&Tree{Name: "trailing", Text: it.raw, Tokens: it.tokens})
	}

	pattern, err := p.operand("pattern")
	if err != nil {
		return nil, err
	}
	if mode != types.Matching {
		op := pattern.Children[0]
		if op.Name != "pseudoText" || len(types.TextWords(op.Tokens)) != 1 {
			return nil, fmt.Errorf("%s requires a pseudo-text pattern of one word", mode)
		}
	}
	if err := p.expectWord("BY"); err != nil {
		return nil, err
	}
	replacement, err := p.operand("replacement")
	if err != nil {
		return nil, err
	}
	node.add(pattern)
	node.add(replacement)
	return node, nil
}

// operand parses pseudo-text, a literal, or a word optionally qualified with
// OF/IN.
func (p *parser) operand(name string) (*Tree, error) {
	it, ok := p.peek()
	if !ok {
		return nil, p.errorf("expected %s operand", name)
	}
	node := &Tree{Name: name, Text: it.raw}
	switch it.kind {
	case itemPseudoText:
		p.pos++
		node.add(&Tree{Name: "pseudoText", Text: it.text, Tokens: it.tokens})
	case itemLiteral:
		p.pos++
		node.add(&Tree{Name: "literal", Text: it.text, Tokens: it.tokens})
	case itemWord:
		if it.text == "BY" {
			return nil, p.errorf("expected %s operand", name)
		}
		p.pos++
		tokens := append([]types.Token(nil), it.tokens...)
		for {
			q, ok := p.peek()
			if !ok || !(q.isWord("OF") || q.isWord("IN")) || p.pos+1 >= len(p.items) || p.items[p.pos+1].kind != itemWord {
				break
			}
			qualifier := p.items[p.pos+1]
			tokens = append(tokens, q.tokens...)
			tokens = append(tokens, qualifier.tokens...)
			p.pos += 2
		}
		node.add(&Tree{Name: "word", Text: strings.Join(types.TextWords(tokens), " "), Tokens: tokens})
	default:
		return nil, p.errorf("expected %s operand", name)
	}
	return node, nil
}

// Phrases builds the replacing phrases of a COPY or REPLACE tree.
func Phrases(tree *Tree) []types.ReplacingPhrase {
	nodes := tree.FindAll("replacing/instruction")
	if len(nodes) == 0 {
		nodes = tree.FindAll("instruction")
	}
	phrases := make([]types.ReplacingPhrase, 0, len(nodes))
	for _, n := range nodes {
		mode := types.Matching
		switch {
		case n.Has("leading"):
			mode = types.Leading
		case n.Has("trailing"):
			mode = types.Trailing
		}
		phrases = append(phrases, types.ReplacingPhrase{
			Mode:        mode,
			Pattern:     operandOf(n.Find("pattern")),
			Replacement: operandOf(n.Find("replacement")),
		})
	}
	return phrases
}

func operandOf(n *Tree) types.Operand {
	if n == nil || len(n.Children) == 0 {
		return types.Operand{}
	}
	c := n.Children[0]
	kind := types.WordOperand
	switch c.Name {
	case "pseudoText":
		kind = types.PseudoText
	case "literal":
		kind = types.LiteralOperand
	}
	return types.NewOperand(kind, c.Tokens)
}
