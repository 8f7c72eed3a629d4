package types

import "strings"

// ReplacingMode selects how a replacing phrase compares its pattern.
type ReplacingMode int

const (
	Matching ReplacingMode = iota
	Leading
	Trailing
)

// String returns the mode keyword.
func (m ReplacingMode) String() string {
	switch m {
	case Leading:
		return "LEADING"
	case Trailing:
		return "TRAILING"
	default:
		return "MATCHING"
	}
}

// OperandKind is the written form of a replacing operand.
type OperandKind int

const (
	WordOperand OperandKind = iota
	LiteralOperand
	PseudoText
)

// String returns the operand kind name.
func (k OperandKind) String() string {
	switch k {
	case LiteralOperand:
		return "LITERAL"
	case PseudoText:
		return "PSEUDO_TEXT"
	default:
		return "WORD"
	}
}

// Operand is one side of a replacing phrase. Tokens are the operand's
// content (pseudo-text delimiters excluded); Words are its normalized text-words.
type Operand struct {
	Kind   OperandKind
	Tokens []Token
	Words  []string
}

// NewOperand builds an operand and computes its normalized text-words.
func NewOperand(kind OperandKind, tokens []Token) Operand {
	return Operand{Kind: kind, Tokens: tokens, Words: TextWords(tokens)}
}

// Text concatenates the operand's non-blank token text.
func (o Operand) Text() string {
	var sb strings.Builder
	for _, t := range o.Tokens {
		if !t.IsBlank() {
			sb.WriteString(t.Text)
		}
	}
	return sb.String()
}

// ReplacingPhrase is one "pattern BY replacement" instruction. It is built
// once when its statement is detected and never modified afterwards.
type ReplacingPhrase struct {
	Mode        ReplacingMode
	Pattern     Operand
	Replacement Operand
}

// IsTextWordSeparator reports whether a token counts as the single
// equivalent space between text-words: blanks, comments, commas, semicolons
// and skipped connective material.
func IsTextWordSeparator(t Token) bool {
	if t.IsBlank() || t.Tags.Any(Comment|Skipped|SequenceNumberArea|IndicatorArea|IdentificationArea|CompilerDirective) {
		return true
	}
	return t.Text == "," || t.Text == ";"
}

// IsWordPart reports whether a token continues a text-word made of adjacent
// word and number tokens.
func IsWordPart(t Token) bool {
	return t.Tags.Any(Word|Number) && !t.Tags.Any(Skipped|Comment)
}

// NormalizeWord returns the comparison form of a text-word: words and
// numbers are upper-cased, literals keep their exact text.
func NormalizeWord(text string) string {
	if text != "" && (text[0] == '"' || text[0] == '\'') {
		return text
	}
	return strings.ToUpper(text)
}

// TextWords groups tokens into normalized text-words. Adjacent word and
// number tokens form one text-word; separators between text-words are dropped.
func TextWords(tokens []Token) []string {
	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, NormalizeWord(cur.String()))
			cur.Reset()
		}
	}
	for _, t := range tokens {
		switch {
		case IsTextWordSeparator(t):
			flush()
		case IsWordPart(t):
			cur.WriteString(t.Text)
		default:
			flush()
			words = append(words, NormalizeWord(t.Text))
		}
	}
	flush()
	return words
}
