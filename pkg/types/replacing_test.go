package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextWords(t *testing.T) {
	p := StartOf("")
	tokens := []Token{
		NewToken("ws-", p, Word|ProgramTextArea),
		NewToken("1", p, Number|ProgramTextArea),
		NewToken(" ", p, Whitespace|Separator),
		NewToken(",", p, Separator),
		NewToken("\n", p, EndOfLine),
		NewToken(`"a b"`, p, String),
		NewToken("(", p, Separator),
	}

	assert.Equal(t, []string{"WS-1", `"a b"`, "("}, TextWords(tokens))
}

func TestOperand_Text(t *testing.T) {
	p := StartOf("")
	op := NewOperand(PseudoText, []Token{
		NewToken(" ", p, Whitespace),
		NewToken("COBOL", p, Word),
	})

	assert.Equal(t, "COBOL", op.Text())
	assert.Equal(t, []string{"COBOL"}, op.Words)
	assert.Equal(t, "PSEUDO_TEXT", op.Kind.String())
}

func TestSourceID(t *testing.T) {
	id := ComputeSourceID([]byte("test content"))

	parsed, err := ParseSourceID(id.Hex())
	assert.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseSourceID("abc")
	assert.Error(t, err)
}
