package continuation

import (
	"strings"
	"testing"

	"github.com/praetorian-inc/cobprep/pkg/diag"
	"github.com/praetorian-inc/cobprep/pkg/directive"
	"github.com/praetorian-inc/cobprep/pkg/grammar"
	"github.com/praetorian-inc/cobprep/pkg/lexer"
	"github.com/praetorian-inc/cobprep/pkg/lines"
	"github.com/praetorian-inc/cobprep/pkg/source"
	"github.com/praetorian-inc/cobprep/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chain(t *testing.T, text string, format types.SourceFormat, logger diag.Logger) *Resolver {
	t.Helper()
	r, err := lines.NewReader("t.cbl", strings.NewReader(text), lines.Config{})
	require.NoError(t, err)
	m, err := grammar.Default()
	require.NoError(t, err)
	splitter, err := lexer.NewSplitter(directive.NewScanner(r, m, format, logger), 1)
	require.NoError(t, err)
	return NewResolver(lexer.NewInlineComments(lexer.NewTokenizer(splitter)), logger)
}

func resolve(t *testing.T, text string, format types.SourceFormat, logger diag.Logger) []types.Token {
	t.Helper()
	out, err := source.ReadAll(chain(t, text, format, logger))
	require.NoError(t, err)
	return out
}

// content returns the program text tokens that are not blank or skipped.
func content(tokens []types.Token) []types.Token {
	var out []types.Token
	for _, tok := range tokens {
		if isContent(tok) {
			out = append(out, tok)
		}
	}
	return out
}

func TestResolver_IncompleteLiteral(t *testing.T) {
	text := "       \"ABC\n" +
		"      -    \"DEF\".\n"
	out := resolve(t, text, types.FormatFixed, nil)

	words := content(out)
	require.Len(t, words, 2)
	lit := words[0]
	assert.Equal(t, `"ABCDEF"`, lit.Text)
	assert.True(t, lit.Is(types.String))
	assert.False(t, lit.Is(types.Incomplete))
	assert.Equal(t, 8, lit.Start.Column)
	assert.Equal(t, 2, lit.End.Line)
	assert.Equal(t, 16, lit.End.Column)
	assert.Equal(t, ".", words[1].Text)

	// Everything read is still present.
	assert.Equal(t, len([]rune(text)), len([]rune(types.Concat(out))))

	// The connective material directly follows the literal.
	i := indexOf(out, lit)
	assert.Equal(t, "\n", out[i+1].Text)
	assert.True(t, out[i+1].IsSkipped())
	for _, tok := range out[i+1 : i+6] {
		assert.True(t, tok.IsSkipped(), tok.String())
		assert.False(t, tok.Is(types.ProgramTextArea), tok.String())
	}
	assert.Equal(t, `"`, out[i+5].Text)
}

func TestResolver_LiteralAcrossSeveralLines(t *testing.T) {
	text := "       \"AB\n" +
		"      -    \"CD\n" +
		"      *    comment in between\n" +
		"\n" +
		"      -    \"EF\" X\n"
	collector := diag.NewCollector(nil)
	out := resolve(t, text, types.FormatFixed, collector)

	words := content(out)
	require.Len(t, words, 2)
	assert.Equal(t, `"ABCDEF"`, words[0].Text)
	assert.Equal(t, "X", words[1].Text)
	assert.Empty(t, collector.Diagnostics())
}

func TestResolver_OpenLiteralEndingInEscapedQuote(t *testing.T) {
	text := "       \"AB\"\"-\n" +
		"      -    \"CD\".\n"
	collector := diag.NewCollector(nil)
	out := resolve(t, text, types.FormatFixed, collector)

	words := content(out)
	require.Equal(t, []string{`"AB""-CD"`, "."}, types.Texts(words))
	assert.False(t, words[0].Is(types.Incomplete))
	assert.Empty(t, collector.Diagnostics())
}

func TestResolver_FloatingLiteral(t *testing.T) {
	text := "DISPLAY \"ABC\"-\n" +
		"  \"DEF\".\n"
	out := resolve(t, text, types.FormatFree, nil)

	words := content(out)
	require.Equal(t, []string{"DISPLAY", `"ABCDEF"`, "."}, types.Texts(words))
	assert.False(t, words[1].Is(types.Incomplete))

	i := indexOf(out, words[1])
	assert.Equal(t, `"-`, out[i+1].Text)
	assert.True(t, out[i+1].IsSkipped())
}

func TestResolver_DoubledQuoteContinuation(t *testing.T) {
	text := "       MOVE \"ABC\"\n" +
		"      -    \"\"DEF\" TO X.\n"
	out := resolve(t, text, types.FormatFixed, nil)

	words := content(out)
	require.Equal(t, []string{"MOVE", `"ABC""DEF"`, "TO", "X", "."}, types.Texts(words))
	assert.True(t, words[1].Is(types.String))
	assert.False(t, words[1].Is(types.Incomplete))
}

func TestResolver_WordContinuation(t *testing.T) {
	text := "       MOVE ALPHA-BE   \n" +
		"      -    TA TO X.\n"
	out := resolve(t, text, types.FormatFixed, nil)

	words := content(out)
	require.Equal(t, []string{"MOVE", "ALPHA-BETA", "TO", "X", "."}, types.Texts(words))
	assert.Equal(t, 1, words[1].Start.Line)
	assert.Equal(t, 2, words[1].End.Line)
	require.Len(t, words[1].Ranges, 2)

	// One logical line: a single unskipped line ending.
	ends := 0
	for _, tok := range out {
		if tok.Is(types.EndOfLine) && !tok.IsSkipped() {
			ends++
		}
	}
	assert.Equal(t, 1, ends)
}

func TestResolver_MissingContinuationDegrades(t *testing.T) {
	text := "       \"ABC   \n" +
		"       DISPLAY X.\n"
	collector := diag.NewCollector(nil)
	out := resolve(t, text, types.FormatFixed, collector)

	words := content(out)
	require.Equal(t, []string{`"ABC`, "DISPLAY", "X", "."}, types.Texts(words))
	assert.False(t, words[0].Is(types.Incomplete))

	diags := collector.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, diag.ContinuationMissing, diags[0].Code)
	assert.Equal(t, types.Concat(out), text)
}

func TestResolver_IncompleteAtEndOfInput(t *testing.T) {
	collector := diag.NewCollector(nil)
	out := resolve(t, "DISPLAY \"ABC\"-", types.FormatFree, collector)

	assert.Equal(t, []string{"DISPLAY", `"ABC"`, "-"}, types.Texts(content(out)))
	assert.Len(t, collector.Diagnostics(), 1)
}

func TestResolver_NoContinuationRoundTrip(t *testing.T) {
	text := "000100 IDENTIFICATION DIVISION.                                        ID000100\r\n" +
		"000200*COMMENT LINE\r\n" +
		"\r\n" +
		"000300 PROGRAM-ID. \"X\".   *> inline\r\n"
	out := resolve(t, text, types.FormatFixed, nil)

	assert.Equal(t, text, types.Concat(out))
	for _, tok := range out {
		assert.False(t, tok.IsSkipped(), tok.String())
	}
}

func TestResolver_SignalsEndLines(t *testing.T) {
	line := lexer.Tokenize(types.NewToken(`"AB`, types.StartOf("t.cbl"), types.ProgramTextArea|types.Free))
	signal := types.Signal{Kind: types.Deactivate, Last: true}
	items := []types.Data{line[0], signal}

	r := NewResolver(source.NewSlice(items...), nil)
	out, err := source.ReadData(r)
	require.NoError(t, err)

	require.Len(t, out, 2)
	assert.False(t, out[0].(types.Token).Is(types.Incomplete))
	assert.Equal(t, signal, out[1])
}

func TestResolver_Drain(t *testing.T) {
	r := chain(t, "       A\n       B\n       C\n", types.FormatFixed, nil)

	first, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "      ", first.(types.Token).Text)

	drained := r.Drain()
	var texts []string
	for _, d := range drained {
		texts = append(texts, d.(types.Token).Text)
	}
	// The rest of the first line, then the look-ahead line.
	assert.Equal(t, []string{" ", "A", "\n", "      ", " ", "B", "\n"}, texts)

	rest, err := source.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "       C\n", types.Concat(rest))
}

func TestResolver_ReflowIsStable(t *testing.T) {
	text := "       \"ABC\n" +
		"      -    \"DEF\".\n"
	first := resolve(t, text, types.FormatFixed, nil)

	again, err := source.ReadAll(NewResolver(source.FromTokens(first), nil))
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func indexOf(tokens []types.Token, tok types.Token) int {
	for i, t := range tokens {
		if t.Start == tok.Start && t.Text == tok.Text {
			return i
		}
	}
	return -1
}
