package pipeline

import (
	"strings"

	"github.com/praetorian-inc/cobprep/pkg/types"
)

// hiddenTags mark tokens that are not part of the compilable text.
const hiddenTags = types.SequenceNumberArea | types.IndicatorArea | types.IdentificationArea |
	types.Comment | types.CompilerDirective | types.ReplaceStatement | types.Skipped

// Text rebuilds the compilable text of a preprocessed stream. Line endings
// are kept unless they were consumed by a continuation, so every remaining
// line maps onto a line of the stream.
func Text(tokens []types.Token) string {
	var sb strings.Builder
	for _, tok := range tokens {
		if Visible(tok) {
			sb.WriteString(tok.Text)
		}
	}
	return sb.String()
}

// Visible reports whether a token contributes to Text.
func Visible(tok types.Token) bool {
	if tok.Is(types.EndOfLine) {
		return !tok.IsSkipped()
	}
	return !tok.Tags.Any(hiddenTags)
}
