package replace

import (
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/praetorian-inc/cobprep/pkg/diag"
	"github.com/praetorian-inc/cobprep/pkg/source"
	"github.com/praetorian-inc/cobprep/pkg/types"
)

// Replacer substitutes library text according to the active replacing
// phrases. Signals push, pop and clear its stack of rule-sets and are not
// passed on. Rule-sets are tried most recent first, the phrases of a set in
// written order; the first match wins. Replacement text is never rescanned.
type Replacer struct {
	source.Decorator
	logger diag.Logger
	stack  [][]types.ReplacingPhrase
}

// NewReplacer creates a replacer over inner with an empty rule-set stack.
func NewReplacer(inner source.Source, logger diag.Logger) *Replacer {
	return &Replacer{Decorator: source.Decorator{Inner: inner}, logger: diag.OrNoop(logger)}
}

// Active returns the number of rule-sets on the stack.
func (r *Replacer) Active() int {
	return len(r.stack)
}

// Next returns the next token after substitution.
func (r *Replacer) Next() (types.Data, error) {
	if d, ok := r.Pop(); ok {
		return d, nil
	}
	for {
		d, err := r.Inner.Next()
		if err != nil {
			return nil, err
		}
		switch v := d.(type) {
		case types.Signal:
			r.apply(v)
			continue
		case types.Token:
			if len(r.stack) == 0 || isBarrier(v) || types.IsTextWordSeparator(v) {
				return v, nil
			}
			out, err := r.substitute(v)
			if err != nil {
				return nil, err
			}
			if len(out) == 0 {
				continue
			}
			source.UnshiftAll(r, out[1:])
			return out[0], nil
		default:
			return d, nil
		}
	}
}

func (r *Replacer) apply(s types.Signal) {
	switch {
	case s.Kind == types.Activate:
		r.stack = append(r.stack, s.Phrases)
	case s.Last:
		if len(r.stack) == 0 {
			r.logger.Log(diag.Diagnostic{
				Severity: diag.Warning,
				Code:     diag.ReplaceStackEmpty,
				Message:  "REPLACE OFF LAST without an active REPLACE",
				Start:    s.At,
				End:      s.At,
			})
			return
		}
		r.stack = r.stack[:len(r.stack)-1]
	default:
		r.stack = nil
	}
}

// substitute handles the library text-word starting at first.
func (r *Replacer) substitute(first types.Token) ([]types.Token, error) {
	w := &window{src: r.Inner, items: []types.Data{first}}
	for i := len(r.stack) - 1; i >= 0; i-- {
		for _, phrase := range r.stack[i] {
			out, ok, err := w.try(phrase)
			if err != nil {
				return nil, err
			}
			if ok {
				return out, nil
			}
		}
	}
	parts, n, err := w.word(0)
	if err != nil {
		return nil, err
	}
	w.release(n)
	return parts, nil
}

// isBarrier reports whether tok never takes part in a match.
func isBarrier(tok types.Token) bool {
	return tok.Is(types.ReplaceStatement)
}

// window is the look-ahead read from the inner source while matching.
// Items it does not consume are returned to the source by release.
type window struct {
	src   source.Source
	items []types.Data
}

// at returns the i-th look-ahead token. ok is false at end of input and
// when the item is not a token or is a barrier.
func (w *window) at(i int) (types.Token, bool, error) {
	for len(w.items) <= i {
		d, err := w.src.Next()
		if errors.Is(err, io.EOF) {
			return types.Token{}, false, nil
		}
		if err != nil {
			return types.Token{}, false, err
		}
		w.items = append(w.items, d)
	}
	tok, ok := w.items[i].(types.Token)
	if !ok || isBarrier(tok) {
		return types.Token{}, false, nil
	}
	return tok, true, nil
}

// word returns the parts of the text-word at index i and the index after it.
// Adjacent word and number tokens form one text-word.
func (w *window) word(i int) ([]types.Token, int, error) {
	tok, ok, err := w.at(i)
	if err != nil || !ok {
		return nil, i, err
	}
	parts := []types.Token{tok}
	if !types.IsWordPart(tok) {
		return parts, i + 1, nil
	}
	for j := i + 1; ; j++ {
		next, ok, err := w.at(j)
		if err != nil {
			return nil, i, err
		}
		if !ok || !types.IsWordPart(next) {
			return parts, j, nil
		}
		parts = append(parts, next)
	}
}

// skip returns the index of the first token at or after i that is not a
// text-word separator.
func (w *window) skip(i int) (int, bool, error) {
	for {
		tok, ok, err := w.at(i)
		if err != nil || !ok {
			return i, false, err
		}
		if !types.IsTextWordSeparator(tok) {
			return i, true, nil
		}
		i++
	}
}

// release hands every item from index n on back to the source.
func (w *window) release(n int) {
	if n < len(w.items) {
		source.UnshiftAll(w.src, w.items[n:])
	}
	w.items = w.items[:n]
}

func (w *window) try(phrase types.ReplacingPhrase) ([]types.Token, bool, error) {
	if len(phrase.Pattern.Words) == 0 {
		return nil, false, nil
	}
	switch phrase.Mode {
	case types.Leading, types.Trailing:
		return w.tryPartial(phrase)
	default:
		return w.tryMatching(phrase)
	}
}

func (w *window) tryMatching(phrase types.ReplacingPhrase) ([]types.Token, bool, error) {
	var consumed []types.Token
	var first, last types.Token
	i := 0
	for k, want := range phrase.Pattern.Words {
		if k > 0 {
			next, ok, err := w.skip(i)
			if err != nil || !ok {
				return nil, false, err
			}
			for j := i; j < next; j++ {
				consumed = append(consumed, w.items[j].(types.Token))
			}
			i = next
		}
		parts, next, err := w.word(i)
		if err != nil || len(parts) == 0 {
			return nil, false, err
		}
		if types.NormalizeWord(types.Concat(parts)) != want {
			return nil, false, nil
		}
		if k == 0 {
			first = parts[0]
		}
		last = parts[len(parts)-1]
		i = next
	}

	var out []types.Token
	for _, sep := range consumed {
		out = append(out, sep.WithTags(types.Skipped))
	}
	marker := &types.Replaced{OriginalStart: first.Start, OriginalEnd: last.End, Outer: first.ReplacedBy}
	for _, tok := range trim(phrase.Replacement.Tokens) {
		out = append(out, tok.MarkReplaced(marker))
	}
	w.release(i)
	return out, true, nil
}

func (w *window) tryPartial(phrase types.ReplacingPhrase) ([]types.Token, bool, error) {
	parts, next, err := w.word(0)
	if err != nil || len(parts) == 0 {
		return nil, false, err
	}
	pattern := phrase.Pattern.Words[0]
	word := types.Join(wordTags(parts), parts...)
	upper := strings.ToUpper(word.Text)
	n := utf8.RuneCountInString(pattern)

	repl := trim(phrase.Replacement.Tokens)
	pieces := make([]types.Token, 0, len(repl)+1)
	switch {
	case phrase.Mode == types.Leading && strings.HasPrefix(upper, pattern):
		pieces = append(append(pieces, repl...), word.SliceFrom(n))
	case phrase.Mode == types.Trailing && strings.HasSuffix(upper, pattern):
		pieces = append(append(pieces, word.Slice(0, word.Length()-n)), repl...)
	default:
		return nil, false, nil
	}

	w.release(next)
	out := types.Join(word.Tags, pieces...)
	if out.Text == "" {
		return nil, true, nil
	}
	out.Tags = wordTags([]types.Token{out})
	out.Start, out.End = word.Start, word.End
	return []types.Token{out.MarkReplaced(&types.Replaced{
		OriginalStart: word.Start,
		OriginalEnd:   word.End,
		Outer:         word.ReplacedBy,
	})}, true, nil
}

// wordTags returns the tags of a merged text-word: the first part's
// non-syntactic tags plus Word, or Number when every character is a digit.
func wordTags(parts []types.Token) types.Tag {
	tags := parts[0].Tags &^ types.SyntacticTags
	for _, p := range parts {
		for _, c := range p.Text {
			if c < '0' || c > '9' {
				return tags | types.Word
			}
		}
	}
	return tags | types.Number
}

// trim drops leading and trailing blanks of a replacement operand.
func trim(tokens []types.Token) []types.Token {
	lo, hi := 0, len(tokens)
	for lo < hi && tokens[lo].IsBlank() {
		lo++
	}
	for hi > lo && tokens[hi-1].IsBlank() {
		hi--
	}
	return tokens[lo:hi]
}
