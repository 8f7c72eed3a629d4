package types

import (
	"crypto/sha1"
	"encoding/hex"
)

// DirectiveKind is the effect a compiler directive has on preprocessing.
type DirectiveKind string

const (
	// DirectiveSourceFormat switches the source format; the rule's pattern
	// must capture the new format in a group named "format".
	DirectiveSourceFormat DirectiveKind = "source-format"
	// DirectiveListing controls the listing and has no effect on the stream.
	DirectiveListing DirectiveKind = "listing"
	// DirectiveOption sets compiler options without a stream effect.
	DirectiveOption DirectiveKind = "option"
	// DirectiveUnknown is a directive-looking line nothing else recognized.
	DirectiveUnknown DirectiveKind = "unknown"
)

// DirectiveRule recognizes one compiler directive line.
type DirectiveRule struct {
	ID               string        // e.g., "cobol.directive.source-format"
	Name             string        // human-readable name
	Kind             DirectiveKind // effect of the directive
	Pattern          string        // regex matched against the whole line
	StructuralID     string        // SHA-1 of pattern (computed)
	Description      string        // optional
	Keywords         []string      // upper-case keywords for Aho-Corasick prefiltering
	Examples         []string      // lines that must match
	NegativeExamples []string      // lines that must not match
	Priority         int           // lower runs first
}

// ComputeStructuralID computes SHA-1 of the pattern.
func (r *DirectiveRule) ComputeStructuralID() string {
	h := sha1.New()
	h.Write([]byte(r.Pattern))
	return hex.EncodeToString(h.Sum(nil))
}
