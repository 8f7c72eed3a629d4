package grammar

import (
	"fmt"

	"github.com/praetorian-inc/cobprep/pkg/types"
)

// ValidateRule checks rule consistency and required fields, and that the
// rule's examples and negative examples behave as documented.
func ValidateRule(r *types.DirectiveRule) error {
	if r == nil {
		return fmt.Errorf("rule is nil")
	}
	if r.ID == "" {
		return fmt.Errorf("rule ID is required")
	}
	if r.Name == "" {
		return fmt.Errorf("rule name is required")
	}
	if r.Pattern == "" {
		return fmt.Errorf("rule pattern is required")
	}

	re, err := compilePattern(r.Pattern)
	if err != nil {
		return fmt.Errorf("invalid pattern regex for rule %s: %w", r.ID, err)
	}
	if r.Kind == types.DirectiveSourceFormat && re.GroupNumberFromName("format") < 0 {
		return fmt.Errorf("rule %s switches the source format but has no \"format\" group", r.ID)
	}

	expectedID := r.ComputeStructuralID()
	if r.StructuralID != "" && r.StructuralID != expectedID {
		return fmt.Errorf("rule %s has inconsistent StructuralID: got %s, expected %s",
			r.ID, r.StructuralID, expectedID)
	}

	for _, ex := range r.Examples {
		if ok, _ := re.MatchString(ex); !ok {
			return fmt.Errorf("rule %s does not match its example %q", r.ID, ex)
		}
	}
	for _, ex := range r.NegativeExamples {
		if ok, _ := re.MatchString(ex); ok {
			return fmt.Errorf("rule %s matches its negative example %q", r.ID, ex)
		}
	}
	return nil
}
