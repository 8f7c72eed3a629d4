package prefilter

import (
	"bytes"
	"sort"
	"strings"

	"github.com/cloudflare/ahocorasick"
	"github.com/praetorian-inc/cobprep/pkg/types"
)

// Prefilter uses Aho-Corasick to pick the directive rules worth running on a line.
// Keywords and lines are compared upper-cased, since COBOL is case-insensitive.
type Prefilter struct {
	matcher        *ahocorasick.Matcher
	keywords       []string                           // keyword at each index
	keywordRules   map[string][]*types.DirectiveRule // keyword -> rules needing it
	noKeywordRules []*types.DirectiveRule            // rules without keywords (always checked)
	order          map[*types.DirectiveRule]int      // load order, for stable results
}

// New creates a prefilter from rules.
func New(rules []*types.DirectiveRule) *Prefilter {
	pf := &Prefilter{
		keywordRules: make(map[string][]*types.DirectiveRule),
		order:        make(map[*types.DirectiveRule]int, len(rules)),
	}

	keywordSet := make(map[string]bool)
	for i, rule := range rules {
		pf.order[rule] = i
		if len(rule.Keywords) == 0 {
			pf.noKeywordRules = append(pf.noKeywordRules, rule)
			continue
		}
		for _, keyword := range rule.Keywords {
			keyword = strings.ToUpper(keyword)
			if !keywordSet[keyword] {
				keywordSet[keyword] = true
				pf.keywords = append(pf.keywords, keyword)
			}
			pf.keywordRules[keyword] = append(pf.keywordRules[keyword], rule)
		}
	}

	if len(pf.keywords) > 0 {
		pf.matcher = ahocorasick.NewStringMatcher(pf.keywords)
	}

	return pf
}

// Filter returns the rules that might match line (keywords found OR no
// keywords defined), ordered by priority and then by load order.
func (pf *Prefilter) Filter(line []byte) []*types.DirectiveRule {
	result := make([]*types.DirectiveRule, 0, len(pf.noKeywordRules))
	result = append(result, pf.noKeywordRules...)

	if pf.matcher != nil {
		seen := make(map[*types.DirectiveRule]bool)
		for _, rule := range pf.noKeywordRules {
			seen[rule] = true
		}
		for _, hit := range pf.matcher.Match(bytes.ToUpper(line)) {
			for _, rule := range pf.keywordRules[pf.keywords[hit]] {
				if !seen[rule] {
					seen[rule] = true
					result = append(result, rule)
				}
			}
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Priority != result[j].Priority {
			return result[i].Priority < result[j].Priority
		}
		return pf.order[result[i]] < pf.order[result[j]]
	})
	return result
}
