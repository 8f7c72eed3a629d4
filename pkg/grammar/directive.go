package grammar

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/praetorian-inc/cobprep/pkg/prefilter"
	"github.com/praetorian-inc/cobprep/pkg/types"
)

// matchTimeout bounds a single directive match.
const matchTimeout = time.Second

// DirectiveMatcher recognizes compiler directive lines using directive rules.
// It is safe for concurrent use once built.
type DirectiveMatcher struct {
	rules     []*types.DirectiveRule
	byID      map[string]*types.DirectiveRule
	prefilter *prefilter.Prefilter
	regexes   map[string]*regexp2.Regexp // rule ID -> compiled pattern
}

// compilePattern compiles a rule pattern case-insensitively. Patterns are
// written across lines in YAML, so surrounding whitespace is trimmed.
func compilePattern(pattern string) (*regexp2.Regexp, error) {
	re, err := regexp2.Compile(strings.TrimSpace(pattern), regexp2.IgnoreCase)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = matchTimeout
	return re, nil
}

// NewDirectiveMatcher compiles rules into a matcher.
func NewDirectiveMatcher(rules []*types.DirectiveRule) (*DirectiveMatcher, error) {
	m := &DirectiveMatcher{
		rules:     rules,
		byID:      make(map[string]*types.DirectiveRule, len(rules)),
		prefilter: prefilter.New(rules),
		regexes:   make(map[string]*regexp2.Regexp, len(rules)),
	}
	for _, rule := range rules {
		if _, dup := m.byID[rule.ID]; dup {
			return nil, fmt.Errorf("duplicate directive rule %s", rule.ID)
		}
		re, err := compilePattern(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to compile pattern for rule %s: %w", rule.ID, err)
		}
		m.byID[rule.ID] = rule
		m.regexes[rule.ID] = re
	}
	return m, nil
}

var (
	defaultOnce    sync.Once
	defaultMatcher *DirectiveMatcher
	defaultErr     error
)

// Default returns the matcher built from the embedded rules.
func Default() (*DirectiveMatcher, error) {
	defaultOnce.Do(func() {
		rules, err := NewLoader().LoadBuiltinRules()
		if err != nil {
			defaultErr = fmt.Errorf("loading built-in directive rules: %w", err)
			return
		}
		defaultMatcher, defaultErr = NewDirectiveMatcher(rules)
	})
	return defaultMatcher, defaultErr
}

// Rules returns the matcher's rules in load order.
func (m *DirectiveMatcher) Rules() []*types.DirectiveRule {
	return m.rules
}

// Rule returns the rule with the given ID.
func (m *DirectiveMatcher) Rule(id string) (*types.DirectiveRule, bool) {
	r, ok := m.byID[id]
	return r, ok
}

// AcceptsDirective parses the tokens of one source line as a compiler
// directive. The tree carries the matching rule ("rule"), its kind ("kind")
// and one child per named group of the rule's pattern, e.g. "format".
func (m *DirectiveMatcher) AcceptsDirective(tokens []types.Token) (*Tree, bool) {
	var content []types.Token
	for _, t := range tokens {
		if !t.Is(types.EndOfLine) {
			content = append(content, t)
		}
	}
	if len(content) == 0 {
		return nil, false
	}
	line := types.Join(0, content...)

	for _, rule := range m.prefilter.Filter([]byte(line.Text)) {
		re := m.regexes[rule.ID]
		match, err := re.FindStringMatch(line.Text)
		if err != nil || match == nil {
			// A timeout counts as no match.
			continue
		}
		return buildDirectiveTree(rule, re, match, line), true
	}
	return nil, false
}

func buildDirectiveTree(rule *types.DirectiveRule, re *regexp2.Regexp, match *regexp2.Match, line types.Token) *Tree {
	tree := &Tree{Name: "directive", Text: line.Text, Tokens: []types.Token{line}}
	tree.add(&Tree{Name: "rule", Text: rule.ID})
	tree.add(&Tree{Name: "kind", Text: string(rule.Kind)})
	for _, name := range re.GetGroupNames() {
		if _, err := strconv.Atoi(name); err == nil {
			continue
		}
		g := match.GroupByName(name)
		if g == nil || len(g.Captures) == 0 {
			continue
		}
		piece := line.Slice(g.Index, g.Index+g.Length)
		tree.add(&Tree{Name: name, Text: g.String(), Tokens: []types.Token{piece}})
	}
	return tree
}
