package grammar

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/praetorian-inc/cobprep/pkg/types"
	"gopkg.in/yaml.v3"
)

// Loader handles loading directive rules from YAML files.
type Loader struct {
	fs fs.FS // embedded filesystem for built-in rules
}

// NewLoader creates a loader with built-in rules from the embedded filesystem.
func NewLoader() *Loader {
	return &Loader{fs: builtinRulesFS}
}

// NewLoaderWithFS creates a loader with a custom filesystem. Rules are read
// from its "rules" directory.
func NewLoaderWithFS(fsys fs.FS) *Loader {
	return &Loader{fs: fsys}
}

// LoadRules parses every rule in a YAML document.
func (l *Loader) LoadRules(data []byte) ([]*types.DirectiveRule, error) {
	var yamlFile yamlRulesFile
	if err := yaml.Unmarshal(data, &yamlFile); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(yamlFile.Rules) == 0 {
		return nil, fmt.Errorf("no rules found in YAML")
	}

	rules := make([]*types.DirectiveRule, 0, len(yamlFile.Rules))
	for _, yr := range yamlFile.Rules {
		r, err := convertYAMLRule(yr)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// LoadRuleFile loads rules from a YAML file path.
func (l *Loader) LoadRuleFile(path string) ([]*types.DirectiveRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return l.LoadRules(data)
}

// LoadBuiltinRules loads every rule from the loader's filesystem.
func (l *Loader) LoadBuiltinRules() ([]*types.DirectiveRule, error) {
	var rules []*types.DirectiveRule

	err := fs.WalkDir(l.fs, "rules", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".yml" {
			return nil
		}

		data, err := fs.ReadFile(l.fs, path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		loaded, err := l.LoadRules(data)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		rules = append(rules, loaded...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return rules, nil
}

// convertYAMLRule converts yamlRule to types.DirectiveRule and computes StructuralID.
func convertYAMLRule(yr yamlRule) (*types.DirectiveRule, error) {
	kind := types.DirectiveKind(yr.Kind)
	switch kind {
	case types.DirectiveSourceFormat, types.DirectiveListing, types.DirectiveOption, types.DirectiveUnknown:
	case "":
		kind = types.DirectiveUnknown
	default:
		return nil, fmt.Errorf("rule %s: unknown kind %q", yr.ID, yr.Kind)
	}

	r := &types.DirectiveRule{
		ID:               yr.ID,
		Name:             yr.Name,
		Kind:             kind,
		Pattern:          yr.Pattern,
		Description:      yr.Description,
		Keywords:         yr.Keywords,
		Examples:         yr.Examples,
		NegativeExamples: yr.NegativeExamples,
		Priority:         yr.Priority,
	}
	r.StructuralID = r.ComputeStructuralID()
	return r, nil
}
