package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/praetorian-inc/cobprep/pkg/grammar"
	"github.com/praetorian-inc/cobprep/pkg/types"
	"github.com/spf13/cobra"
)

var (
	directivesPath   string
	directivesFormat string
)

var directivesCmd = &cobra.Command{
	Use:   "directives",
	Short: "Manage compiler directive rules",
	Long:  "Commands for listing and inspecting the rules that recognize compiler directive lines",
}

var directivesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List directive rules",
	Long:  "Display the directive rules in the order they are tried",
	RunE:  runDirectivesList,
}

func init() {
	directivesCmd.AddCommand(directivesListCmd)
	directivesListCmd.Flags().StringVar(&directivesPath, "rules", "", "Path to a custom directive rules file")
	directivesListCmd.Flags().StringVar(&directivesFormat, "format", "table", "Output format: table, json")
}

func runDirectivesList(cmd *cobra.Command, args []string) error {
	loader := grammar.NewLoader()

	var rules []*types.DirectiveRule
	var err error
	if directivesPath != "" {
		rules, err = loader.LoadRuleFile(directivesPath)
		if err != nil {
			return fmt.Errorf("loading directive rules from %s: %w", directivesPath, err)
		}
	} else {
		rules, err = loader.LoadBuiltinRules()
		if err != nil {
			return fmt.Errorf("loading builtin directive rules: %w", err)
		}
	}
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Priority < rules[j].Priority })

	switch directivesFormat {
	case "json":
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(rules)
	case "table":
		return outputDirectivesTable(cmd, rules)
	default:
		return fmt.Errorf("unknown output format: %s", directivesFormat)
	}
}

func outputDirectivesTable(cmd *cobra.Command, rules []*types.DirectiveRule) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "ID\tName\tKind\tPriority\n")
	fmt.Fprintf(w, "--\t----\t----\t--------\n")
	for _, r := range rules {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", r.ID, r.Name, r.Kind, r.Priority)
	}
	return nil
}
