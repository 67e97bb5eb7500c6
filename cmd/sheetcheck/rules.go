package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/sheetcheck/internal/core"
)

func newRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect business rule sets",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "lint <file>",
		Short: "Check that a JSON or YAML rule set is loadable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLint(cmd.OutOrStdout(), args[0])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "kinds",
		Short: "List the supported rule kinds and their fields",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, k := range core.RuleKinds() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-22s %-22s %s\n", k.Kind, k.Label, strings.Join(k.Fields, ", "))
			}
		},
	})

	return cmd
}

func runLint(out io.Writer, path string) error {
	rules, err := readRules(path)
	if err != nil {
		return err
	}

	store := core.NewRuleStore()
	if err := store.Replace(rules); err != nil {
		return withCode(exitInvalid, fmt.Errorf("%s: %w", path, err))
	}

	for _, r := range store.List() {
		fmt.Fprintln(out, r)
	}
	fmt.Fprintf(out, "%d rules OK\n", store.Len())
	return nil
}
