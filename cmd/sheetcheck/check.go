package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/sheetcheck/internal/core"
	"github.com/JonMunkholm/sheetcheck/internal/export"
	"github.com/JonMunkholm/sheetcheck/internal/tabular"
)

type checkOptions struct {
	rulesFile string
	asJSON    bool
}

func newCheckCmd() *cobra.Command {
	var opts checkOptions

	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Validate a CSV or XLSX file and report cell errors",
		Long: "Validate a CSV or XLSX file against the id/name schema.\n" +
			"Exits 1 when the sheet has cell or parse errors.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.rulesFile, "rules", "", "Rule set (JSON or YAML) to load alongside the sheet")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the full session snapshot as JSON")

	return cmd
}

func runCheck(out io.Writer, path string, opts checkOptions) error {
	res, err := parseFile(path)
	if err != nil {
		return err
	}

	sess := core.NewSession("cli", core.DefaultSchema(), nil)
	if err := sess.OnParsed(filepath.Base(path), res); err != nil {
		return withCode(exitInvalid, err)
	}

	if opts.rulesFile != "" {
		rules, err := readRules(opts.rulesFile)
		if err != nil {
			return err
		}
		if err := sess.ReplaceRules(rules); err != nil {
			return withCode(exitInvalid, fmt.Errorf("%s: %w", opts.rulesFile, err))
		}
	}

	snap := sess.Snapshot()
	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			return withCode(exitIO, err)
		}
	} else {
		printReport(out, snap)
	}

	if !snap.Valid() {
		return errInvalid
	}
	return nil
}

func printReport(out io.Writer, snap core.Snapshot) {
	fmt.Fprintf(out, "%s: %d rows, %d columns\n", snap.FileName, len(snap.Records), len(snap.Columns))

	for _, msg := range snap.ParseErrors {
		fmt.Fprintf(out, "parse: %s\n", msg)
	}
	for _, fe := range snap.Errors.Entries() {
		fmt.Fprintf(out, "row %d, %s: %s\n", fe.Row+1, fe.Field, fe.Message)
	}
	for _, r := range snap.Rules {
		fmt.Fprintf(out, "rule: %s\n", r)
	}

	if snap.Valid() {
		fmt.Fprintln(out, "OK")
	} else {
		fmt.Fprintf(out, "%d cell errors, %d parse errors\n", len(snap.Errors), len(snap.ParseErrors))
	}
}

// parseFile opens and decodes a sheet.
func parseFile(path string) (core.ParseResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return core.ParseResult{}, withCode(exitIO, err)
	}
	defer f.Close()

	res, err := tabular.Parse(filepath.Base(path), f)
	if err != nil {
		return core.ParseResult{}, withCode(exitInvalid, err)
	}
	return res, nil
}

// readRules loads a rule set, picking the format from the extension.
func readRules(path string) ([]core.Rule, error) {
	format, err := export.RuleFormatFromFilename(path)
	if err != nil {
		return nil, withCode(exitUsage, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, withCode(exitIO, err)
	}
	defer f.Close()

	rules, err := export.DecodeRules(f, format)
	if err != nil {
		return nil, withCode(exitInvalid, fmt.Errorf("%s: %w", path, err))
	}
	return rules, nil
}
