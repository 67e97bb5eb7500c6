package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/sheetcheck/internal/tabular"
)

func newConvertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <input> <output>",
		Short: "Convert a sheet between CSV and XLSX",
		Long: "Convert a sheet between CSV and XLSX. Formats come from the file\n" +
			"extensions; every value is written as text, as it was parsed.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(args[0], args[1])
		},
	}
}

func runConvert(in, out string) error {
	format, ok := tabular.DetectFormat(out)
	if !ok {
		return withCode(exitUsage, fmt.Errorf("%w: %s", tabular.ErrUnsupportedFormat, out))
	}

	res, err := parseFile(in)
	if err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return withCode(exitIO, err)
	}
	if err := tabular.Write(f, format, res.Columns, res.Records); err != nil {
		f.Close()
		return withCode(exitIO, fmt.Errorf("write %s: %w", out, err))
	}
	if err := f.Close(); err != nil {
		return withCode(exitIO, err)
	}
	return nil
}
