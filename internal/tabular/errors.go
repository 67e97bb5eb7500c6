package tabular

import (
	"errors"
	"fmt"

	"github.com/JonMunkholm/sheetcheck/internal/core"
)

var (
	// ErrUnsupportedFormat is returned for files that are neither CSV nor XLSX.
	ErrUnsupportedFormat = errors.New("unsupported file type")

	// ErrEmptyFile is returned when a file has no header row.
	ErrEmptyFile = errors.New("empty file")
)

// SourceFormatError reports a file that could not be decoded at all.
// Row-level problems are reported in core.ParseResult.Errors instead.
type SourceFormatError struct {
	File   string
	Format core.SourceFormat // Empty when the format could not be determined
	Err    error
}

func (e *SourceFormatError) Error() string {
	if e.Format == "" {
		return fmt.Sprintf("%v: %s", e.Err, e.File)
	}
	return fmt.Sprintf("malformed %s file %s: %v", e.Format, e.File, e.Err)
}

func (e *SourceFormatError) Unwrap() error {
	return e.Err
}
