package core

import "strings"

// FilterRows returns the indices of records where any value contains text,
// compared case-insensitively. Empty text matches every row.
func FilterRows(records RecordSet, text string) []int {
	out := make([]int, 0, len(records))
	needle := strings.ToLower(text)

	for i, rec := range records {
		if needle == "" || recordContains(rec, needle) {
			out = append(out, i)
		}
	}

	return out
}

func recordContains(rec Record, needle string) bool {
	for _, v := range rec {
		if strings.Contains(strings.ToLower(FormatValue(v)), needle) {
			return true
		}
	}
	return false
}
