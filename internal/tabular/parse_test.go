package tabular

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/sheetcheck/internal/core"
)

func TestParseCSV(t *testing.T) {
	input := "id,name,client\n1,Alice,ACME\n\n2,Bob,\n"

	res, err := Parse("tasks.csv", strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, core.FormatCSV, res.Format)
	assert.Equal(t, []string{"id", "name", "client"}, res.Columns)
	assert.Equal(t, core.RecordSet{
		{"id": "1", "name": "Alice", "client": "ACME"},
		{"id": "2", "name": "Bob", "client": ""},
	}, res.Records)
	assert.Empty(t, res.Errors)
}

func TestParseCSV_RaggedRows(t *testing.T) {
	input := "id,name\n1,Alice,extra\n2\n3,Carol\n"

	res, err := Parse("tasks.CSV", strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Row 1: expected 2 fields, got 3",
		"Row 2: expected 2 fields, got 1",
	}, res.Errors)

	require.Len(t, res.Records, 3)
	assert.Equal(t, core.Record{"id": "1", "name": "Alice"}, res.Records[0])

	// A short row leaves the missing field absent, not empty.
	_, ok := res.Records[1].Lookup("name")
	assert.False(t, ok)
}

func TestParseCSV_BOMAndInvalidUTF8(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("id,name\n1,Ren\xe9\n")...)

	res, err := Parse("latin1.csv", bytes.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name"}, res.Columns)
	assert.Equal(t, "Ren?", res.Records[0]["name"])
}

func TestParseCSV_HeaderNormalization(t *testing.T) {
	res, err := Parse("h.csv", strings.NewReader(" id ,,name,name\n1,x,a,b\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "column_2", "name", "name_2"}, res.Columns)
	assert.Equal(t, core.Record{"id": "1", "column_2": "x", "name": "a", "name_2": "b"}, res.Records[0])
}

func TestParseCSV_LeadingBlankRows(t *testing.T) {
	res, err := Parse("h.csv", strings.NewReader(",,\n\nid,name\n1,A\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, res.Columns)
	assert.Len(t, res.Records, 1)
}

func TestParseCSV_DelimiterOnlyRowIsRecord(t *testing.T) {
	res, err := Parse("h.csv", strings.NewReader("id,name\n1,A\n,\n\n2,B\n"))
	require.NoError(t, err)

	assert.Equal(t, core.RecordSet{
		{"id": "1", "name": "A"},
		{"id": "", "name": ""},
		{"id": "2", "name": "B"},
	}, res.Records)
	assert.Empty(t, res.Errors)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		input    []byte
		check    func(t *testing.T, err error)
	}{
		{
			name:     "unsupported extension",
			filename: "report.pdf",
			input:    []byte("%PDF"),
			check: func(t *testing.T, err error) {
				var sfe *SourceFormatError
				require.ErrorAs(t, err, &sfe)
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				assert.Equal(t, core.MapError(err).Code, "FILE002")
			},
		},
		{
			name:     "no extension",
			filename: "README",
			input:    []byte("id\n1\n"),
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
			},
		},
		{
			name:     "empty csv",
			filename: "empty.csv",
			input:    []byte(""),
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrEmptyFile)
				assert.Equal(t, "FILE005", core.MapError(err).Code)
			},
		},
		{
			name:     "blank csv",
			filename: "blank.csv",
			input:    []byte(" , \n\n"),
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrEmptyFile)
			},
		},
		{
			name:     "corrupt xlsx",
			filename: "broken.xlsx",
			input:    []byte("this is not a zip archive"),
			check: func(t *testing.T, err error) {
				var sfe *SourceFormatError
				require.True(t, errors.As(err, &sfe))
				assert.Equal(t, core.FormatXLSX, sfe.Format)
				assert.Equal(t, "FILE003", core.MapError(err).Code)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.filename, bytes.NewReader(tt.input))
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		filename string
		want     core.SourceFormat
		ok       bool
	}{
		{"a.csv", core.FormatCSV, true},
		{"A.XLSX", core.FormatXLSX, true},
		{"legacy.xls", core.FormatXLSX, true},
		{"notes.txt", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := DetectFormat(tt.filename)
		assert.Equal(t, tt.want, got, tt.filename)
		assert.Equal(t, tt.ok, ok, tt.filename)
	}
}
