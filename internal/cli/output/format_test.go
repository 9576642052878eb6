package output

import (
	"bytes"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		def     Format
		want    Format
		wantErr bool
	}{
		{name: "table", input: "table", def: FormatRaw, want: FormatTable},
		{name: "empty uses default", input: "", def: FormatRaw, want: FormatRaw},
		{name: "empty uses table default", input: "", def: FormatTable, want: FormatTable},
		{name: "json", input: "json", want: FormatJSON},
		{name: "JSON uppercase", input: "JSON", want: FormatJSON},
		{name: "raw", input: "raw", want: FormatRaw},
		{name: "compact alias", input: "compact", want: FormatRaw},
		{name: "yaml", input: "yaml", want: FormatYAML},
		{name: "yml alias", input: "yml", want: FormatYAML},
		{name: "whitespace trimmed", input: "  table  ", want: FormatTable},
		{name: "invalid format", input: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.input, tt.def)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type offsetsTable []int

func (o offsetsTable) Headers() []string { return []string{"Offset"} }

func (o offsetsTable) Rows() [][]string {
	rows := make([][]string, len(o))
	for i, v := range o {
		rows[i] = []string{strconv.Itoa(v)}
	}
	return rows
}

func TestPrinter_Print(t *testing.T) {
	data := offsetsTable{0, 4}

	tests := []struct {
		format Format
		want   string
	}{
		{FormatRaw, "[0,4]\n"},
		{FormatJSON, "[\n  0,\n  4\n]\n"},
		{FormatYAML, "- 0\n- 4\n"},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, NewPrinter(&buf, tt.format, false).Print(data))
			assert.Equal(t, tt.want, buf.String())
		})
	}

	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatTable, false).Print(data))
	assert.Contains(t, buf.String(), "OFFSET")
	assert.Contains(t, buf.String(), "4")

	buf.Reset()
	require.NoError(t, NewPrinter(&buf, FormatTable, false).Print(map[string]int{"a": 1}))
	assert.JSONEq(t, `{"a":1}`, buf.String(), "non-table data falls back to JSON")

	assert.Error(t, NewPrinter(&buf, Format("xml"), false).Print(data))
}

func TestPrinter_Status(t *testing.T) {
	var buf bytes.Buffer
	plain := NewPrinter(&buf, FormatTable, false)

	plain.Success("saved")
	plain.Error("failed")
	plain.Warning("careful")
	assert.Equal(t, "saved\nfailed\ncareful\n", buf.String())

	buf.Reset()
	NewPrinter(&buf, FormatTable, true).Success("saved")
	assert.Equal(t, "\033[32msaved\033[0m\n", buf.String())
}

func TestDefaultPrinter(t *testing.T) {
	printer := DefaultPrinter()
	assert.Equal(t, FormatRaw, printer.Format())
	assert.NotNil(t, printer.Writer())
}
