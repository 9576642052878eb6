package output

import (
	"encoding/json"
	"io"
)

// PrintJSON writes data as indented JSON to the writer.
func PrintJSON(w io.Writer, data any) error {
	return encodeJSON(w, data, "  ")
}

// PrintJSONCompact writes data as one line of JSON. File paths are
// printed as-is, without HTML escaping.
func PrintJSONCompact(w io.Writer, data any) error {
	return encodeJSON(w, data, "")
}

func encodeJSON(w io.Writer, data any, indent string) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	if indent != "" {
		encoder.SetIndent("", indent)
	}
	return encoder.Encode(data)
}
