package fileutil

import (
	"encoding/json"
	"io"
)

// FprintJSON writes value as indented JSON without HTML escaping.
func FprintJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(value)
}
