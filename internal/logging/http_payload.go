package logging

import (
	"bytes"
	"encoding/json"
	"strings"
)

// FormatHTTPPayload renders a response body on a single line for log output.
// JSON is compacted (and unwrapped when the body is a JSON string); anything
// else is flattened and clipped.
func FormatHTTPPayload(raw []byte) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return "<empty>"
	}

	var quoted string
	if err := json.Unmarshal([]byte(trimmed), &quoted); err == nil {
		trimmed = strings.TrimSpace(quoted)
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(trimmed)); err == nil && isJSONContainer(trimmed) {
		return buf.String()
	}
	return Truncate(trimmed)
}
