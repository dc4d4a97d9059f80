package logging

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strings"
)

const clipLimit = 240

// Truncate flattens value onto one line and clips it for log output.
func Truncate(value string) string {
	value = strings.TrimSpace(value)
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	if value == "" {
		return "<empty>"
	}
	if len(value) > clipLimit {
		return value[:clipLimit] + "..."
	}
	return value
}

func FormatEventLine(event Event) string {
	ts := event.Time.Format("15:04:05")
	level := strings.ToUpper(event.Level.String())
	return fmt.Sprintf("%s [%s] %s%s\n", ts, level, event.Message, FormatFields(event.Level, event.Fields))
}

// FormatFields renders fields as " k=v k=v", or "" when there are none.
func FormatFields(level slog.Level, fields map[string]any) string {
	if len(fields) == 0 {
		return ""
	}
	keys := orderedFieldKeys(level, fields)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+"="+formatFieldValue(fields[key]))
	}
	return " " + strings.Join(parts, " ")
}

func formatFieldValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "<nil>"
	case error:
		return v.Error()
	case string:
		return quoteIfSpaced(v)
	case []byte:
		return FormatHTTPPayload(v)
	case fmt.Stringer:
		return v.String()
	}
	switch reflect.ValueOf(value).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		if payload, err := json.Marshal(value); err == nil {
			return string(payload)
		}
	}
	return fmt.Sprintf("%v", value)
}

func quoteIfSpaced(value string) string {
	if value == "" {
		return `""`
	}
	if strings.ContainsAny(value, " \t") && !isJSONContainer(value) {
		return fmt.Sprintf("%q", value)
	}
	return value
}

func isJSONContainer(value string) bool {
	trimmed := strings.TrimSpace(value)
	return strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")
}

// orderedFieldKeys sorts keys alphabetically but moves bulky payload fields
// to the end so the short ones stay readable.
func orderedFieldKeys(_ slog.Level, fields map[string]any) []string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	inline := make([]string, 0, len(keys))
	payloadKeys := make([]string, 0, 2)
	for _, key := range keys {
		if isPayloadFieldKey(key) {
			payloadKeys = append(payloadKeys, key)
			continue
		}
		inline = append(inline, key)
	}
	return append(inline, payloadKeys...)
}

func isPayloadFieldKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "payload", "response", "response_body", "body", "data":
		return true
	default:
		return false
	}
}
