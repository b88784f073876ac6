// README: Timestamp decoding for client payloads (RFC 3339, or naive ISO 8601 read as UTC).
package handlers

import (
	"encoding/json"
	"fmt"
	"time"
)

// Layouts tried after RFC 3339. Values without a zone are taken as UTC.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

type wireTime time.Time

func (t *wireTime) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if parsed, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		*t = wireTime(parsed)
		return nil
	}
	for _, layout := range naiveLayouts {
		if parsed, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			*t = wireTime(parsed)
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", raw)
}
