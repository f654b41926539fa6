package insure

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// NormalizedEvent is one activity-feed entry reduced to the fields the
// matching logic needs. Immutable once constructed.
type NormalizedEvent struct {
	ID        string
	Text      string
	Timestamp time.Time
}

// rawEntry mirrors one feed entry. The text fields stay raw so non-string
// payloads can still be stringified.
type rawEntry struct {
	Log       json.RawMessage `json:"log"`
	Event     json.RawMessage `json:"event"`
	Timestamp int64           `json:"timestamp"`
}

// NormalizeFeed converts the raw events payload into an ordered sequence of
// NormalizedEvent. The feed arrives either as a keyed mapping id->entry or as
// a positional sequence; both are walked in document order. Entries that do
// not decode are skipped, never reported as errors.
func NormalizeFeed(raw json.RawMessage) []NormalizedEvent {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil
	}
	switch trimmed[0] {
	case '{':
		return normalizeMapping(trimmed)
	case '[':
		return normalizeSequence(trimmed)
	default:
		return nil
	}
}

// normalizeMapping walks the object with a token decoder. Go maps would
// randomize key order; the feed's document order must be preserved because
// the first qualifying event wins during matching.
func normalizeMapping(raw []byte) []NormalizedEvent {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return nil
	}
	var out []NormalizedEvent
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return out
		}
		key, ok := keyTok.(string)
		if !ok {
			return out
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return out
		}
		var entry rawEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		if ev, ok := buildEvent(key, entry); ok {
			out = append(out, ev)
		}
	}
	return out
}

func normalizeSequence(raw []byte) []NormalizedEvent {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil
	}
	var out []NormalizedEvent
	for i, item := range entries {
		var entry rawEntry
		if err := json.Unmarshal(item, &entry); err != nil {
			continue
		}
		if ev, ok := buildEvent(strconv.Itoa(i), entry); ok {
			out = append(out, ev)
		}
	}
	return out
}

// buildEvent prefers the log field, falling back to event when log is empty.
// A missing timestamp yields the zero instant, which the lookback cutoffs
// naturally treat as stale.
func buildEvent(id string, entry rawEntry) (NormalizedEvent, bool) {
	text := coerceText(entry.Log)
	if text == "" {
		text = coerceText(entry.Event)
	}
	if text == "" {
		return NormalizedEvent{}, false
	}
	var ts time.Time
	if entry.Timestamp > 0 {
		ts = time.Unix(entry.Timestamp, 0).UTC()
	}
	return NormalizedEvent{ID: id, Text: text, Timestamp: ts}, true
}

func coerceText(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s
	}
	var v any
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return ""
	}
	return fmt.Sprint(v)
}
