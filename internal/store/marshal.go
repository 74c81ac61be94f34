package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/tester/internal/value"
)

// timeLayout has a fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

// encodeValue stores an export as canonical JSON. Values without a JSON
// form, such as functions, are stored as their printed form.
func encodeValue(v any) string {
	data, err := value.MarshalCanonical(v)
	if err != nil {
		data, _ = value.MarshalCanonical(value.Format(v))
	}
	return string(data)
}

func decodeValue(s string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("decode stored value: %w", err)
	}
	return v, nil
}

func encodeStrings(ss []string) string {
	if ss == nil {
		ss = []string{}
	}
	data, _ := json.Marshal(ss)
	return string(data)
}

func decodeStrings(s string) ([]string, error) {
	var ss []string
	if err := json.Unmarshal([]byte(s), &ss); err != nil {
		return nil, fmt.Errorf("decode string list: %w", err)
	}
	return ss, nil
}
