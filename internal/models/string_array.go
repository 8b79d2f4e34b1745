package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// StringArray is a JSON-encoded list column (article tags). Entries are
// trimmed and de-duplicated; a bare JSON string decodes as one entry.
type StringArray []string

// Normalize drops blank and repeated entries, keeping first-seen order.
func (a StringArray) Normalize() StringArray {
	out := make(StringArray, 0, len(a))
	seen := make(map[string]struct{}, len(a))
	for _, s := range a {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func (a StringArray) Value() (driver.Value, error) {
	b, err := json.Marshal([]string(a.Normalize()))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (a *StringArray) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*a = StringArray{}
		return nil
	case []byte:
		return a.UnmarshalJSON(v)
	case string:
		return a.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("models.StringArray: unsupported Scan type %T", value)
	}
}

func (a *StringArray) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = StringArray{}
		return nil
	}
	if data[0] == '"' {
		var single string
		if err := json.Unmarshal(data, &single); err != nil {
			return fmt.Errorf("models.StringArray: %w", err)
		}
		*a = StringArray{single}.Normalize()
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("models.StringArray: %w", err)
	}
	*a = StringArray(list).Normalize()
	return nil
}
