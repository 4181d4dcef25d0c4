package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Identity is the decoded "who is logged in" pair.
// The zero value means no session.
type Identity struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// IsZero reports whether the identity is empty.
func (i Identity) IsZero() bool {
	return i.ID == "" && i.Role == ""
}

// FlexibleID accepts identifiers encoded either as JSON strings or numbers.
// The department API emits integer primary keys for some account types.
type FlexibleID string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexibleID) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == "" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		*f = FlexibleID(strconv.FormatInt(i, 10))
		return nil
	}
	*f = FlexibleID(n.String())
	return nil
}

func (f FlexibleID) String() string {
	return string(f)
}
