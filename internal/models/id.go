package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// ID is a backend row identifier, carried as text. Numeric ids are written back as
// JSON numbers, anything else as a string.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	v, err := flexText(b)
	*id = ID(v)
	return err
}

func (id ID) MarshalJSON() ([]byte, error) {
	if id.numeric() {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id ID) numeric() bool {
	if id == "" {
		return false
	}
	_, err := strconv.ParseInt(string(id), 10, 64)
	return err == nil
}

func (id ID) String() string { return string(id) }

// FlexString accepts either a JSON string or a JSON number.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	v, err := flexText(b)
	*f = FlexString(v)
	return err
}

func flexText(b []byte) (string, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return "", nil
	}
	if b[0] == '"' {
		var s string
		err := json.Unmarshal(b, &s)
		return s, err
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}
