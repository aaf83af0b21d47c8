package profile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var errNotObject = errors.New("not an object")

// object decodes a JSON object keeping its keys exactly as written.
// encoding/json matches struct tags ignoring case, Mojang's keys are case
// sensitive.
type object map[string]json.RawMessage

func decodeObject(raw []byte) (object, error) {
	var obj object
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errNotObject
	}
	return obj, nil
}

// has reports whether key is present and not null.
func (obj object) has(key string) bool {
	raw, ok := obj[key]
	return ok && !bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func (obj object) object(key string) (object, error) {
	if !obj.has(key) {
		return nil, fmt.Errorf("missing %q", key)
	}
	child, err := decodeObject(obj[key])
	if err != nil {
		return nil, fmt.Errorf("%q: %w", key, err)
	}
	return child, nil
}

// string returns the string at key or "" when the key is absent or null.
func (obj object) string(key string) (string, error) {
	if !obj.has(key) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(obj[key], &s); err != nil {
		return "", fmt.Errorf("%q: %w", key, err)
	}
	return s, nil
}
