//go:build go1.24

package core

import (
	"encoding/json"
	"fmt"
)

// JSONEncode encodes a value to JSON bytes (fail-fast).
//
// Go 1.24+: Sonic's JIT loader is not compatible with the Go runtime ABI changes,
// so the standard library is used instead.
func JSONEncode(v interface{}) ([]byte, error) {
	if v == nil {
		return nil, &Error{Code: "INVALID_INPUT", Message: "cannot encode nil value"}
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json encode failed: %w", err)
	}
	return data, nil
}

// JSONDecode decodes JSON bytes to a value (fail-fast).
func JSONDecode(data []byte, v interface{}) error {
	if len(data) == 0 {
		return &Error{Code: "INVALID_INPUT", Message: "cannot decode empty data"}
	}
	if v == nil {
		return &Error{Code: "INVALID_INPUT", Message: "cannot decode into nil value"}
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("json decode failed: %w", err)
	}
	return nil
}

// JSONEncodeIndent encodes a value to indented JSON bytes.
func JSONEncodeIndent(v interface{}) ([]byte, error) {
	if v == nil {
		return nil, &Error{Code: "INVALID_INPUT", Message: "cannot encode nil value"}
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("json encode failed: %w", err)
	}
	return data, nil
}
