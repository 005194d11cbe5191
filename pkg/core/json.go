//go:build !go1.24

package core

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// JSONEncode encodes a value to JSON bytes using Sonic (fail-fast)
// Sonic uses JIT compilation and SIMD, which is why it is preferred on
// toolchains it supports.
func JSONEncode(v interface{}) ([]byte, error) {
	if v == nil {
		return nil, &Error{Code: "INVALID_INPUT", Message: "cannot encode nil value"}
	}

	data, err := sonic.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json encode failed: %w", err)
	}
	return data, nil
}

// JSONDecode decodes JSON bytes to a value using Sonic (fail-fast)
func JSONDecode(data []byte, v interface{}) error {
	if len(data) == 0 {
		return &Error{Code: "INVALID_INPUT", Message: "cannot decode empty data"}
	}
	if v == nil {
		return &Error{Code: "INVALID_INPUT", Message: "cannot decode into nil value"}
	}

	if err := sonic.Unmarshal(data, v); err != nil {
		return fmt.Errorf("json decode failed: %w", err)
	}
	return nil
}

// JSONEncodeIndent encodes a value to indented JSON bytes using Sonic.
func JSONEncodeIndent(v interface{}) ([]byte, error) {
	if v == nil {
		return nil, &Error{Code: "INVALID_INPUT", Message: "cannot encode nil value"}
	}

	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("json encode failed: %w", err)
	}
	return data, nil
}
