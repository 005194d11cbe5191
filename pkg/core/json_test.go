package core

import (
	"errors"
	"testing"
)

func TestJSONEncodeDecode(t *testing.T) {
	type payload struct {
		ID    string `json:"id"`
		Count int    `json:"count"`
	}

	data, err := JSONEncode(payload{ID: "x", Count: 2})
	if err != nil {
		t.Fatalf("JSONEncode() error = %v", err)
	}
	if string(data) != `{"id":"x","count":2}` {
		t.Errorf("JSONEncode() = %s", data)
	}

	var out payload
	if err := JSONDecode(data, &out); err != nil {
		t.Fatalf("JSONDecode() error = %v", err)
	}
	if out.ID != "x" || out.Count != 2 {
		t.Errorf("JSONDecode() = %+v", out)
	}
}

func TestJSONEncode_FailFast(t *testing.T) {
	_, err := JSONEncode(nil)
	var coreErr *Error
	if !errors.As(err, &coreErr) || coreErr.Code != "INVALID_INPUT" {
		t.Errorf("JSONEncode(nil) error = %v, want INVALID_INPUT", err)
	}
}

func TestJSONDecode_FailFast(t *testing.T) {
	var v map[string]interface{}
	if err := JSONDecode(nil, &v); err == nil {
		t.Error("JSONDecode(empty) should fail")
	}
	if err := JSONDecode([]byte(`{}`), nil); err == nil {
		t.Error("JSONDecode(nil target) should fail")
	}
	if err := JSONDecode([]byte(`{not json`), &v); err == nil {
		t.Error("JSONDecode(malformed) should fail")
	}
}
