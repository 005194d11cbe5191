package core

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		name    string
		address string
		wantErr bool
	}{
		{name: "valid", address: "todos.created"},
		{name: "empty", address: "", wantErr: true},
		{name: "max length", address: strings.Repeat("a", 255)},
		{name: "too long", address: strings.Repeat("a", 256), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAddress(tt.address)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateAddress() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, &Error{Code: "INVALID_ADDRESS"}) {
				t.Errorf("error code = %v", err)
			}
		})
	}
}

func TestValidateBody(t *testing.T) {
	if err := ValidateBody(nil); err == nil {
		t.Error("nil body should be rejected")
	}
	if err := ValidateBody(map[string]string{}); err != nil {
		t.Errorf("ValidateBody() error = %v", err)
	}
}

func TestValidateVerticle(t *testing.T) {
	if err := ValidateVerticle(nil); err == nil {
		t.Error("nil verticle should be rejected")
	}
	if err := ValidateVerticle(NewBaseVerticle("ok")); err != nil {
		t.Errorf("ValidateVerticle() error = %v", err)
	}
}
