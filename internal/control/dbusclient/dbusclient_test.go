package dbusclient

import (
	"errors"
	"strings"
	"testing"
)

func TestCheckOwner(t *testing.T) {
	if err := checkOwner(":1.42", nil); err != nil {
		t.Errorf("expected success for owned name, got %v", err)
	}

	err := checkOwner("", nil)
	if err == nil {
		t.Fatal("expected error for unowned name")
	}
	if strings.Contains(err.Error(), "%!w") {
		t.Errorf("error renders a nil wrap: %q", err)
	}

	busErr := errors.New("connection closed")
	err = checkOwner("", busErr)
	if !errors.Is(err, busErr) {
		t.Errorf("expected bus error wrapped, got %v", err)
	}
}
