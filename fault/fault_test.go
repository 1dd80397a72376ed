package fault_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/TahaGorme/slashy/fault"
)

func TestIs(t *testing.T) {
	err := fault.New(fault.ParseMismatch, "no buttons")
	if !fault.Is(err, fault.ParseMismatch) {
		t.Error("fault does not match its own kind")
	}
	if fault.Is(err, fault.ExternalCall) {
		t.Error("fault matches a different kind")
	}
	if fault.Is(errors.New("plain"), fault.ParseMismatch) {
		t.Error("plain error matches a kind")
	}
}

func TestWrap(t *testing.T) {
	if fault.Wrap(fault.ExternalCall, nil) != nil {
		t.Error("wrapped nil is not nil")
	}
	inner := errors.New("connection reset")
	err := fault.Wrapf(fault.ExternalCall, "couldn't call service: %w", inner)
	if !fault.Is(err, fault.ExternalCall) {
		t.Error("wrapped fault loses its kind")
	}
	if !errors.Is(err, inner) {
		t.Error("wrapped fault loses its cause")
	}
	wrapped := fmt.Errorf("outer: %w", err)
	if !fault.Is(wrapped, fault.ExternalCall) {
		t.Error("kind not found through wrapping")
	}
}
