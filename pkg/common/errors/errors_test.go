package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsTerminal(t *testing.T) {
	if !IsTerminal(ErrWrite) || !IsTerminal(ErrClosed) {
		t.Fatal("ErrWrite and ErrClosed are terminal")
	}
	if IsTerminal(ErrNotOpen) || IsTerminal(ErrBusy) || IsTerminal(nil) {
		t.Fatal("usage errors and nil are not terminal")
	}
	if !IsTerminal(fmt.Errorf("flush: %w", ErrWrite)) {
		t.Fatal("IsTerminal should see through wrapping")
	}
}

func TestIsUsage(t *testing.T) {
	if !IsUsage(ErrNotOpen) || !IsUsage(ErrBusy) {
		t.Fatal("ErrNotOpen and ErrBusy are usage errors")
	}
	if IsUsage(ErrWrite) || IsUsage(ErrClosed) || IsUsage(nil) {
		t.Fatal("terminal errors and nil are not usage errors")
	}
	if IsUsage(errors.New("unrelated")) {
		t.Fatal("unrelated errors are not usage errors")
	}
}
