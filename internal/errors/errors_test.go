package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestLoreError_Error(t *testing.T) {
	err := New(CodeConfigInvalid, "rebalance threshold must be positive")
	expected := "[CONFIG_INVALID] rebalance threshold must be positive"
	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}
}

func TestLoreError_Wrap(t *testing.T) {
	inner := fmt.Errorf("permission denied")
	err := Wrap(CodeIOFailed, "write index failed", inner)

	if err.Error() != "[IO_FAILED] write index failed: permission denied" {
		t.Errorf("unexpected error string: %s", err.Error())
	}

	// Unwrap should return inner
	if !errors.Is(err, inner) {
		t.Error("errors.Is should find inner error")
	}
}

func TestLoreError_WithSuggestion(t *testing.T) {
	err := New(CodeTreeNotFound, "memory tree not initialized").
		WithSuggestion("run 'lore init' first")

	if err.Suggestion != "run 'lore init' first" {
		t.Errorf("unexpected suggestion: %s", err.Suggestion)
	}
}

func TestLoreError_ErrorsAs(t *testing.T) {
	err := Wrap(CodeVerifyFailed, "index row missing after write", fmt.Errorf("row not found"))

	var loreErr *LoreError
	if !errors.As(err, &loreErr) {
		t.Fatal("errors.As should work")
	}
	if loreErr.Code != CodeVerifyFailed {
		t.Errorf("expected code %q, got %q", CodeVerifyFailed, loreErr.Code)
	}
}

func TestAsCode(t *testing.T) {
	err := New(CodeDomainUnknown, "unknown domain: widgets")
	if AsCode(err) != CodeDomainUnknown {
		t.Errorf("expected code %q, got %q", CodeDomainUnknown, AsCode(err))
	}

	// Non-LoreError
	plain := fmt.Errorf("plain error")
	if AsCode(plain) != "" {
		t.Error("expected empty code for non-LoreError")
	}
}

func TestSuggestion(t *testing.T) {
	err := New(CodeIndexMalformed, "index has no title heading").WithSuggestion("run 'lore doctor'")
	if Suggestion(err) != "run 'lore doctor'" {
		t.Errorf("expected 'run 'lore doctor'', got %q", Suggestion(err))
	}

	// Non-LoreError
	if Suggestion(fmt.Errorf("plain")) != "" {
		t.Error("expected empty suggestion for non-LoreError")
	}
}

func TestLoreError_WrappedAs(t *testing.T) {
	inner := New(CodeIOFailed, "disk full")
	wrapped := fmt.Errorf("write failed: %w", inner)

	var loreErr *LoreError
	if !errors.As(wrapped, &loreErr) {
		t.Fatal("errors.As should unwrap through fmt.Errorf")
	}
	if loreErr.Code != CodeIOFailed {
		t.Errorf("expected code %q, got %q", CodeIOFailed, loreErr.Code)
	}
}
