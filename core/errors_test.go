package core

import (
	stderrors "errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestMapError_KeepsRichEnvelope(t *testing.T) {
	original := policyNotFoundError(SlotReporter, "kafka")
	mapped := MapError(original)
	if mapped.TextCode != PoolErrorPolicyNotFound {
		t.Fatalf("expected policy not found text code, got %q", mapped.TextCode)
	}
	if mapped.Category != goerrors.CategoryNotFound {
		t.Fatalf("expected not found category, got %q", mapped.Category)
	}
}

func TestMapError_WrapsPlainErrors(t *testing.T) {
	mapped := MapError(stderrors.New("core: pool_name is required"))
	if mapped == nil {
		t.Fatalf("expected mapped error")
	}
	if mapped.TextCode == "" {
		t.Fatalf("expected a pool text code on mapped error")
	}
	if MapError(nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
}
