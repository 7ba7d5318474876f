package errors

import (
	"context"
	"errors"
	"testing"
)

func TestStore_WrapsAndUnwraps(t *testing.T) {
	err := Store("update", "shifts", context.DeadlineExceeded)
	if !IsStore(err) {
		t.Fatalf("expected StoreError, got %T", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("cause lost through Unwrap")
	}
	if got := err.Error(); got != "store update shifts: context deadline exceeded" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestStore_Nil(t *testing.T) {
	if Store("select", "users", nil) != nil {
		t.Error("nil error must stay nil")
	}
	if IsStore(ErrOptimisticLock) {
		t.Error("sentinel is not a StoreError")
	}
}
