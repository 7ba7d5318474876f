package errors

import (
	"errors"
	"fmt"
)

// ErrOptimisticLock conditional update matched no row: the record changed
// between read and write.
var ErrOptimisticLock = errors.New("record was modified by another operation, refresh and retry")

// StoreError a failed call against the record store. Validation errors never
// produce one.
type StoreError struct {
	Op    string
	Table string
	Err   error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Table, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Store wraps err as a StoreError; nil stays nil.
func Store(op, table string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Table: table, Err: err}
}

// IsStore reports whether err (or anything it wraps) is a StoreError.
func IsStore(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
