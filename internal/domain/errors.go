package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrStorage    = errors.New("storage failure")
)

var (
	ErrMissingSender    = fmt.Errorf("%w: sender is required", ErrValidation)
	ErrMissingRecipient = fmt.Errorf("%w: recipient is required", ErrValidation)
	ErrSelfMessage      = fmt.Errorf("%w: sender and recipient must differ", ErrValidation)
	ErrEmptyBody        = fmt.Errorf("%w: content is required", ErrValidation)
	ErrBodyTooLarge     = fmt.Errorf("%w: content too large", ErrValidation)
	ErrUnknownUser      = fmt.Errorf("%w: unknown user", ErrValidation)
	ErrInvalidUserID    = fmt.Errorf("%w: user id contains control characters", ErrValidation)
)

// StorageError wraps a message store I/O failure. It matches ErrStorage.
type StorageError struct {
	Op  string
	Err error
}

func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }
