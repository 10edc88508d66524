package booking

import (
	"errors"
	"fmt"
)

// Domain-level error values returned by the booking service.
var (
	ErrValidation            = errors.New("invalid input")
	ErrNotFound              = errors.New("not found")
	ErrInvalidState          = errors.New("invalid state")
	ErrSlotUnavailable       = errors.New("slot unavailable")
	ErrSlotMismatch          = errors.New("slot instructor mismatch")
	ErrDuplicateReview       = errors.New("review already exists")
	ErrDuplicatePayment      = errors.New("payment already recorded")
	ErrDuplicateEvent        = errors.New("event already processed")
	ErrPersistence           = errors.New("persistence failure")
	ErrSignatureVerification = errors.New("signature verification failed")
	ErrExternalService       = errors.New("payment processor failure")
	ErrInvalidServiceConfig  = errors.New("invalid service config")
	ErrInvalidTimeOfDay      = errors.New("invalid time of day")
	ErrInvalidStatus         = errors.New("invalid booking status")
)

// OperationError wraps a failure with a stable operation code.
type OperationError struct {
	operation string
	subject   string
	code      string
	err       error
}

// Error returns the formatted error message.
func (operationError OperationError) Error() string {
	return fmt.Sprintf("%s.%s.%s: %v", operationError.operation, operationError.subject, operationError.code, operationError.err)
}

// Unwrap returns the underlying error.
func (operationError OperationError) Unwrap() error {
	return operationError.err
}

// Operation returns the operation segment.
func (operationError OperationError) Operation() string {
	return operationError.operation
}

// Subject returns the subject segment.
func (operationError OperationError) Subject() string {
	return operationError.subject
}

// Code returns the stable error code segment.
func (operationError OperationError) Code() string {
	return operationError.code
}

// WrapError wraps an error with operation, subject, and code metadata.
func WrapError(operation string, subject string, code string, err error) error {
	if err == nil {
		return nil
	}
	return OperationError{
		operation: operation,
		subject:   subject,
		code:      code,
		err:       err,
	}
}
