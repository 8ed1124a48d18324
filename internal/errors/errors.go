// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrConfigInvalid     = errors.New("invalid configuration")
	ErrInsufficientData  = errors.New("insufficient data")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNegativeCash      = errors.New("cash balance went negative")
	ErrNegativeValue     = errors.New("portfolio value went negative")
	ErrDataNotFound      = errors.New("data not found")
	ErrLookAhead         = errors.New("data dated after evaluation date")
	ErrIllegalTransition = errors.New("illegal cycle state transition")
	ErrDatabaseError     = errors.New("database error")
	ErrNoRebalanceDates  = errors.New("no rebalance dates in range")
	ErrEmptyUniverse     = errors.New("empty instrument universe")
	ErrUnknownPolicy     = errors.New("unknown policy")
	ErrRunNotFound       = errors.New("run not found")
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// Unwrap lets callers match any validation failure with ErrConfigInvalid.
func (e *ValidationError) Unwrap() error {
	return ErrConfigInvalid
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// DataError represents a data-related error.
type DataError struct {
	DataType string
	Symbol   string
	Message  string
	Err      error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error [%s] %s: %s: %v", e.DataType, e.Symbol, e.Message, e.Err)
	}
	return fmt.Sprintf("data error [%s] %s: %s", e.DataType, e.Symbol, e.Message)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(dataType, symbol, message string, err error) *DataError {
	return &DataError{
		DataType: dataType,
		Symbol:   symbol,
		Message:  message,
		Err:      err,
	}
}

// ExecutionError represents a failure while simulating an order.
type ExecutionError struct {
	Symbol string
	Side   string
	Reason string
	Err    error
}

func (e *ExecutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("execution error %s %s: %s: %v", e.Side, e.Symbol, e.Reason, e.Err)
	}
	return fmt.Sprintf("execution error %s %s: %s", e.Side, e.Symbol, e.Reason)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// NewExecutionError creates a new ExecutionError.
func NewExecutionError(symbol, side, reason string, err error) *ExecutionError {
	return &ExecutionError{
		Symbol: symbol,
		Side:   side,
		Reason: reason,
		Err:    err,
	}
}

// InvariantError represents a violated portfolio invariant.
type InvariantError struct {
	Rule    string
	Current float64
	Limit   float64
	Err     error
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violation [%s]: current %.6f, limit %.6f: %v", e.Rule, e.Current, e.Limit, e.Err)
}

func (e *InvariantError) Unwrap() error {
	return e.Err
}

// NewInvariantError creates a new InvariantError.
func NewInvariantError(rule string, current, limit float64, err error) *InvariantError {
	return &InvariantError{
		Rule:    rule,
		Current: current,
		Limit:   limit,
		Err:     err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Join combines errors, dropping nils.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
