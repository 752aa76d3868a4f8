package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/soberlit/internal/logger"
)

var (
	// ErrStoreUnavailable wraps any persistence read/write failure. The operation
	// that returned it did not apply any part of its mutation.
	ErrStoreUnavailable = stderrors.New("store unavailable")
	// ErrExactAlarmDenied is returned by a registry that may not schedule exact wake-ups
	ErrExactAlarmDenied = stderrors.New("exact alarm capability denied")
	// ErrStartDateInFuture is returned when a sobriety start date lies after today
	ErrStartDateInFuture = stderrors.New("start date is in the future")
	// ErrSessionActive is returned when an escalation session is already running
	ErrSessionActive = stderrors.New("escalation session already active")
	// ErrNoDisplay is returned when the blocking prompt cannot take over a terminal
	ErrNoDisplay = stderrors.New("no interactive terminal available")
	// ErrNotFound is returned when a keyed record does not exist
	ErrNotFound = stderrors.New("not found")
)

// New returns an error that formats as text
func New(text string) error {
	return stderrors.New(text)
}

// Join combines the non-nil errs into one error, or nil when there are none
func Join(errs ...error) error {
	return stderrors.Join(errs...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// Store wraps a persistence failure so callers can match ErrStoreUnavailable
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %v", op, ErrStoreUnavailable, err)
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}
