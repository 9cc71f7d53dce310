// Package exit carries termination outcomes from the CLI layers back
// to main without calling os.Exit deep in the call stack.
package exit

import (
	"fmt"
	"os"
)

// Result holds the message and exit code for program termination.
type Result struct {
	Code    int
	Message string
}

// Print writes the message to stdout for success and stderr otherwise.
func (r *Result) Print() {
	if r.Code == 0 {
		fmt.Fprint(os.Stdout, r.Message)
		return
	}
	fmt.Fprint(os.Stderr, r.Message)
}

// Success creates a result with exit code 0.
func Success(message string) *Result {
	return &Result{Code: 0, Message: message}
}

// Error creates a result with exit code 1.
func Error(message string) *Result {
	return &Result{Code: 1, Message: message}
}

// Errorf creates an error result with a formatted message.
func Errorf(format string, a ...any) *Result {
	return Error(fmt.Sprintf(format, a...))
}
