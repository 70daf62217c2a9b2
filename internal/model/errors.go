// Copyright (c) 2026 ShieldHQ
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "fmt"

// ValidationError reports malformed local input (empty email, missing
// required field). It is surfaced inline at the control that produced it
// and never logged as a system fault.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// OperationError reports a failed create/update/delete against the record
// store. Local state is left unchanged; the caller may retry.
type OperationError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *OperationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap supports errors.Is and errors.As.
func (e *OperationError) Unwrap() error {
	return e.Err
}
