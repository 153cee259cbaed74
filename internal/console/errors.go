package console

import "fmt"

// ValidationError is raised before any external call is made.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Message
}

// AuthError wraps a sign-in rejection.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("sign in: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// OperationError is a failed upload, create, update, delete or import.
type OperationError struct {
	Op  string
	Err error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }
