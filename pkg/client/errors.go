package client

import (
	"errors"
	"fmt"

	"github.com/DeBrosOfficial/notefeed/pkg/relay"
)

// Common client errors
var (
	// ErrNotConnected indicates the client has not finished connecting to relays.
	// It wraps the relay package error so either can be matched with errors.Is.
	ErrNotConnected = fmt.Errorf("client not connected: %w", relay.ErrNotConnected)

	// ErrInvalidConfig indicates the client configuration is invalid
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNoClient indicates no client was stored in the context
	ErrNoClient = errors.New("no client in context")
)

// ClientError represents a client-specific error with additional context
type ClientError struct {
	Op      string // Operation that failed
	Message string // Error message
	Err     error  // Underlying error
}

func (e *ClientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *ClientError) Unwrap() error {
	return e.Err
}

// NewClientError creates a new ClientError
func NewClientError(op, message string, err error) *ClientError {
	return &ClientError{
		Op:      op,
		Message: message,
		Err:     err,
	}
}
