package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedURL is returned for input that isn't an absolute http(s) URL.
	ErrUnsupportedURL = errors.New("unsupported url")

	// ErrNoIdentifierFound is returned when a catalog link carries no product code.
	ErrNoIdentifierFound = errors.New("no identifier found in url")

	// ErrItemNotFound is returned when a catalog search has no results.
	ErrItemNotFound = errors.New("item not found")
)

// NotConnectedError is returned when a user has no access credentials for a service.
type NotConnectedError struct {
	Service ServiceKind
}

func (e *NotConnectedError) Error() string {
	return fmt.Sprintf("user is not connected to %s", e.Service)
}

// IsNotConnected reports whether err is (or wraps) a NotConnectedError.
func IsNotConnected(err error) bool {
	var nc *NotConnectedError
	return errors.As(err, &nc)
}

// RemoteOp names the remote call that failed.
type RemoteOp string

const (
	OpSearch       RemoteOp = "search"
	OpAdd          RemoteOp = "add"
	OpRequestToken RemoteOp = "request_token"
	OpAccessToken  RemoteOp = "access_token"
)

// RemoteError wraps a transport or API failure from an external service.
// Its message carries the remote detail verbatim.
type RemoteError struct {
	Service ServiceKind
	Op      RemoteOp
	Err     error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Service, e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Detail returns the underlying remote error text.
func (e *RemoteError) Detail() string {
	if e.Err == nil {
		return "unknown error"
	}
	return e.Err.Error()
}
