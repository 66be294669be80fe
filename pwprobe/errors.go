package pwprobe

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"

	"github.com/pkg/errors"
)

var (
	ErrMissingURL        = errors.New("URL is required")
	ErrMissingUsername   = errors.New("username is required")
	ErrInvalidURL        = errors.New("invalid url")
	ErrMissingField      = errors.New("form field name is required")
	ErrInvalidTimeout    = errors.New("invalid timeout")
	ErrNoPasswords       = errors.New("no passwords to test")
	ErrInvalidPattern    = errors.New("invalid pattern")
	ErrBadStatus         = errors.New("bad response status")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrUnexpectedArgs    = errors.New("unexpected arguments")
)

// ErrorKind classifies where a failure happened
type ErrorKind int8

const (
	// Transport connection, timeout, dns or error status failures
	Transport ErrorKind = iota + 1
	// Unexpected any other failure while testing a single password
	Unexpected
	// TopLevel failures outside of a single password attempt
	TopLevel
)

// ErrorKindMap for printing
var ErrorKindMap = map[ErrorKind]string{
	Transport:  "transport",
	Unexpected: "unexpected",
	TopLevel:   "top_level",
}

func (k ErrorKind) String() string {
	if s, ok := ErrorKindMap[k]; ok {
		return s
	}
	return "unknown"
}

// StatusError is returned by a FormPoster for responses with status >= 400
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("%s: %s", ErrBadStatus, e.Status)
	}
	return fmt.Sprintf("%s: %d", ErrBadStatus, e.StatusCode)
}

// Unwrap so errors.Is(err, ErrBadStatus) holds
func (e *StatusError) Unwrap() error {
	return ErrBadStatus
}

// AttemptError records why a single password could not be classified
type AttemptError struct {
	Kind       ErrorKind
	Password   string
	StatusCode int
	Err        error
}

func (e *AttemptError) Error() string {
	return e.Err.Error()
}

func (e *AttemptError) Unwrap() error {
	return e.Err
}

// Cause for pkg/errors
func (e *AttemptError) Cause() error {
	return e.Err
}

// ProbeError is a failure outside the per-password loop, the run produced
// no (or only partial) results
type ProbeError struct {
	Err error
}

func (e *ProbeError) Error() string {
	return "password probe failed: " + e.Err.Error()
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}

// Cause for pkg/errors
func (e *ProbeError) Cause() error {
	return e.Err
}

// Kind is always TopLevel
func (e *ProbeError) Kind() ErrorKind {
	return TopLevel
}

// IsTransport reports whether err came from talking to the target: a failed
// connection, dns lookup, timeout, truncated body or an error status
func IsTransport(err error) bool {
	if err == nil {
		return false
	}
	var statusErr *StatusError
	var urlErr *url.Error
	var netErr net.Error
	switch {
	case errors.As(err, &statusErr), errors.As(err, &urlErr), errors.As(err, &netErr):
		return true
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, io.ErrUnexpectedEOF):
		return true
	}
	return false
}
