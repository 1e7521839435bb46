package domain

import (
	"errors"
	"fmt"
	"time"
)

// Cause is a stable tag classifying why an operation failed
type Cause string

const (
	CauseNetwork    Cause = "network"
	CauseHTTPStatus Cause = "http_status"
	CauseParse      Cause = "parse"
	CauseAuth       Cause = "auth"
	CauseSubmission Cause = "submission"
	CauseTimeout    Cause = "timeout"
	CauseConfig     Cause = "config"
	CauseUnknown    Cause = "unknown"
)

// NetworkError is a transport-level failure such as a refused connection
type NetworkError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: network error: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPStatusError is a non-2xx response received over a working transport
type HTTPStatusError struct {
	Op         string
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Op, e.URL, e.StatusCode)
}

// ParseError means a payload did not have the expected structure
type ParseError struct {
	Source SourceKind
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s payload: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("parse %s payload: %s", e.Source, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// AuthError means a download client rejected the credentials or session
type AuthError struct {
	Client string
	Reason string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("client %s: authentication failed: %s", e.Client, e.Reason)
}

// SubmissionError means a client rejected one specific add request
type SubmissionError struct {
	Client     string
	StatusCode int
	Reason     string
	Err        error
}

func (e *SubmissionError) Error() string {
	msg := fmt.Sprintf("client %s: submission rejected: %s", e.Client, e.Reason)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// TimeoutError means an operation exceeded the coordinator deadline
type TimeoutError struct {
	Op    string
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: timed out after %s", e.Op, e.After)
}

// ConfigError is a construction-time validation failure
type ConfigError struct {
	Component string
	Field     string
	Reason    string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: invalid %s: %s", e.Component, e.Field, e.Reason)
}

// CauseOf classifies err into a Cause tag
func CauseOf(err error) Cause {
	if err == nil {
		return ""
	}

	var (
		timeoutErr    *TimeoutError
		netErr        *NetworkError
		statusErr     *HTTPStatusError
		parseErr      *ParseError
		authErr       *AuthError
		submissionErr *SubmissionError
		configErr     *ConfigError
	)

	switch {
	case errors.As(err, &timeoutErr):
		return CauseTimeout
	case errors.As(err, &authErr):
		return CauseAuth
	case errors.As(err, &submissionErr):
		return CauseSubmission
	case errors.As(err, &parseErr):
		return CauseParse
	case errors.As(err, &statusErr):
		return CauseHTTPStatus
	case errors.As(err, &netErr):
		return CauseNetwork
	case errors.As(err, &configErr):
		return CauseConfig
	default:
		return CauseUnknown
	}
}

// IsRetryable reports whether the coordinator may retry after err
func IsRetryable(err error) bool {
	return CauseOf(err) == CauseNetwork
}
