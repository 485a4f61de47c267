// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package s3client

import (
	"errors"
	"fmt"

	"github.com/LeeDigitalWorks/zapctl/pkg/s3api/s3err"
)

var (
	// ErrConfiguration matches every *ConfigurationError with errors.Is.
	ErrConfiguration = errors.New("configuration error")

	// ErrNotFound is returned by callers that need an error form of an
	// absent object. Operations themselves return a nil response instead.
	ErrNotFound = errors.New("not found")
)

// ConfigurationError reports invalid or conflicting options. It is raised
// before any network activity and is never worth retrying.
type ConfigurationError struct {
	Msg string
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

func configErrorf(format string, args ...any) error {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

// TransportError wraps connection level failures: refused, reset, DNS,
// TLS, or a cancelled context. No response was received.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return e.Op + ": transport: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UnexpectedStatusError is returned when the service answers with a status
// the operation does not accept. Body holds the drained response body.
type UnexpectedStatusError struct {
	Op        string
	Status    int
	Body      string
	RequestID string
	S3Error   *s3err.Error
}

func (e *UnexpectedStatusError) Error() string {
	msg := fmt.Sprintf("%s: unexpected status %d", e.Op, e.Status)
	if e.S3Error != nil {
		msg += ": " + e.S3Error.Error()
	} else if e.Body != "" {
		msg += ": " + e.Body
	}
	if e.RequestID != "" {
		msg += " (request id " + e.RequestID + ")"
	}
	return msg
}

// Code returns the S3 error code, or "" if the body was not an S3 error.
func (e *UnexpectedStatusError) Code() string {
	if e.S3Error == nil {
		return ""
	}
	return e.S3Error.Code
}
