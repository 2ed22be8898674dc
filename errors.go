// errors.go: structured error handling for bader
//
// This file provides coded error types using the go-errors library for the
// three error surfaces of the server: configuration validation, RESP
// protocol violations, and client command errors. Protocol and command
// errors carry the exact text that goes out on the wire in a RESP error
// reply; WireMessage extracts it.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package bader

import (
	goerrors "errors"
	"fmt"
	"strings"

	"github.com/agilira/go-errors"
)

// Error codes for Bader operations
const (
	// Configuration errors
	ErrCodeInvalidConfig     errors.ErrorCode = "BADER_INVALID_CONFIG"
	ErrCodeInvalidSampleSize errors.ErrorCode = "BADER_INVALID_SAMPLE_SIZE"
	ErrCodeInvalidThreshold  errors.ErrorCode = "BADER_INVALID_THRESHOLD"
	ErrCodeInvalidFrequency  errors.ErrorCode = "BADER_INVALID_FREQUENCY"

	// Protocol errors: the inbound byte stream violated RESP framing.
	// The connection survives; the offending frame is answered with -ERR.
	ErrCodeProtocol errors.ErrorCode = "BADER_PROTOCOL_ERROR"

	// Command errors: a well-framed command the server cannot execute
	ErrCodeUnknownCommand errors.ErrorCode = "BADER_UNKNOWN_COMMAND"
	ErrCodeWrongArity     errors.ErrorCode = "BADER_WRONG_ARITY"
	ErrCodeInvalidExpire  errors.ErrorCode = "BADER_INVALID_EXPIRE"
	ErrCodeSyntax         errors.ErrorCode = "BADER_SYNTAX_ERROR"
)

// Common error messages
const (
	msgInvalidSampleSize = "invalid sample size: must be at least 1"
	msgInvalidThreshold  = "invalid threshold: must be between 0.0 and 1.0"
	msgInvalidFrequency  = "invalid frequency: must be a positive duration"
)

// =============================================================================
// CONFIGURATION ERRORS
// =============================================================================

// NewErrInvalidSampleSize creates an error for an invalid evictor sample size
func NewErrInvalidSampleSize(size int) error {
	return errors.NewWithContext(ErrCodeInvalidSampleSize, msgInvalidSampleSize, map[string]interface{}{
		"provided_size":    size,
		"minimum_required": 1,
	})
}

// NewErrInvalidThreshold creates an error for an invalid evictor threshold
func NewErrInvalidThreshold(threshold float64) error {
	return errors.NewWithContext(ErrCodeInvalidThreshold, msgInvalidThreshold, map[string]interface{}{
		"provided_threshold": threshold,
		"valid_range":        "0.0 < threshold < 1.0",
	})
}

// NewErrInvalidFrequency creates an error for an invalid evictor frequency
func NewErrInvalidFrequency(frequency interface{}) error {
	return errors.NewWithContext(ErrCodeInvalidFrequency, msgInvalidFrequency, map[string]interface{}{
		"provided_frequency": fmt.Sprintf("%v", frequency),
	})
}

// =============================================================================
// PROTOCOL ERRORS
// =============================================================================

// NewErrProtocol creates an error for a malformed RESP frame.
// The detail becomes the wire reply: -ERR Protocol error: <detail>
func NewErrProtocol(detail string) error {
	return errors.NewWithField(ErrCodeProtocol, "Protocol error: "+detail, "detail", detail)
}

// =============================================================================
// COMMAND ERRORS
// =============================================================================

// NewErrUnknownCommand creates an error for an unrecognized command verb
func NewErrUnknownCommand(verb string) error {
	return errors.NewWithField(ErrCodeUnknownCommand,
		fmt.Sprintf("unknown command '%s'", verb), "verb", verb)
}

// NewErrWrongArity creates an error for a command with the wrong argument count
func NewErrWrongArity(verb string) error {
	return errors.NewWithField(ErrCodeWrongArity,
		fmt.Sprintf("wrong number of arguments for '%s' command", strings.ToLower(verb)), "verb", verb)
}

// NewErrInvalidExpire creates an error for a non-integer or non-positive TTL
func NewErrInvalidExpire(verb string) error {
	return errors.NewWithField(ErrCodeInvalidExpire,
		fmt.Sprintf("invalid expire time in '%s' command", strings.ToLower(verb)), "verb", verb)
}

// NewErrSyntax creates an error for an otherwise malformed command
func NewErrSyntax() error {
	return errors.NewWithField(ErrCodeSyntax, "syntax error", "category", "command")
}

// =============================================================================
// ERROR CHECKING HELPERS
// =============================================================================

// IsProtocolError checks if an error is a RESP framing violation
func IsProtocolError(err error) bool {
	return errors.HasCode(err, ErrCodeProtocol)
}

// IsCommandError checks if an error is a client command error
func IsCommandError(err error) bool {
	return errors.HasCode(err, ErrCodeUnknownCommand) ||
		errors.HasCode(err, ErrCodeWrongArity) ||
		errors.HasCode(err, ErrCodeInvalidExpire) ||
		errors.HasCode(err, ErrCodeSyntax)
}

// IsConfigError checks if an error is a configuration error
func IsConfigError(err error) bool {
	if err == nil {
		return false
	}
	return errors.HasCode(err, ErrCodeInvalidConfig) ||
		errors.HasCode(err, ErrCodeInvalidSampleSize) ||
		errors.HasCode(err, ErrCodeInvalidThreshold) ||
		errors.HasCode(err, ErrCodeInvalidFrequency)
}

// WireMessage returns the text to embed in a RESP error reply for protocol
// and command errors. Falls back to a generic message for anything else so
// internal detail never leaks to clients.
func WireMessage(err error) string {
	if IsProtocolError(err) || IsCommandError(err) {
		var baderErr *errors.Error
		if goerrors.As(err, &baderErr) {
			return baderErr.Message
		}
	}
	return "internal error"
}
