// errors_test.go: tests for coded errors and wire message extraction
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package bader

import (
	goerrors "errors"
	"testing"

	"github.com/agilira/go-errors"
)

func TestErrorCodes(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode errors.ErrorCode
	}{
		{"InvalidSampleSize", NewErrInvalidSampleSize(-1), ErrCodeInvalidSampleSize},
		{"InvalidThreshold", NewErrInvalidThreshold(2), ErrCodeInvalidThreshold},
		{"InvalidFrequency", NewErrInvalidFrequency(-1), ErrCodeInvalidFrequency},
		{"Protocol", NewErrProtocol("expected '*', got 'x'"), ErrCodeProtocol},
		{"UnknownCommand", NewErrUnknownCommand("FLUSH"), ErrCodeUnknownCommand},
		{"WrongArity", NewErrWrongArity("get"), ErrCodeWrongArity},
		{"InvalidExpire", NewErrInvalidExpire("set"), ErrCodeInvalidExpire},
		{"Syntax", NewErrSyntax(), ErrCodeSyntax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.HasCode(tt.err, tt.expectedCode) {
				t.Errorf("expected code %s, got %v", tt.expectedCode, tt.err)
			}
		})
	}
}

func TestErrorClassification(t *testing.T) {
	protocolErr := NewErrProtocol("bad frame")
	if !IsProtocolError(protocolErr) {
		t.Error("expected protocol classification")
	}
	if IsCommandError(protocolErr) {
		t.Error("protocol error misclassified as command error")
	}

	for _, err := range []error{
		NewErrUnknownCommand("NOPE"),
		NewErrWrongArity("set"),
		NewErrInvalidExpire("set"),
		NewErrSyntax(),
	} {
		if !IsCommandError(err) {
			t.Errorf("expected command classification for %v", err)
		}
		if IsProtocolError(err) {
			t.Errorf("command error misclassified as protocol error: %v", err)
		}
	}

	configErr := NewErrInvalidThreshold(7)
	if !IsConfigError(configErr) {
		t.Error("expected config classification")
	}
	if IsProtocolError(configErr) || IsCommandError(configErr) {
		t.Error("config error misclassified")
	}

	plain := goerrors.New("plain")
	if IsProtocolError(plain) || IsCommandError(plain) || IsConfigError(plain) {
		t.Error("plain error misclassified")
	}
}

func TestWireMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"unknown command", NewErrUnknownCommand("FLUSH"), "unknown command 'FLUSH'"},
		{"wrong arity", NewErrWrongArity("GET"), "wrong number of arguments for 'get' command"},
		{"invalid expire", NewErrInvalidExpire("SET"), "invalid expire time in 'set' command"},
		{"syntax", NewErrSyntax(), "syntax error"},
		{"protocol", NewErrProtocol("invalid bulk length"), "Protocol error: invalid bulk length"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if msg := WireMessage(tt.err); msg != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, msg)
			}
		})
	}
}

func TestWireMessage_NeverLeaksInternals(t *testing.T) {
	// Anything that is not a protocol or command error must not reach the
	// client verbatim.
	for _, err := range []error{
		goerrors.New("dial tcp 10.0.0.1: connection refused"),
		NewErrInvalidThreshold(3),
	} {
		if msg := WireMessage(err); msg != "internal error" {
			t.Errorf("expected generic wire message, got %q", msg)
		}
	}
}
