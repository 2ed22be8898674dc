// reader_test.go: tests for the RESP command parser
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package resp

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/agilira/bader"
)

func TestReader_ReadCommand_Basic(t *testing.T) {
	r := NewReader(strings.NewReader("*3\r\n$3\r\nSET\r\n$5\r\nhello\r\n$5\r\nworld\r\n"))

	args, err := r.ReadCommand()
	if err != nil {
		t.Fatalf("ReadCommand failed: %v", err)
	}
	if len(args) != 3 {
		t.Fatalf("expected 3 args, got %d", len(args))
	}
	for i, want := range []string{"SET", "hello", "world"} {
		if string(args[i]) != want {
			t.Errorf("arg %d: expected %q, got %q", i, want, args[i])
		}
	}
}

func TestReader_ReadCommand_EmptyBulk(t *testing.T) {
	r := NewReader(strings.NewReader("*2\r\n$3\r\nGET\r\n$0\r\n\r\n"))

	args, err := r.ReadCommand()
	if err != nil {
		t.Fatalf("ReadCommand failed: %v", err)
	}
	if len(args) != 2 || len(args[1]) != 0 {
		t.Errorf("expected zero-length second arg, got %q", args[1])
	}
}

func TestReader_ReadCommand_BinaryPayload(t *testing.T) {
	payload := []byte("with\r\nCRLF\x00and NUL")
	var frame bytes.Buffer
	frame.WriteString("*3\r\n$3\r\nSET\r\n$1\r\nk\r\n")
	frame.WriteString("$18\r\n")
	frame.Write(payload)
	frame.WriteString("\r\n")

	r := NewReader(&frame)
	args, err := r.ReadCommand()
	if err != nil {
		t.Fatalf("ReadCommand failed: %v", err)
	}
	if !bytes.Equal(args[2], payload) {
		t.Errorf("payload corrupted: %q", args[2])
	}
}

func TestReader_ReadCommand_MultipleFrames(t *testing.T) {
	r := NewReader(strings.NewReader("*1\r\n$4\r\nPING\r\n*2\r\n$3\r\nGET\r\n$1\r\nk\r\n"))

	first, err := r.ReadCommand()
	if err != nil {
		t.Fatalf("first ReadCommand failed: %v", err)
	}
	if string(first[0]) != "PING" {
		t.Errorf("expected PING, got %q", first[0])
	}

	second, err := r.ReadCommand()
	if err != nil {
		t.Fatalf("second ReadCommand failed: %v", err)
	}
	if string(second[0]) != "GET" || string(second[1]) != "k" {
		t.Errorf("unexpected second frame: %q", second)
	}
}

func TestReader_ReadCommand_ProtocolErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not an array", "GET k\r\n"},
		{"empty line", "\r\n"},
		{"bad array length", "*x\r\n"},
		{"zero array length", "*0\r\n"},
		{"negative array length", "*-1\r\n"},
		{"huge array length", "*99999999\r\n"},
		{"element not bulk", "*1\r\n+OK\r\n"},
		{"bad bulk length", "*1\r\n$x\r\n"},
		{"null bulk in command", "*1\r\n$-1\r\n"},
		{"huge bulk length", "*1\r\n$9999999999\r\n"},
		{"bulk missing CRLF", "*1\r\n$3\r\nabcXY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(strings.NewReader(tt.input))
			_, err := r.ReadCommand()
			if err == nil {
				t.Fatal("expected error")
			}
			if !bader.IsProtocolError(err) {
				t.Errorf("expected protocol error, got %v", err)
			}
		})
	}
}

func TestReader_ReadCommand_RecoversAfterProtocolError(t *testing.T) {
	// A malformed frame followed by a valid one: the parser reports the
	// violation and resumes at the next byte.
	r := NewReader(strings.NewReader("*2\r\n$3\r\nGET\r\nPING\r\n*1\r\n$4\r\nPING\r\n"))

	_, err := r.ReadCommand()
	if !bader.IsProtocolError(err) {
		t.Fatalf("expected protocol error, got %v", err)
	}

	args, err := r.ReadCommand()
	if err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if string(args[0]) != "PING" {
		t.Errorf("expected PING after recovery, got %q", args[0])
	}
}

func TestReader_ReadCommand_IOErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty stream", ""},
		{"truncated first element", "*2\r\n$3\r\nGE"},
		{"truncated payload", "*1\r\n$10\r\nabc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(strings.NewReader(tt.input))
			_, err := r.ReadCommand()
			if err == nil {
				t.Fatal("expected error")
			}
			if bader.IsProtocolError(err) {
				t.Errorf("truncation is an IO condition, got protocol error %v", err)
			}
		})
	}
}

func TestReader_BareLFTolerated(t *testing.T) {
	r := NewReader(strings.NewReader("*1\n$4\nPING\r\n"))

	args, err := r.ReadCommand()
	if err != nil {
		t.Fatalf("ReadCommand failed: %v", err)
	}
	if string(args[0]) != "PING" {
		t.Errorf("expected PING, got %q", args[0])
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		input string
		want  int64
		ok    bool
	}{
		{"0", 0, true},
		{"42", 42, true},
		{"-1", -1, true},
		{"", 0, false},
		{"-", 0, false},
		{"+1", 0, false},
		{" 1", 0, false},
		{"1a", 0, false},
		{"9223372036854775807", 9223372036854775807, true},
		{"99999999999999999999", 0, false},
	}

	for _, tt := range tests {
		got, ok := parseInt([]byte(tt.input))
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("parseInt(%q) = (%d, %v), want (%d, %v)", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

var errShortRead = io.ErrUnexpectedEOF

func TestReader_TruncatedPayloadError(t *testing.T) {
	r := NewReader(strings.NewReader("*1\r\n$5\r\nab"))
	_, err := r.ReadCommand()
	if err != errShortRead {
		t.Errorf("expected %v, got %v", errShortRead, err)
	}
}
