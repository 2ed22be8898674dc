// conn.go: per-connection command dispatch
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package resp

import (
	"math"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"github.com/agilira/bader"
)

// clientConn owns one accepted connection: a framed byte stream and a
// handle to the shared store. Commands are processed one at a time in
// arrival order; every reply is flushed before the next read.
type clientConn struct {
	id     uint64
	conn   net.Conn
	reader *Reader
	writer *Writer
	store  bader.Store
	logger bader.Logger
	srv    *Server
}

// serve runs the read → dispatch → reply loop until the peer disconnects,
// an IO error occurs, or the client sends QUIT. Protocol and command
// errors are answered with -ERR and the loop continues.
func (c *clientConn) serve() {
	defer func() {
		if err := c.conn.Close(); err != nil {
			c.logger.Debug("connection close", "conn", c.id, "error", err.Error())
		}
	}()

	for {
		args, err := c.reader.ReadCommand()
		if err != nil {
			if bader.IsProtocolError(err) {
				if werr := c.replyError(err); werr != nil {
					return
				}
				continue
			}
			// IO error or EOF: close silently, do not disturb other tasks.
			return
		}

		atomic.AddUint64(&c.srv.commandsProcessed, 1)

		quit, err := c.dispatch(args)
		if err != nil {
			// Write-side IO error: the peer is gone.
			return
		}
		if quit {
			return
		}
	}
}

// dispatch interprets one command frame, executes it against the store and
// writes the reply. The returned bool requests connection close (QUIT).
// The returned error is always an IO error; client mistakes are answered
// in-band.
func (c *clientConn) dispatch(args [][]byte) (bool, error) {
	verb := strings.ToUpper(string(args[0]))

	switch verb {
	case "SET":
		return false, c.handleSet(args)
	case "GET":
		return false, c.handleGet(args)
	case "DEL":
		return false, c.handleDel(args)
	case "EXISTS":
		return false, c.handleExists(args)
	case "PING":
		return false, c.handlePing(args)
	case "QUIT":
		if err := c.writer.WriteSimpleString("OK"); err != nil {
			return true, err
		}
		return true, c.writer.Flush()
	default:
		return false, c.replyError(bader.NewErrUnknownCommand(verb))
	}
}

// handleSet implements SET k v [EX seconds | PX milliseconds].
func (c *clientConn) handleSet(args [][]byte) error {
	var ttl time.Duration

	switch len(args) {
	case 3:
		// No TTL: the entry is immortal until DEL.
	case 5:
		var unit time.Duration
		switch strings.ToUpper(string(args[3])) {
		case "EX":
			unit = time.Second
		case "PX":
			unit = time.Millisecond
		default:
			return c.replyError(bader.NewErrSyntax())
		}

		n, ok := parseInt(args[4])
		if !ok || n <= 0 || n > math.MaxInt64/int64(unit) {
			return c.replyError(bader.NewErrInvalidExpire("set"))
		}
		ttl = time.Duration(n) * unit
	default:
		return c.replyError(bader.NewErrWrongArity("set"))
	}

	c.store.Set(string(args[1]), args[2], ttl)
	if err := c.writer.WriteSimpleString("OK"); err != nil {
		return err
	}
	return c.writer.Flush()
}

func (c *clientConn) handleGet(args [][]byte) error {
	if len(args) != 2 {
		return c.replyError(bader.NewErrWrongArity("get"))
	}

	value, found := c.store.Get(string(args[1]))
	var err error
	if found {
		err = c.writer.WriteBulk(value)
	} else {
		err = c.writer.WriteNullBulk()
	}
	if err != nil {
		return err
	}
	return c.writer.Flush()
}

func (c *clientConn) handleDel(args [][]byte) error {
	if len(args) != 2 {
		return c.replyError(bader.NewErrWrongArity("del"))
	}

	var removed int64
	if c.store.Delete(string(args[1])) {
		removed = 1
	}
	if err := c.writer.WriteInteger(removed); err != nil {
		return err
	}
	return c.writer.Flush()
}

// handleExists replies with the bulk strings "true"/"false" rather than
// RESP's conventional integers; deployed clients of this server parse the
// string form.
func (c *clientConn) handleExists(args [][]byte) error {
	if len(args) != 2 {
		return c.replyError(bader.NewErrWrongArity("exists"))
	}

	reply := "false"
	if c.store.Has(string(args[1])) {
		reply = "true"
	}
	if err := c.writer.WriteBulkString(reply); err != nil {
		return err
	}
	return c.writer.Flush()
}

func (c *clientConn) handlePing(args [][]byte) error {
	var err error
	switch len(args) {
	case 1:
		err = c.writer.WriteSimpleString("PONG")
	case 2:
		err = c.writer.WriteBulk(args[1])
	default:
		return c.replyError(bader.NewErrWrongArity("ping"))
	}
	if err != nil {
		return err
	}
	return c.writer.Flush()
}

// replyError answers a client mistake in-band and keeps the connection
// open. The returned error is an IO error, if any.
func (c *clientConn) replyError(cause error) error {
	c.logger.Debug("client error", "conn", c.id, "error", cause.Error())
	if err := c.writer.WriteError("ERR " + bader.WireMessage(cause)); err != nil {
		return err
	}
	return c.writer.Flush()
}
