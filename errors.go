/*
Package redio implements an asynchronous Redis client built around a
pipelined, pooled connection model.

This file defines the error taxonomy surfaced by the rest of the
package. Transport and protocol failures are wrapped with
github.com/pkg/errors at the point of origin so callers can recover a
stack trace with errors.Cause or fmt's "%+v" verb; server-side reply
errors are returned as data (see ServerError) rather than raised,
mirroring how Redis itself keeps executing the remainder of a pipeline
after one command fails.
*/
package redio

import (
	"fmt"

	"github.com/pkg/errors"
)

// ConfigError reports a malformed connection URL or unsupported scheme.
// It is fatal at pool construction time.
type ConfigError struct {
	msg string
}

func (e *ConfigError) Error() string { return "redio: config: " + e.msg }

func newConfigError(format string, args ...interface{}) error {
	return errors.WithStack(&ConfigError{msg: fmt.Sprintf(format, args...)})
}

// ConnectError reports failure during DNS resolution, connect(), TLS
// handshake, AUTH, or SELECT. The pool releases the reserved slot when
// this occurs.
type ConnectError struct {
	msg string
}

func (e *ConnectError) Error() string { return "redio: connect: " + e.msg }

func newConnectError(cause error, format string, args ...interface{}) error {
	wrapped := &ConnectError{msg: fmt.Sprintf(format, args...)}
	if cause != nil {
		return errors.Wrapf(cause, wrapped.Error())
	}
	return errors.WithStack(wrapped)
}

// EncodeError reports that an argument could not be serialised to a
// RESP bulk string, most commonly a cyclic or unsupported value passed
// to the JSON fallback. The Connection is left unaffected.
type EncodeError struct {
	msg string
}

func (e *EncodeError) Error() string { return "redio: encode: " + e.msg }

func newEncodeError(cause error, value interface{}) error {
	return errors.Wrapf(cause, "redio: encode: cannot serialise %T", value)
}

// ProtocolError reports malformed RESP framing or a length outside the
// bounds allowed by spec. Any ProtocolError marks the owning Connection
// Broken; it will not be returned to the pool.
type ProtocolError struct {
	msg string
}

func (e *ProtocolError) Error() string { return "redio: protocol: " + e.msg }

func newProtocolError(format string, args ...interface{}) error {
	return errors.WithStack(&ProtocolError{msg: fmt.Sprintf(format, args...)})
}

// ServerError wraps a RESP error reply ("-ERR ..."). It is returned as
// a value embedded in batch results, not raised, except when it occurs
// during AUTH/SELECT/MULTI where it invalidates session state and is
// promoted to ConnectError/ProtocolError by the caller.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string { return e.Message }

// TransactionAborted indicates EXEC returned a RESP nil array because a
// watched key changed. It is surfaced as a boolean false, never raised,
// but is exported as a sentinel so callers can recognise it via errors.Is
// if they choose to treat it as an error in their own code.
var TransactionAborted = errors.New("redio: transaction aborted: a watched key changed")

// ErrPoolClosed is returned by Pool.Acquire after Pool.Close.
var ErrPoolClosed = errors.New("redio: pool closed")

// ErrSubscriptionMode is returned by Enqueue when called on a
// Connection that has entered Pub/Sub subscription mode.
var ErrSubscriptionMode = errors.New("redio: connection is in subscription mode")
