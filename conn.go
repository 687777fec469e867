/*
Connection — Pipelining State Machine (C5)

A Connection owns one socket and cycles through
Idle -> Buffering -> Flushing -> Draining -> Idle|Broken. Commands
accumulate in a pooled write buffer (github.com/valyala/bytebufferpool,
grounded on packetd-packetd's use of the same library for its own
per-request buffers) until AwaitBatch flushes them in one write and
reads back exactly as many replies as commands were queued, preserving
reply order per spec.md's invariant. Any I/O or protocol error, or a
cancelled AwaitBatch, clears `clean` permanently: the Connection is
abandoned rather than resynchronised, because its reply stream and
command stream have desynchronised.

A Connection is single-owner: the Pool hands it to exactly one caller
between Acquire and Release. The state and write-buffer fields below
are still guarded by a short-held mutex, and clean/subscribed are
atomics, for cross-goroutine visibility (a cancelling goroutine races
the one draining replies).
*/
package redio

import (
	"bufio"
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/bytebufferpool"
	"go.uber.org/zap"
)

type connState int32

const (
	connIdle connState = iota
	connBuffering
	connFlushing
	connDraining
	connBroken
)

var writeBufPool bytebufferpool.Pool

// Connection wraps one dialed socket with the pipelining state
// machine described in spec.md §4.5.
type Connection struct {
	id     uuid.UUID
	nc     net.Conn
	reader *bufio.Reader
	logger *zap.Logger

	mu          sync.Mutex
	state       connState
	clean       atomic.Bool
	subscribed  atomic.Bool
	writeBuf    *bytebufferpool.ByteBuffer
	queuedCount int
}

func newConnection(nc net.Conn, reader *bufio.Reader, logger *zap.Logger) *Connection {
	c := &Connection{
		id:     uuid.New(),
		nc:     nc,
		reader: reader,
		logger: logger,
		state:  connIdle,
	}
	c.clean.Store(true)
	return c
}

// Enqueue appends cmd to the write buffer. Illegal while the
// Connection is in subscription mode or already Broken.
func (c *Connection) Enqueue(cmd Command) error {
	if c.subscribed.Load() {
		return ErrSubscriptionMode
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == connBroken {
		return newProtocolError("connection is broken")
	}
	if c.writeBuf == nil {
		c.writeBuf = writeBufPool.Get()
		c.state = connBuffering
	}
	if err := writeCommand(c.writeBuf, cmd); err != nil {
		return err
	}
	c.queuedCount++
	return nil
}

// writeRaw enqueues cmd even while subscribed, for the handful of
// commands the Pub/Sub protocol still accepts in subscription mode
// ((P)SUBSCRIBE, (P)UNSUBSCRIBE, PING, QUIT).
func (c *Connection) writeRaw(cmd Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == connBroken {
		return newProtocolError("connection is broken")
	}
	if c.writeBuf == nil {
		c.writeBuf = writeBufPool.Get()
		c.state = connBuffering
	}
	if err := writeCommand(c.writeBuf, cmd); err != nil {
		return err
	}
	c.queuedCount++
	return nil
}

// AwaitBatch flushes all queued commands and reads back exactly that
// many replies, in command order. On any failure the Connection
// transitions to Broken and the error is surfaced; unread replies are
// discarded.
func (c *Connection) AwaitBatch(ctx context.Context) ([]Reply, error) {
	c.mu.Lock()
	n := c.queuedCount
	buf := c.writeBuf
	c.writeBuf = nil
	c.queuedCount = 0
	if n == 0 {
		c.mu.Unlock()
		return nil, nil
	}
	c.state = connFlushing
	c.mu.Unlock()

	defer writeBufPool.Put(buf)

	if ctx != nil && ctx.Done() != nil {
		done := make(chan struct{})
		defer close(done)
		go func() {
			select {
			case <-ctx.Done():
				c.nc.SetDeadline(time.Now())
			case <-done:
			}
		}()
	}

	if _, err := c.nc.Write(buf.Bytes()); err != nil {
		c.breakConn()
		return nil, newProtocolError("flush failed: %v", err)
	}

	c.mu.Lock()
	c.state = connDraining
	c.mu.Unlock()

	replies := make([]Reply, n)
	for i := 0; i < n; i++ {
		r, err := readReply(c.reader)
		if err != nil {
			c.breakConn()
			return nil, newProtocolError("reading reply %d/%d: %v", i+1, n, err)
		}
		replies[i] = r
	}

	if ctx != nil {
		select {
		case <-ctx.Done():
			c.breakConn()
			return nil, ctx.Err()
		default:
		}
	}

	c.mu.Lock()
	c.state = connIdle
	c.mu.Unlock()
	return replies, nil
}

// flushRaw writes whatever is buffered directly to the socket without
// expecting a matched reply per queued frame — used by Pub/Sub, whose
// replies arrive as an interleaved stream of acks and pushed messages
// rather than a clean pipeline.
func (c *Connection) flushRaw() error {
	c.mu.Lock()
	buf := c.writeBuf
	c.writeBuf = nil
	c.queuedCount = 0
	c.mu.Unlock()
	if buf == nil {
		return nil
	}
	defer writeBufPool.Put(buf)
	if _, err := c.nc.Write(buf.Bytes()); err != nil {
		c.breakConn()
		return newProtocolError("flush failed: %v", err)
	}
	return nil
}

// readRawReply reads exactly one frame directly off the socket,
// bypassing the pipelined reply-counting AwaitBatch performs.
func (c *Connection) readRawReply() (Reply, error) {
	return readReply(c.reader)
}

// EnterSubscription switches the Connection into one-way Pub/Sub
// receive mode. clean is cleared permanently: a subscription
// Connection is never returned to the pool.
func (c *Connection) EnterSubscription() {
	c.subscribed.Store(true)
	c.clean.Store(false)
}

func (c *Connection) breakConn() {
	c.mu.Lock()
	c.state = connBroken
	c.mu.Unlock()
	c.clean.Store(false)
	if c.logger != nil {
		c.logger.Warn("redio: connection broken", zap.String("id", c.id.String()))
	}
}

// Clean reports whether the Connection may still be returned to the
// pool: no pending I/O error, protocol error, or subscription entry.
func (c *Connection) Clean() bool {
	return c.clean.Load()
}

// Close closes the underlying socket.
func (c *Connection) Close() error {
	return c.nc.Close()
}
