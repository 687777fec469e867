/*
Pub/Sub Receiver (C8)

PubSub owns a dedicated Connection obtained straight from the dialer —
bypassing Pool entirely, never returned to it (spec.md §4.8). Once the
first SUBSCRIBE/PSUBSCRIBE is sent the connection enters subscription
mode: afterwards the server only accepts (P)SUBSCRIBE, (P)UNSUBSCRIBE,
PING, and QUIT, and replies arrive as a single interleaved stream of
subscription-ack frames (consumed internally and discarded) and
message frames, rather than in a request/reply-paired pipeline. That is
why Subscribe/Unsubscribe here write directly to the socket
(flushRaw) instead of going through Connection.AwaitBatch's
reply-counting: an ack for a later (P)UNSUBSCRIBE can legitimately
arrive interleaved with message pushes that have nothing to do with it.
*/
package redio

import (
	"context"
	"time"
)

// Message is one Pub/Sub delivery. Channel is empty unless WithChannel
// was set before the message was received.
type Message struct {
	Channel string
	Payload interface{}
}

// PubSub is a long-lived subscription-mode Connection exposing an
// asynchronous message stream.
type PubSub struct {
	pool *Pool
	conn *Connection

	mode        DecodeMode
	withChannel bool
}

// PubSub returns a receiver bound to pool's dial target. The
// connection is opened lazily on first Subscribe/PSubscribe call.
func (p *Pool) PubSub() *PubSub {
	return &PubSub{pool: p}
}

// Strdecode selects "str" decoding for message payloads. Unlike DB,
// the mode persists across iterations rather than resetting.
func (ps *PubSub) Strdecode() *PubSub {
	ps.mode = DecodeStr
	return ps
}

// Autodecode selects "auto" decoding for message payloads.
func (ps *PubSub) Autodecode() *PubSub {
	ps.mode = DecodeAuto
	return ps
}

// Fulldecode is an alias for Autodecode.
func (ps *PubSub) Fulldecode() *PubSub { return ps.Autodecode() }

// WithChannel makes iteration yield (channel, payload) pairs via
// Message.Channel instead of payload alone.
func (ps *PubSub) WithChannel() *PubSub {
	ps.withChannel = true
	return ps
}

func (ps *PubSub) ensureConn() error {
	if ps.conn != nil {
		return nil
	}
	nc, reader, err := dial(ps.pool.target)
	if err != nil {
		return err
	}
	ps.conn = newConnection(nc, reader, ps.pool.logger)
	return nil
}

// Subscribe joins the given channels.
func (ps *PubSub) Subscribe(channels ...string) error {
	return ps.sendSubscribe(string(cmdSubscribe), channels)
}

// PSubscribe joins the given glob patterns.
func (ps *PubSub) PSubscribe(patterns ...string) error {
	return ps.sendSubscribe(string(cmdPSubscribe), patterns)
}

// Unsubscribe leaves the given channels (all channels if none given).
func (ps *PubSub) Unsubscribe(channels ...string) error {
	return ps.sendUnsubscribe(string(cmdUnsubscribe), channels)
}

// PUnsubscribe leaves the given patterns (all patterns if none given).
func (ps *PubSub) PUnsubscribe(patterns ...string) error {
	return ps.sendUnsubscribe(string(cmdPUnsub), patterns)
}

func (ps *PubSub) sendSubscribe(name string, targets []string) error {
	if err := ps.ensureConn(); err != nil {
		return err
	}
	if len(targets) == 0 {
		return newConfigError("%s requires at least one target", name)
	}
	cmd := make(Command, 0, len(targets)+1)
	cmd = append(cmd, name)
	for _, t := range targets {
		cmd = append(cmd, t)
	}
	if err := ps.conn.writeRaw(cmd); err != nil {
		return err
	}
	if err := ps.conn.flushRaw(); err != nil {
		return err
	}
	ps.conn.EnterSubscription()
	return nil
}

func (ps *PubSub) sendUnsubscribe(name string, targets []string) error {
	if ps.conn == nil {
		return nil
	}
	cmd := make(Command, 0, len(targets)+1)
	cmd = append(cmd, name)
	for _, t := range targets {
		cmd = append(cmd, t)
	}
	if err := ps.conn.writeRaw(cmd); err != nil {
		return err
	}
	return ps.conn.flushRaw()
}

// Await blocks for exactly one message: equivalent to a single
// iteration step.
func (ps *PubSub) Await(ctx context.Context) (Message, error) {
	if ps.conn == nil {
		return Message{}, newProtocolError("not subscribed to anything yet")
	}
	return ps.next(ctx)
}

// Messages returns a channel of incoming messages, closed when the
// receiver's context is cancelled or the connection breaks. This is
// the idiomatic Go stand-in for the original asyncio generator-based
// iteration protocol.
func (ps *PubSub) Messages(ctx context.Context) <-chan Message {
	out := make(chan Message)
	go func() {
		defer close(out)
		for {
			msg, err := ps.next(ctx)
			if err != nil {
				return
			}
			select {
			case out <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (ps *PubSub) next(ctx context.Context) (Message, error) {
	done := make(chan struct{})
	defer close(done)
	if ctx != nil && ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				ps.conn.nc.SetDeadline(time.Now())
			case <-done:
			}
		}()
	}

	for {
		reply, err := ps.conn.readRawReply()
		if err != nil {
			ps.conn.breakConn()
			return Message{}, err
		}
		if reply.Type != ReplyArray || len(reply.Array) == 0 {
			continue
		}
		kind := simpleOrBulkString(reply.Array[0])
		switch kind {
		case "subscribe", "unsubscribe", "psubscribe", "punsubscribe":
			continue // ack frame, consumed internally
		case "message":
			if len(reply.Array) < 3 {
				continue
			}
			channel := simpleOrBulkString(reply.Array[1])
			payload := applyMode(reply.Array[2], ps.mode)
			msg := Message{Payload: payload}
			if ps.withChannel {
				msg.Channel = channel
			}
			return msg, nil
		case "pmessage":
			if len(reply.Array) < 4 {
				continue
			}
			channel := simpleOrBulkString(reply.Array[2])
			payload := applyMode(reply.Array[3], ps.mode)
			msg := Message{Payload: payload}
			if ps.withChannel {
				msg.Channel = channel
			}
			return msg, nil
		default:
			continue
		}
	}
}

func simpleOrBulkString(r Reply) string {
	switch r.Type {
	case ReplySimple:
		return r.Str
	case ReplyBulk:
		return string(r.Bulk)
	default:
		return ""
	}
}

// Close unsubscribes from everything and closes the underlying socket.
func (ps *PubSub) Close() error {
	if ps.conn == nil {
		return nil
	}
	ps.conn.writeRaw(Command{string(cmdUnsubscribe)})
	ps.conn.writeRaw(Command{string(cmdPUnsub)})
	ps.conn.flushRaw()
	return ps.conn.Close()
}
