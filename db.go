/*
DB Facade (C9)

DB is a chainable command buffer: Command/sugar methods append to an
ordered list of Commands and return the same *DB so modifier calls can
be chained builder-style (grounded on the teacher's
MiddlewareChain/CommandHandlerFunc adapter patterns in
middleware_test.go and types.go, generalized here to a buffer+modifier
builder rather than a handler chain). Await is the terminal operation:
it acquires a Connection (lazily, on first use), flushes every
buffered Command in one round trip, decodes the replies, and — unless
a transaction is still open or prevent_pooling is set — releases the
Connection back to the Pool.
*/
package redio

import "context"

// DB buffers Commands and decoding modifiers for one pipelined round
// trip. The zero value is not usable; obtain one from Pool.DB().
type DB struct {
	pool *Pool
	conn *Connection

	commands       []Command
	mode           DecodeMode
	preventPooling bool
	pinned         bool // WATCH or MULTI session state still open server-side
}

// Command appends a generic command to the buffer and returns db for
// chaining. Sugar methods in commands.go are thin wrappers over this.
func (db *DB) Command(name string, args ...interface{}) *DB {
	cmd := make(Command, 0, len(args)+1)
	cmd = append(cmd, name)
	cmd = append(cmd, args...)
	db.commands = append(db.commands, cmd)
	return db
}

// Strdecode selects the "str" output decoding mode for the next Await.
func (db *DB) Strdecode() *DB {
	db.mode = DecodeStr
	return db
}

// Autodecode selects the "auto" output decoding mode for the next
// Await. Also exported as Fulldecode, matching the two names spec.md
// lists for this modifier.
func (db *DB) Autodecode() *DB {
	db.mode = DecodeAuto
	return db
}

// Fulldecode is an alias for Autodecode.
func (db *DB) Fulldecode() *DB { return db.Autodecode() }

// PreventPooling keeps the next Await's connection bound to db instead
// of returning it to the pool, even if it comes back clean. A later
// Await without this modifier, or Release, gives it back.
func (db *DB) PreventPooling() *DB {
	db.preventPooling = true
	return db
}

// Pending reports whether commands are buffered awaiting flush.
func (db *DB) Pending() bool { return len(db.commands) > 0 }

// Release gives back a Connection pinned by a WATCH/MULTI session that
// the caller has decided not to complete (e.g. after an error). Go has
// no destructor to rely on, unlike the asyncio original, so callers
// that abandon an open transaction must call this explicitly. The
// connection is treated as unpoolable since its transaction state is
// left in an unknown position. A connection held only because of
// PreventPooling is returned to the idle list if it is still clean.
func (db *DB) Release() {
	if db.conn == nil {
		return
	}
	conn := db.conn
	db.conn = nil
	db.pool.Release(conn, db.pinned)
	db.pinned = false
}

// Await flushes every buffered command in one round trip, applies the
// active decoding mode, and returns the batch result: nil if every
// command was declared to have no user-visible output, the lone
// decoded reply if exactly one remains after filtering, or an ordered
// slice otherwise. ctx defaults to context.Background() when omitted.
func (db *DB) Await(ctx ...context.Context) (interface{}, error) {
	c := context.Background()
	if len(ctx) > 0 && ctx[0] != nil {
		c = ctx[0]
	}

	cmds := db.commands
	db.commands = nil
	if len(cmds) == 0 {
		return nil, nil
	}

	if db.conn == nil {
		conn, err := db.pool.Acquire(c)
		if err != nil {
			return nil, err
		}
		db.conn = conn
	}

	for _, cmd := range cmds {
		switch cmd.Name() {
		case "WATCH", "MULTI":
			db.pinned = true
		}
		if err := db.conn.Enqueue(cmd); err != nil {
			return nil, err
		}
	}

	replies, err := db.conn.AwaitBatch(c)
	if err != nil {
		conn := db.conn
		db.conn = nil
		db.pool.Release(conn, true)
		db.resetModifiers()
		return nil, err
	}

	mode := db.mode
	results := make([]interface{}, 0, len(cmds))
	for i, cmd := range cmds {
		name := cmd.Name()
		reply := replies[i]

		if name == "MULTI" && reply.Type == ReplyErr {
			conn := db.conn
			db.conn = nil
			db.pinned = false
			db.pool.Release(conn, true)
			db.resetModifiers()
			return nil, newProtocolError("MULTI rejected: %s", reply.Str)
		}

		switch name {
		case "EXEC":
			results = append(results, shapeExec(reply, mode))
			db.pinned = false
			continue
		case "DISCARD", "UNWATCH":
			db.pinned = false
		}

		if reply.Type == ReplyErr {
			results = append(results, &ServerError{Message: reply.Str})
			continue
		}
		if isHashShapedCommand(name) {
			results = append(results, foldHash(reply, mode))
			continue
		}
		if isNoOutputCommand(name) {
			continue
		}
		results = append(results, applyMode(reply, mode))
	}

	preventPooling := db.preventPooling || db.pinned
	if !preventPooling {
		conn := db.conn
		db.conn = nil
		db.pool.Release(conn, false)
	}
	db.resetModifiers()

	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return results[0], nil
	default:
		return results, nil
	}
}

func (db *DB) resetModifiers() {
	db.mode = DecodeNone
	db.preventPooling = false
}
