/*
Package redio implements an asynchronous Redis client built around a
pooled, pipelined connection model.

This file ties the package's pieces together and documents the
top-level surface. The core responsibilities are spread across:

Wire Protocol:
- resp.go: RESP argument encoding and incremental reply decoding.
- decode.go: none/str/auto output decoding modes applied to replies.

Connectivity:
- url.go: connection-URL parsing and the TCP/Unix(+TLS) dialer.
- conn.go: the pipelining state machine owning one socket.
- pool.go: the connection pool handed a URL at construction.

Command Surface:
- db.go: the chainable command buffer (DB) and its Await terminal.
- commands.go: the command-name table and generated sugar methods.
- tx.go: WATCH/MULTI/EXEC/DISCARD reply shaping.
- pubsub.go: the dedicated Pub/Sub subscription receiver.

Usage Example:

	pool, err := redio.NewPool("redis://localhost:6379/0")
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	v, err := pool.DB().Autodecode().Get("jsonkey").Await()
	if err != nil {
		log.Fatal(err)
	}

Architecture:
A connection is single-owner between Pool.Acquire and Pool.Release.
Go's goroutines and context.Context stand in for the cooperative
single-threaded asyncio runtime spec.md was written against — see
SPEC_FULL.md's introduction for the precise translation.
*/
package redio
