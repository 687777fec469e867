/*
Transaction Logic (C7)

MULTI/EXEC/WATCH are not a distinct wire feature: they are ordinary
pipelined commands whose replies need special shaping at the facade
layer (C9), per spec.md §4.7. This file holds that shaping plus the
small piece of session-state tracking (WATCH/MULTI keep a connection
"pinned" — see db.go) that the distilled spec leaves as an open
question about re-pool timing.

Open Question resolution (documented again in DESIGN.md): WATCH opens
session state on the connection exactly like MULTI does, and both must
keep the connection pinned until EXEC, DISCARD, or UNWATCH consumes a
reply — otherwise a WATCH issued in one Await and followed by MULTI/
EXEC in a later Await (necessary whenever the transaction's new values
depend on a value just read, as in spec.md's scenario S3) would silently
migrate to a different pooled connection and the watch would never
fire.
*/
package redio

// shapeExec applies spec.md §4.7's EXEC reply shaping:
//   - RESP nil array: the transaction was discarded because a watched
//     key changed; presented as `false`, never raised.
//   - RESP array: one reply per queued command, decoded per mode. If
//     every element is a simple-string reply (the common "+OK" shape),
//     the whole result collapses to the scalar `true`.
func shapeExec(r Reply, mode DecodeMode) interface{} {
	if r.Type != ReplyArray {
		return applyMode(r, mode)
	}
	if r.Array == nil {
		return false
	}
	if len(r.Array) > 0 {
		allSimple := true
		for _, item := range r.Array {
			if item.Type != ReplySimple {
				allSimple = false
				break
			}
		}
		if allSimple {
			return true
		}
	}
	out := make([]interface{}, len(r.Array))
	for i, item := range r.Array {
		out[i] = applyMode(item, mode)
	}
	return out
}
