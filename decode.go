/*
Output Decoding Modes

After a batch round-trips successfully, the pending decoding mode
rewrites bulk payloads in the reply tree (never simple-string or
integer nodes, and never the keys of hash-shaped replies — see
foldHash). Three modes: none (raw bytes), str (lossy UTF-8 with
surrogate-escape substitution for invalid bytes), auto (parse as JSON
when the payload looks like one, else fall back to str, else raw
bytes for non-UTF-8 payloads).
*/
package redio

import (
	"regexp"
	"strings"
	"unicode/utf8"

	json "github.com/goccy/go-json"
)

// DecodeMode selects how C3 rewrites bulk reply payloads.
type DecodeMode int

const (
	// DecodeNone leaves bulk payloads as raw []byte.
	DecodeNone DecodeMode = iota
	// DecodeStr decodes bulk payloads as UTF-8 with surrogate-escape.
	DecodeStr
	// DecodeAuto additionally attempts a JSON parse of valid-UTF-8 payloads.
	DecodeAuto
)

// jsonNumberGrammar matches the strict number grammar used to decide
// whether a short string like "10" should be treated as a JSON scalar in
// auto mode. Container documents are recognised by their leading brace
// or bracket instead, so this only needs to cover bare numbers.
var jsonNumberGrammar = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

// decodeBulk rewrites one bulk payload according to mode.
func decodeBulk(b []byte, mode DecodeMode) interface{} {
	switch mode {
	case DecodeNone:
		return b
	case DecodeStr:
		return surrogateDecode(b)
	case DecodeAuto:
		if !utf8.Valid(b) {
			return b
		}
		if looksLikeJSON(b) {
			var v interface{}
			if err := json.Unmarshal(b, &v); err == nil {
				return v
			}
		}
		return string(b)
	default:
		return b
	}
}

func looksLikeJSON(b []byte) bool {
	trimmed := strings.TrimSpace(string(b))
	if trimmed == "" {
		return false
	}
	switch trimmed[0] {
	case '{', '[':
		return true
	}
	return jsonNumberGrammar.MatchString(trimmed)
}

// surrogateDecode decodes b as UTF-8, substituting each byte that
// cannot start or continue a valid rune with a lone low surrogate code
// point U+DC00+b, so the round trip to bytes stays lossless. Each
// invalid byte becomes exactly one code point; valid multi-byte runes
// stay one code point each.
func surrogateDecode(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))
	i := 0
	for i < len(b) {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			writeSurrogateByte(&sb, b[i])
			i++
			continue
		}
		sb.WriteRune(r)
		i += size
	}
	return sb.String()
}

// writeSurrogateByte appends the raw 3-byte WTF-8 style encoding of
// code point U+DC00+b to sb. Go's utf8 package refuses to encode
// surrogate-range code points (they are not valid Unicode scalar
// values), so the bytes are written directly rather than through
// utf8.EncodeRune.
func writeSurrogateByte(sb *strings.Builder, b byte) {
	cp := 0xDC00 + uint32(b)
	sb.WriteByte(byte(0xE0 | (cp >> 12)))
	sb.WriteByte(byte(0x80 | ((cp >> 6) & 0x3F)))
	sb.WriteByte(byte(0x80 | (cp & 0x3F)))
}

// applyMode recursively rewrites a Reply tree into plain Go values
// according to mode. Errors decode to *ServerError values rather than
// being raised, so they remain inspectable inside array replies.
func applyMode(r Reply, mode DecodeMode) interface{} {
	switch r.Type {
	case ReplySimple:
		return r.Str
	case ReplyErr:
		return &ServerError{Message: r.Str}
	case ReplyInteger:
		return r.Int
	case ReplyBulk:
		if r.Bulk == nil {
			return nil
		}
		return decodeBulk(r.Bulk, mode)
	case ReplyArray:
		if r.Array == nil {
			return nil
		}
		out := make([]interface{}, len(r.Array))
		for i, item := range r.Array {
			out[i] = applyMode(item, mode)
		}
		return out
	default:
		return nil
	}
}

// foldHash folds a flat key/value bulk-array reply (as returned by
// HGETALL and similar commands) into a map. Keys are always decoded as
// lossy UTF-8 with surrogate-escape regardless of the active mode;
// values decode per mode.
func foldHash(r Reply, mode DecodeMode) interface{} {
	if r.Type != ReplyArray || r.Array == nil {
		return applyMode(r, mode)
	}
	out := make(map[string]interface{}, len(r.Array)/2)
	for i := 0; i+1 < len(r.Array); i += 2 {
		keyReply := r.Array[i]
		var key string
		if keyReply.Type == ReplyBulk && keyReply.Bulk != nil {
			key = surrogateDecode(keyReply.Bulk)
		} else {
			key = surrogateDecode([]byte(keyReply.Str))
		}
		out[key] = applyMode(r.Array[i+1], mode)
	}
	return out
}
