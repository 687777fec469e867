package redio

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeArgScalars(t *testing.T) {
	cases := []struct {
		in   interface{}
		want string
	}{
		{"hello", "hello"},
		{[]byte("raw"), "raw"},
		{42, "42"},
		{int64(-7), "-7"},
		{uint16(9), "9"},
		{3.5, "3.5"},
		{true, "true"},
		{false, "false"},
		{nil, ""},
	}
	for _, c := range cases {
		got, err := EncodeArg(c.in)
		require.NoError(t, err)
		assert.Equal(t, c.want, string(got))
	}
}

func TestEncodeArgComposite(t *testing.T) {
	got, err := EncodeArg(map[string]interface{}{"a": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(got))

	got, err = EncodeArg([]interface{}{1, "two", 3.0})
	require.NoError(t, err)
	assert.JSONEq(t, `[1,"two",3.0]`, string(got))
}

func TestCommandName(t *testing.T) {
	cmd := Command{"GET", "foo"}
	assert.Equal(t, "GET", cmd.Name())
	assert.Equal(t, "", Command{}.Name())
}

func TestWriteCommandFrame(t *testing.T) {
	var buf bytes.Buffer
	err := writeCommand(&buf, Command{"SET", "foo", "bar"})
	require.NoError(t, err)
	assert.Equal(t, "*3\r\n$3\r\nSET\r\n$3\r\nfoo\r\n$3\r\nbar\r\n", buf.String())
}

func readOneReply(t *testing.T, raw string) Reply {
	t.Helper()
	r, err := readReply(bufio.NewReader(strings.NewReader(raw)))
	require.NoError(t, err)
	return r
}

func TestReadReplySimple(t *testing.T) {
	r := readOneReply(t, "+OK\r\n")
	assert.Equal(t, ReplySimple, r.Type)
	assert.Equal(t, "OK", r.Str)
}

func TestReadReplyError(t *testing.T) {
	r := readOneReply(t, "-ERR bad thing\r\n")
	assert.Equal(t, ReplyErr, r.Type)
	assert.Equal(t, "ERR bad thing", r.Str)
}

func TestReadReplyInteger(t *testing.T) {
	r := readOneReply(t, ":1000\r\n")
	assert.Equal(t, ReplyInteger, r.Type)
	assert.EqualValues(t, 1000, r.Int)
}

func TestReadReplyBulk(t *testing.T) {
	r := readOneReply(t, "$5\r\nhello\r\n")
	assert.Equal(t, ReplyBulk, r.Type)
	assert.Equal(t, "hello", string(r.Bulk))
	assert.False(t, r.IsNil())
}

func TestReadReplyNilBulk(t *testing.T) {
	r := readOneReply(t, "$-1\r\n")
	assert.True(t, r.IsNil())
	assert.Nil(t, r.Bulk)
}

func TestReadReplyNilArray(t *testing.T) {
	r := readOneReply(t, "*-1\r\n")
	assert.True(t, r.IsNil())
	assert.Nil(t, r.Array)
}

func TestReadReplyArrayNested(t *testing.T) {
	r := readOneReply(t, "*2\r\n$3\r\nfoo\r\n*1\r\n:7\r\n")
	require.Equal(t, ReplyArray, r.Type)
	require.Len(t, r.Array, 2)
	assert.Equal(t, "foo", string(r.Array[0].Bulk))
	assert.Equal(t, ReplyArray, r.Array[1].Type)
	assert.EqualValues(t, 7, r.Array[1].Array[0].Int)
}

func TestReadReplyEmptyBulk(t *testing.T) {
	r := readOneReply(t, "$0\r\n\r\n")
	assert.Equal(t, ReplyBulk, r.Type)
	assert.Equal(t, "", string(r.Bulk))
	assert.NotNil(t, r.Bulk)
}

func TestReadReplyBulkLengthOutOfBounds(t *testing.T) {
	_, err := readReply(bufio.NewReader(strings.NewReader("$999999999999\r\n")))
	require.Error(t, err)
	assert.IsType(t, &ProtocolError{}, errCause(err))
}

func TestReadReplyArrayLengthOutOfBounds(t *testing.T) {
	_, err := readReply(bufio.NewReader(strings.NewReader("*999999999999\r\n")))
	require.Error(t, err)
	assert.IsType(t, &ProtocolError{}, errCause(err))
}

func TestReadReplyUnknownFrameType(t *testing.T) {
	_, err := readReply(bufio.NewReader(strings.NewReader("?foo\r\n")))
	require.Error(t, err)
}

// TestReplyOrderingPreserved encodes a batch of commands with
// writeCommand, then reads a canned reply stream with readReply and
// checks the replies decode back in stream order, the core invariant
// pipelining depends on.
func TestReplyOrderingPreserved(t *testing.T) {
	var wire bytes.Buffer
	cmds := []Command{{"PING"}, {"GET", "a"}, {"GET", "b"}}
	for _, c := range cmds {
		require.NoError(t, writeCommand(&wire, c))
	}
	_ = wire // commands encoded only to exercise the writer; reply stream below is independent

	replyStream := "+PONG\r\n$1\r\n1\r\n$1\r\n2\r\n"
	reader := bufio.NewReader(strings.NewReader(replyStream))
	var got []Reply
	for i := 0; i < len(cmds); i++ {
		r, err := readReply(reader)
		require.NoError(t, err)
		got = append(got, r)
	}
	assert.Equal(t, "PONG", got[0].Str)
	assert.Equal(t, "1", string(got[1].Bulk))
	assert.Equal(t, "2", string(got[2].Bulk))
}

// errCause unwraps a github.com/pkg/errors-wrapped error down to its
// underlying cause for type assertions in tests.
func errCause(err error) error {
	type causer interface{ Cause() error }
	for {
		c, ok := err.(causer)
		if !ok {
			return err
		}
		err = c.Cause()
	}
}
