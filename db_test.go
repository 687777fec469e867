package redio

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAwaitCollapsesToScalarAfterFilteringNoOutput mirrors scenario S1:
// three commands are issued, two of them (both SET) carry no
// user-visible output, and the lone remaining reply comes back bare
// rather than wrapped in a one-element slice.
func TestAwaitCollapsesToScalarAfterFilteringNoOutput(t *testing.T) {
	p, _ := newTestPool(t)
	ctx := context.Background()

	db := p.DB().Autodecode()
	res, err := db.Set("foo", `{"x":1}`).Set("bar", "baz").Get("foo").Await(ctx)
	require.NoError(t, err)

	m, ok := res.(map[string]interface{})
	require.True(t, ok, "expected auto-decoded JSON object, got %T: %v", res, res)
	assert.EqualValues(t, 1, m["x"])
}

func TestAwaitReturnsNilWhenAllCommandsAreNoOutput(t *testing.T) {
	p, _ := newTestPool(t)
	ctx := context.Background()

	res, err := p.DB().Set("a", "1").Set("b", "2").Await(ctx)
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestAwaitReturnsListForMultipleOutputCommands(t *testing.T) {
	p, _ := newTestPool(t)
	ctx := context.Background()

	_, err := p.DB().Set("a", "1").Set("b", "2").Await(ctx)
	require.NoError(t, err)

	res, err := p.DB().Get("a").Get("b").Await(ctx)
	require.NoError(t, err)

	list, ok := res.([]interface{})
	require.True(t, ok)
	require.Len(t, list, 2)
	assert.Equal(t, []byte("1"), list[0])
	assert.Equal(t, []byte("2"), list[1])
}

func TestAwaitWithNoCommandsReturnsNil(t *testing.T) {
	p, _ := newTestPool(t)
	res, err := p.DB().Await(context.Background())
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestAwaitHashFoldsHGetAll(t *testing.T) {
	p, _ := newTestPool(t)
	ctx := context.Background()

	_, err := p.DB().HSet("h", map[string]interface{}{"name": "Alice", "age": 30}).Await(ctx)
	require.NoError(t, err)

	res, err := p.DB().Strdecode().HGetAll("h").Await(ctx)
	require.NoError(t, err)

	m, ok := res.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Alice", m["name"])
	assert.Equal(t, "30", m["age"])
}

func TestAwaitServerErrorEmbeddedInResult(t *testing.T) {
	p, _ := newTestPool(t)
	ctx := context.Background()

	_, err := p.DB().LPush("list", "a").Await(ctx)
	require.NoError(t, err)

	// GET against a list key is a WRONGTYPE error from the server, not a
	// Go error: Await should surface it as a *ServerError value.
	res, err := p.DB().Get("list").Await(ctx)
	require.NoError(t, err)
	se, ok := res.(*ServerError)
	require.True(t, ok, "expected *ServerError, got %T", res)
	assert.Contains(t, se.Error(), "WRONGTYPE")
}

func TestAwaitDefaultsContextWhenOmitted(t *testing.T) {
	p, _ := newTestPool(t)
	res, err := p.DB().Ping().Await() // no context argument at all
	require.NoError(t, err)
	assert.Equal(t, "PONG", res)
}
