/*
Connection Pool (C6)

Hands out idle connections LIFO (hot-connection reuse), dials new ones
lazily up to a configured width, and suspends callers when the pool is
both empty and at capacity. Concurrent Acquire/Release calls serialise
through a single mutex held only for list bookkeeping — no socket I/O
ever happens under the lock, matching spec.md §5's "no await under
lock" requirement. Waiters block on a private wake channel rather than
a condition variable so that a cancelled Acquire can stop waiting
without disturbing anyone else — the generalisation, to an arbitrary
pool width, of the single-slot channel semaphore the pascaldekloe
reference client uses for its one-connection case.
*/
package redio

import (
	"context"
	"sync"
	"time"

	multierror "github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
)

const defaultMaxSize = 16

type idleConn struct {
	conn  *Connection
	since time.Time
}

// Pool owns a URL's worth of connections to one Redis node.
type Pool struct {
	target  *dialTarget
	maxSize int
	logger  *zap.Logger

	idleTimeout time.Duration
	reaperStop  chan struct{}

	mu      sync.Mutex
	idle    []idleConn
	waiters []chan struct{}
	live    int
	closed  bool
}

// PoolOption configures NewPool.
type PoolOption func(*Pool)

// WithMaxSize overrides the default pool width of 16.
func WithMaxSize(n int) PoolOption {
	return func(p *Pool) { p.maxSize = n }
}

// WithLogger attaches a zap.Logger for connection lifecycle events.
func WithLogger(logger *zap.Logger) PoolOption {
	return func(p *Pool) { p.logger = logger }
}

// WithIdleTimeout enables a background reaper that closes pooled
// connections idle longer than d. Zero (the default) disables
// reaping, matching spec.md's "left to the embedding runtime" note —
// Go's runtime is its own host, so redio supplies the reaper directly.
func WithIdleTimeout(d time.Duration) PoolOption {
	return func(p *Pool) { p.idleTimeout = d }
}

// NewPool parses url per spec.md §4.4 and returns a Pool ready to dial
// connections on demand.
func NewPool(url string, opts ...PoolOption) (*Pool, error) {
	target, err := parseURL(url)
	if err != nil {
		return nil, err
	}
	p := &Pool{
		target:     target,
		maxSize:    defaultMaxSize,
		logger:     defaultLogger(),
		reaperStop: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.idleTimeout > 0 {
		go p.reapIdle()
	}
	return p, nil
}

// DB returns a fresh DB facade bound to this pool. The facade acquires
// a Connection lazily on its first await.
func (p *Pool) DB() *DB {
	return &DB{pool: p, mode: DecodeNone}
}

// Acquire pops an idle connection, dials a new one if under capacity,
// or blocks until one is released. Returns ErrPoolClosed once Close
// has run.
func (p *Pool) Acquire(ctx context.Context) (*Connection, error) {
	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return nil, ErrPoolClosed
		}
		if n := len(p.idle); n > 0 {
			c := p.idle[n-1].conn
			p.idle = p.idle[:n-1]
			p.mu.Unlock()
			return c, nil
		}
		if p.live < p.maxSize {
			p.live++
			p.mu.Unlock()
			conn, err := p.dialNew()
			if err != nil {
				p.mu.Lock()
				p.live--
				p.mu.Unlock()
				p.wakeOne()
				return nil, err
			}
			return conn, nil
		}
		wake := make(chan struct{}, 1)
		p.waiters = append(p.waiters, wake)
		p.mu.Unlock()

		select {
		case <-wake:
			continue
		case <-ctx.Done():
			p.removeWaiter(wake)
			return nil, ctx.Err()
		}
	}
}

// Release returns conn to the idle list if it is still clean and
// poolable; otherwise it closes the socket and decrements the live
// count.
func (p *Pool) Release(conn *Connection, preventPooling bool) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		conn.Close()
		return
	}
	if conn.Clean() && !preventPooling {
		p.idle = append(p.idle, idleConn{conn: conn, since: time.Now()})
		p.mu.Unlock()
		p.wakeOne()
		return
	}
	p.live--
	p.mu.Unlock()
	conn.Close()
	p.wakeOne()
}

// Stats reports (live, idle) connection counts.
func (p *Pool) Stats() (live, idle int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.live, len(p.idle)
}

// Close drains the idle list, closing every socket, and fails future
// Acquire calls with ErrPoolClosed. Per-connection close errors are
// aggregated with hashicorp/go-multierror.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	idle := p.idle
	p.idle = nil
	waiters := p.waiters
	p.waiters = nil
	p.mu.Unlock()

	close(p.reaperStop)

	var result *multierror.Error
	for _, ic := range idle {
		if err := ic.conn.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	for _, w := range waiters {
		close(w)
	}
	return result.ErrorOrNil()
}

// Ping dials (or reuses) a connection, sends PING, and releases it —
// a readiness-probe convenience carried over from original_source.
func (p *Pool) Ping(ctx context.Context) error {
	conn, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	if err := conn.Enqueue(Command{"PING"}); err != nil {
		p.Release(conn, true)
		return err
	}
	replies, err := conn.AwaitBatch(ctx)
	if err != nil {
		p.Release(conn, true)
		return err
	}
	p.Release(conn, false)
	if len(replies) == 1 && replies[0].Type == ReplyErr {
		return &ServerError{Message: replies[0].Str}
	}
	return nil
}

func (p *Pool) dialNew() (*Connection, error) {
	nc, reader, err := dial(p.target)
	if err != nil {
		return nil, err
	}
	if p.logger != nil {
		p.logger.Debug("redio: dialed connection", zap.String("network", p.target.network), zap.String("address", p.target.address))
	}
	return newConnection(nc, reader, p.logger), nil
}

func (p *Pool) wakeOne() {
	p.mu.Lock()
	if len(p.waiters) == 0 {
		p.mu.Unlock()
		return
	}
	w := p.waiters[0]
	p.waiters = p.waiters[1:]
	p.mu.Unlock()
	select {
	case w <- struct{}{}:
	default:
	}
}

func (p *Pool) removeWaiter(target chan struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, w := range p.waiters {
		if w == target {
			p.waiters = append(p.waiters[:i], p.waiters[i+1:]...)
			return
		}
	}
}

func (p *Pool) reapIdle() {
	ticker := time.NewTicker(p.idleTimeout / 2)
	defer ticker.Stop()
	for {
		select {
		case <-p.reaperStop:
			return
		case <-ticker.C:
			p.reapOnce()
		}
	}
}

func (p *Pool) reapOnce() {
	cutoff := time.Now().Add(-p.idleTimeout)
	p.mu.Lock()
	kept := p.idle[:0]
	var stale []idleConn
	for _, ic := range p.idle {
		if ic.since.Before(cutoff) {
			stale = append(stale, ic)
		} else {
			kept = append(kept, ic)
		}
	}
	p.idle = kept
	p.live -= len(stale)
	p.mu.Unlock()

	for _, ic := range stale {
		ic.conn.Close()
	}
}
