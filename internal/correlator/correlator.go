// Package correlator matches response frames back to the commands that
// produced them: one monotonically assigned id per outbound command, one
// write-once completion handle per pending request.
package correlator

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"cdpclient/internal/catalog"
	"cdpclient/internal/cdp"
)

// cancelledCap bounds how many cancelled request ids are remembered so that
// a late response to a cancelled command is recognized and discarded rather
// than reported as an unknown id.
const cancelledCap = 256

type outcome struct {
	result map[string]interface{}
	err    error
}

// Pending is the completion handle for one outstanding command. It resolves
// exactly once.
type Pending struct {
	id       int64
	issuedAt time.Time
	returns  []catalog.Field
	done     chan outcome
	c        *Correlator
}

func (p *Pending) ID() int64 {
	return p.id
}

// Returns is the result schema declared for the command, stashed at send
// time so the response can be decoded without another catalog lookup.
func (p *Pending) Returns() []catalog.Field {
	return p.returns
}

// Wait suspends the caller until the matching response arrives, the session
// closes, or ctx is done. A ctx expiry cancels the request locally; any
// response arriving afterwards is matched and discarded.
func (p *Pending) Wait(ctx context.Context) (map[string]interface{}, error) {
	select {
	case out := <-p.done:
		return out.result, out.err
	case <-ctx.Done():
		p.Cancel()
		return nil, ctx.Err()
	}
}

// Cancel abandons local interest in the request. The remote side may still
// respond; the id moves to the recently-cancelled set so that response is
// discarded silently.
func (p *Pending) Cancel() {
	p.c.cancel(p.id)
}

// Correlator owns the id counter and the pending map for one session. Both
// are mutex-guarded: commands may be issued concurrently with response
// processing.
type Correlator struct {
	mu        sync.Mutex
	nextID    int64
	pending   map[int64]*Pending
	cancelled *lru.Cache[int64, struct{}]
	closed    bool
}

func New() *Correlator {
	cancelled, _ := lru.New[int64, struct{}](cancelledCap)
	return &Correlator{
		pending:   make(map[int64]*Pending),
		cancelled: cancelled,
	}
}

// Next assigns the next command id, starting at 1, and registers a pending
// completion handle under it.
func (c *Correlator) Next(returns []catalog.Field) (*Pending, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, cdp.ErrConnectionClosed
	}

	c.nextID++
	p := &Pending{
		id:       c.nextID,
		issuedAt: time.Now(),
		returns:  returns,
		done:     make(chan outcome, 1),
		c:        c,
	}
	c.pending[p.id] = p
	return p, nil
}

// Resolve completes the pending request for id with a raw result map. A
// frame for an id that is unknown or already terminal is a protocol anomaly:
// it is reported as a ProtocolViolation for the caller to log and drop, and
// is never re-delivered to the original completion handle.
func (c *Correlator) Resolve(id int64, result map[string]interface{}) error {
	return c.complete(id, outcome{result: result})
}

// Reject completes the pending request for id with the remote's error,
// delivered verbatim.
func (c *Correlator) Reject(id int64, remoteErr *cdp.Error) error {
	return c.complete(id, outcome{err: remoteErr})
}

func (c *Correlator) complete(id int64, out outcome) error {
	c.mu.Lock()
	p, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	wasCancelled := !ok && c.cancelled.Contains(id)
	if wasCancelled {
		c.cancelled.Remove(id)
	}
	c.mu.Unlock()

	if ok {
		p.done <- out
		return nil
	}
	if wasCancelled {
		// Late response to a command the caller abandoned. Not an error.
		return nil
	}
	return &cdp.ProtocolViolation{
		Context: "response",
		Reason:  fmt.Sprintf("id %d matches no pending request", id),
	}
}

func (c *Correlator) cancel(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.pending[id]; ok {
		delete(c.pending, id)
		c.cancelled.Add(id, struct{}{})
	}
}

// CloseAll abandons every pending request with a uniform connection-closed
// rejection, in ascending id order so callers observe deterministic cleanup.
// Further Next calls fail with the same error.
func (c *Correlator) CloseAll() {
	c.mu.Lock()
	c.closed = true
	abandoned := make([]*Pending, 0, len(c.pending))
	for _, p := range c.pending {
		abandoned = append(abandoned, p)
	}
	c.pending = make(map[int64]*Pending)
	c.mu.Unlock()

	sort.Slice(abandoned, func(i, j int) bool { return abandoned[i].id < abandoned[j].id })
	for _, p := range abandoned {
		p.done <- outcome{err: cdp.ErrConnectionClosed}
	}
}

func (c *Correlator) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
