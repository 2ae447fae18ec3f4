package tablestore

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// owner identifies a logical caller. Holds on a table lock are counted per
// owner, so an owner can re-enter a lock it already holds.
type owner struct {
	id uint64
}

var ownerSeq atomic.Uint64

func newOwner() *owner {
	return &owner{id: ownerSeq.Add(1)}
}

type ownerKey struct{}

// WithOwner returns a context carrying an owner identity. Store calls made
// with the same owner share table locks; a context that already carries an
// owner is returned unchanged.
func WithOwner(ctx context.Context) context.Context {
	if _, ok := ownerFrom(ctx); ok {
		return ctx
	}
	return context.WithValue(ctx, ownerKey{}, newOwner())
}

func ownerFrom(ctx context.Context) (*owner, bool) {
	o, ok := ctx.Value(ownerKey{}).(*owner)
	return o, ok
}

// callerOf returns the owner on ctx, or a fresh one for anonymous callers.
func callerOf(ctx context.Context) *owner {
	if o, ok := ownerFrom(ctx); ok {
		return o
	}
	return newOwner()
}

// ownershipLock is a reentrant lock keyed by owner. Waiters block until the
// hold count drops to zero. There is no fairness and no timeout.
type ownershipLock struct {
	mu    sync.Mutex
	cond  *sync.Cond
	owner *owner
	count int
}

func newOwnershipLock() *ownershipLock {
	l := &ownershipLock{}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// acquire blocks until o holds the lock and returns how long it waited.
func (l *ownershipLock) acquire(o *owner) time.Duration {
	start := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for l.owner != nil && l.owner != o {
		l.cond.Wait()
	}
	l.owner = o
	l.count++
	return time.Since(start)
}

func (l *ownershipLock) release(o *owner) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.owner != o || l.count == 0 {
		panic("tablestore: release of a lock not held by caller")
	}
	l.count--
	if l.count == 0 {
		l.owner = nil
		l.cond.Broadcast()
	}
}

func (l *ownershipLock) heldBy(o *owner) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.owner == o
}

// Ownership is a hold on a table lock. Close drops the hold. Extend pins an
// extra hold that survives Close, and Release drops a pin taken earlier,
// possibly by another Ownership of the same owner.
type Ownership struct {
	lock   *ownershipLock
	owner  *owner
	closed bool
}

func (o *Ownership) Extend() {
	o.lock.acquire(o.owner)
}

func (o *Ownership) Release() {
	o.lock.release(o.owner)
}

// Close releases the hold taken when the Ownership was created. It is safe
// to call more than once.
func (o *Ownership) Close() {
	if o.closed {
		return
	}
	o.closed = true
	o.lock.release(o.owner)
}
