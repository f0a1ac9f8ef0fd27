// SPDX-License-Identifier: MPL-2.0

// Package serverbase provides the lifecycle state machine shared by the HTTP
// catalog server and the SSH browser server.
package serverbase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Base tracks a server's lifecycle. Concrete servers embed it and call the
// Transition* helpers from Start and Stop.
//
// A server instance is single-use: once stopped or failed, create a new one.
type Base struct {
	state atomic.Int32

	mu      sync.Mutex
	lastErr error

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	startedCh chan struct{}
	errCh     chan error
}

// NewBase returns a Base in StateCreated.
func NewBase() *Base {
	b := &Base{
		startedCh: make(chan struct{}),
		errCh:     make(chan error, 1),
	}
	b.state.Store(int32(StateCreated))
	return b
}

// State returns the current state without locking.
func (b *Base) State() State {
	return State(b.state.Load())
}

// IsRunning reports whether the server is accepting connections.
func (b *Base) IsRunning() bool {
	return b.State() == StateRunning
}

// Err returns a channel that receives asynchronous serve errors.
func (b *Base) Err() <-chan error {
	return b.errCh
}

// LastError returns the error that caused StateFailed, or nil.
func (b *Base) LastError() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr
}

// TransitionToStarting moves Created to Starting. It fails if ctx is already
// done or the server was started before.
func (b *Base) TransitionToStarting(ctx context.Context) error {
	// Checked first so an already-cancelled start never reaches Running.
	if err := ctx.Err(); err != nil {
		b.TransitionToFailed(fmt.Errorf("context cancelled before start: %w", err))
		return b.LastError()
	}

	if !b.state.CompareAndSwap(int32(StateCreated), int32(StateStarting)) {
		return fmt.Errorf("cannot start server in state %s", b.State())
	}

	b.ctx, b.cancel = context.WithCancel(context.Background())
	return nil
}

// TransitionToRunning moves Starting to Running and releases WaitForReady.
func (b *Base) TransitionToRunning() {
	if b.state.CompareAndSwap(int32(StateStarting), int32(StateRunning)) {
		close(b.startedCh)
	}
}

// TransitionToFailed records err and moves to Failed.
func (b *Base) TransitionToFailed(err error) {
	b.mu.Lock()
	b.lastErr = err
	b.mu.Unlock()

	b.state.Store(int32(StateFailed))
	if b.cancel != nil {
		b.cancel()
	}
	b.SendError(err)
}

// TransitionToStopping moves Starting or Running to Stopping and cancels the
// server context. It returns false when there is nothing to stop; a server
// that never started goes straight to Stopped.
func (b *Base) TransitionToStopping() bool {
	for {
		current := b.State()
		switch current {
		case StateCreated:
			if b.state.CompareAndSwap(int32(StateCreated), int32(StateStopped)) {
				return false
			}
		case StateStarting, StateRunning:
			if b.state.CompareAndSwap(int32(current), int32(StateStopping)) {
				if b.cancel != nil {
					b.cancel()
				}
				return true
			}
		default:
			return false
		}
	}
}

// TransitionToStopped marks the server stopped. Call it after Wait returns.
func (b *Base) TransitionToStopped() {
	b.state.Store(int32(StateStopped))
}

// WaitForReady blocks until Running or until ctx is done.
func (b *Base) WaitForReady(ctx context.Context) error {
	select {
	case <-b.startedCh:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for server ready: %w", ctx.Err())
	}
}

// StartedChannel is closed when the server reaches Running.
func (b *Base) StartedChannel() <-chan struct{} {
	return b.startedCh
}

// Context is cancelled when the server stops or fails. It is nil before Start.
func (b *Base) Context() context.Context {
	return b.ctx
}

// Go runs fn in a goroutine tracked by Wait, passing the server context.
func (b *Base) Go(fn func(ctx context.Context)) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		fn(b.ctx)
	}()
}

// Wait blocks until every goroutine started with Go has returned.
func (b *Base) Wait() {
	b.wg.Wait()
}

// SendError delivers err to Err without blocking; it is dropped if an error
// is already pending.
func (b *Base) SendError(err error) {
	select {
	case b.errCh <- err:
	default:
	}
}
