package orch

import (
	"context"
	"runtime/debug"

	"github.com/rs/zerolog/log"
)

// Loop runs posted handlers one at a time, in post order.
// Handlers never block, so a mutation and the broadcast it triggers
// are atomic with respect to every other event.
type Loop struct {
	queue chan func()
	done  chan struct{}
}

func NewLoop(size int) *Loop {
	if size <= 0 {
		size = 1
	}
	return &Loop{
		queue: make(chan func(), size),
		done:  make(chan struct{}),
	}
}

func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	log.Info().Str("module", "orch.loop").Msg("event loop started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "orch.loop").Msg("event loop stopped")
			return nil
		case fn := <-l.queue:
			l.exec(fn)
		}
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("module", "orch.loop").Interface("panic", r).Bytes("stack", debug.Stack()).Msg("handler panicked")
		}
	}()
	fn()
}

// Post queues fn. It returns false once the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.queue <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Do queues fn and waits for it to finish.
func (l *Loop) Do(fn func()) bool {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return false
	}
	select {
	case <-finished:
		return true
	case <-l.done:
		return false
	}
}
