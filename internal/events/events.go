// Package events runs the single-consumer pipeline that reacts to
// catalog mutations by invoking the external encoder, grounded on the
// teacher's internal/pipeline/bus in-process channel pattern -- but
// fixed to one topic, one bounded channel, and one consumer goroutine,
// since nothing in this system needs general-purpose pub/sub (spec
// §4.F).
package events

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	xglog "github.com/shibafu528/dtvault-central/internal/log"
	"github.com/shibafu528/dtvault-central/internal/metrics"
)

// queueCapacity bounds the number of pending VideoCreated events; a
// publisher that outruns the consumer blocks rather than growing
// memory unboundedly.
const queueCapacity = 16

// VideoCreated is published once a video's bytes have been fully
// written and committed to the catalog.
type VideoCreated struct {
	ProgramID string
	VideoID   string
}

// Handler processes one VideoCreated event. A non-nil error is logged;
// it does not stop the consumer loop.
type Handler func(ctx context.Context, ev VideoCreated) error

// Pipeline owns the bounded channel and its single consumer goroutine.
type Pipeline struct {
	ch      chan VideoCreated
	handler Handler
	log     zerolog.Logger

	wg      sync.WaitGroup
	closed  atomic.Bool
}

// NewPipeline starts the consumer goroutine immediately, bound to ctx.
// Stop closes the queue and waits for the goroutine to exit.
func NewPipeline(ctx context.Context, handler Handler) *Pipeline {
	p := &Pipeline{
		ch:      make(chan VideoCreated, queueCapacity),
		handler: handler,
		log:     xglog.WithComponent("events.pipeline"),
	}
	p.wg.Add(1)
	go p.run(ctx)
	return p
}

func (p *Pipeline) run(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case ev, ok := <-p.ch:
			if !ok {
				return
			}
			metrics.SetEventQueueDepth(len(p.ch))
			if err := p.handler(ctx, ev); err != nil {
				metrics.RecordEventHandlerFailure("video_created")
				p.log.Error().Err(err).Str("video_id", ev.VideoID).Msg("video_created handler failed")
			}
		case <-ctx.Done():
			return
		}
	}
}

// Publish enqueues ev, blocking until there is room or ctx is done.
func (p *Pipeline) Publish(ctx context.Context, ev VideoCreated) error {
	if p.closed.Load() {
		return context.Canceled
	}
	select {
	case p.ch <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Depth reports the number of events currently queued, for metrics.
func (p *Pipeline) Depth() int {
	return len(p.ch)
}

// Stop closes the publish side and waits for the consumer to drain and
// exit.
func (p *Pipeline) Stop() {
	if p.closed.CompareAndSwap(false, true) {
		close(p.ch)
	}
	p.wg.Wait()
}
