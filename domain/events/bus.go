package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/onap/aai-gizmo-sub001/pkg/logger"
)

// ErrBusClosed is returned by a bus after Close.
var ErrBusClosed = errors.New("event bus closed")

// Handler receives envelopes delivered on a subject.
type Handler func(ctx context.Context, env Envelope)

// Bus carries envelopes between publishers and subscribers. Delivery is at
// most once.
type Bus interface {
	Publish(ctx context.Context, subject string, env Envelope) error
	// Subscribe returns a function that removes the subscription.
	Subscribe(ctx context.Context, subject string, h Handler) (func(), error)
	Ping(ctx context.Context) error
	Close() error
}

// MemoryBus delivers in process. Each delivery runs on its own goroutine and
// sees a decoded copy of the published envelope, as a network bus would.
type MemoryBus struct {
	log         *slog.Logger
	mu          sync.RWMutex
	subscribers map[string]map[string]Handler
	inflight    sync.WaitGroup
	closed      bool
}

var _ Bus = (*MemoryBus)(nil)

func NewMemoryBus(log *slog.Logger) *MemoryBus {
	return &MemoryBus{
		log:         log.With(logger.Scope("events.memory")),
		subscribers: make(map[string]map[string]Handler),
	}
}

func (b *MemoryBus) Subscribe(_ context.Context, subject string, h Handler) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrBusClosed
	}
	id := uuid.NewString()
	if b.subscribers[subject] == nil {
		b.subscribers[subject] = make(map[string]Handler)
	}
	b.subscribers[subject][id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if subs, ok := b.subscribers[subject]; ok {
			delete(subs, id)
			if len(subs) == 0 {
				delete(b.subscribers, subject)
			}
		}
	}, nil
}

func (b *MemoryBus) Publish(ctx context.Context, subject string, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}
	subs := b.subscribers[subject]
	if len(subs) == 0 {
		b.log.Debug("no subscribers", slog.String("subject", subject))
		return nil
	}

	deliverCtx := context.WithoutCancel(ctx)
	for _, h := range subs {
		copied, err := DecodeEnvelope(data)
		if err != nil {
			return err
		}
		b.inflight.Add(1)
		go func(h Handler) {
			defer b.inflight.Done()
			h(deliverCtx, copied)
		}(h)
	}
	return nil
}

// SubscriberCount returns the handlers registered on subject.
func (b *MemoryBus) SubscriberCount(subject string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[subject])
}

func (b *MemoryBus) Ping(context.Context) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}
	return nil
}

// Close stops new publishes and waits for deliveries in flight.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	b.closed = true
	b.subscribers = make(map[string]map[string]Handler)
	b.mu.Unlock()
	b.inflight.Wait()
	return nil
}
