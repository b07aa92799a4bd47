package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/onap/aai-gizmo-sub001/pkg/apperror"
	"github.com/onap/aai-gizmo-sub001/pkg/logger"
)

// Correlator pairs published requests with their responses by transaction
// id. Pending entries expire on their own if nobody waits for them.
type Correlator struct {
	pending *cache.Cache
	timeout time.Duration
	log     *slog.Logger
}

func NewCorrelator(timeout time.Duration, log *slog.Logger) *Correlator {
	return &Correlator{
		pending: cache.New(2*timeout, timeout),
		timeout: timeout,
		log:     log.With(logger.Scope("events.correlator")),
	}
}

// Pending is one registered request. Its channel is buffered so a response
// delivered before Wait starts is kept until Wait reads it.
type Pending struct {
	TxID string
	ch   chan Envelope
}

// Register must be called before the request is published.
func (c *Correlator) Register(txID string) (*Pending, error) {
	p := &Pending{TxID: txID, ch: make(chan Envelope, 1)}
	if err := c.pending.Add(txID, p, cache.DefaultExpiration); err != nil {
		return nil, fmt.Errorf("transaction %s already pending", txID)
	}
	return p, nil
}

// Deliver routes a response to its registration. Responses nobody
// registered for, or that arrive after the waiter gave up, are dropped.
func (c *Correlator) Deliver(env Envelope) bool {
	id := env.Header.RequestID
	if id == "" {
		id = env.Body.TransactionID
	}
	item, ok := c.pending.Get(id)
	if !ok {
		c.log.Debug("dropping unmatched response", slog.String("request_id", id))
		return false
	}
	c.pending.Delete(id)
	select {
	case item.(*Pending).ch <- env:
		return true
	default:
		return false
	}
}

// Wait blocks until the response for p arrives, the timeout elapses or ctx
// is done.
func (c *Correlator) Wait(ctx context.Context, p *Pending) (Envelope, error) {
	timer := time.NewTimer(c.timeout)
	defer timer.Stop()
	select {
	case env := <-p.ch:
		return env, nil
	case <-timer.C:
		c.pending.Delete(p.TxID)
		c.log.Warn("timed out waiting for event response",
			slog.String("transaction_id", p.TxID),
			slog.Duration("timeout", c.timeout))
		return Envelope{}, apperror.NewInternal("timeout waiting for event response", nil).
			WithDetails(map[string]any{"transactionId": p.TxID})
	case <-ctx.Done():
		c.pending.Delete(p.TxID)
		return Envelope{}, apperror.NewInternal("request cancelled while waiting for event response", ctx.Err())
	}
}

// Cancel forgets a registration, e.g. after a failed publish.
func (c *Correlator) Cancel(txID string) {
	c.pending.Delete(txID)
}

// Outstanding returns the number of registrations still awaiting a response.
func (c *Correlator) Outstanding() int {
	return c.pending.ItemCount()
}
