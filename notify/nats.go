package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

type NATSPublisher struct {
	mu     sync.Mutex
	nc     *nats.Conn
	closed bool
}

func Connect(url string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("sessiond"),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATSPublisher{nc: nc}, nil
}

// Publish encodes the event as JSON. NATS core publish has no context
// support, so the context is only checked up front.
func (p *NATSPublisher) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before publish: %w", err)
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.nc.Publish(event.Subject(), data); err != nil {
		return fmt.Errorf("publish %s: %w", event.Subject(), err)
	}
	return nil
}

func (p *NATSPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
		return fmt.Errorf("drain: %w", err)
	}
	return nil
}
