package status

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Source samples the current run progress
type Source func() Snapshot

// PublisherConfig places the block on the endpoint
type PublisherConfig struct {
	UnitID     uint8
	Address    uint16
	Interval   time.Duration
	DeviceName string
}

// Publisher periodically writes a Snapshot to a RegisterWriter
type Publisher struct {
	w      RegisterWriter
	cfg    PublisherConfig
	name   []uint16
	logger hclog.Logger

	mu        sync.Mutex
	heartbeat uint16
	failing   bool
	writes    uint64
	failures  uint64

	cancel context.CancelFunc
	done   chan struct{}
}

// NewPublisher creates a publisher. A zero interval defaults to 500ms.
func NewPublisher(w RegisterWriter, cfg PublisherConfig, logger hclog.Logger) *Publisher {
	if cfg.Interval <= 0 {
		cfg.Interval = 500 * time.Millisecond
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Publisher{
		w:      w,
		cfg:    cfg,
		name:   EncodeDeviceName(cfg.DeviceName),
		logger: logger,
	}
}

// Publish writes one full block
func (p *Publisher) Publish(s Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.heartbeat++
	regs := Encode(s, p.heartbeat, p.name)

	if err := p.w.WriteRegisters(p.cfg.UnitID, p.cfg.Address, regs); err != nil {
		p.failures++
		if !p.failing {
			p.logger.Warn("status write failed", "error", err)
		}
		p.failing = true
		return fmt.Errorf("status: write block: %w", err)
	}

	if p.failing {
		p.logger.Info("status write recovered")
	}
	p.failing = false
	p.writes++
	return nil
}

// Start publishes src every interval until Stop. Not safe to call twice.
func (p *Publisher) Start(ctx context.Context, src Source) {
	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)

		ticker := time.NewTicker(p.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.Publish(src())
			}
		}
	}()
}

// Stop ends periodic publishing, writes final and closes the writer
func (p *Publisher) Stop(final Snapshot) error {
	if p.cancel != nil {
		p.cancel()
		<-p.done
		p.cancel = nil
	}

	perr := p.Publish(final)
	cerr := p.w.Close()
	if perr != nil {
		return perr
	}
	return cerr
}

// Stats returns the number of successful and failed writes
func (p *Publisher) Stats() (writes, failures uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writes, p.failures
}
