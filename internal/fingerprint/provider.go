package fingerprint

import (
	"context"
	"os"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Collector reads the ambient signals of the current device.
type Collector interface {
	Collect(ctx context.Context) (Signals, error)
}

// CollectorFunc adapts a function to Collector.
type CollectorFunc func(ctx context.Context) (Signals, error)

func (f CollectorFunc) Collect(ctx context.Context) (Signals, error) { return f(ctx) }

// StaticCollector always returns the same signals.
type StaticCollector Signals

func (c StaticCollector) Collect(context.Context) (Signals, error) { return Signals(c), nil }

// HostCollector reads what a non-browser process can observe about its host.
// Used by the CLI.
type HostCollector struct{}

func (HostCollector) Collect(context.Context) (Signals, error) {
	cores := runtime.NumCPU()
	name, offset := time.Now().Zone()
	offsetMinutes := -offset / 60
	host, _ := os.Hostname()
	return Signals{
		Platform:       runtime.GOOS + "/" + runtime.GOARCH,
		CPUCores:       &cores,
		Timezone:       name,
		TimezoneOffset: &offsetMinutes,
		Language:       os.Getenv("LANG"),
		Canvas:         host,
	}, nil
}

// Provider hands out the device identity, generating and storing it on
// first use. Get and Reset are safe for concurrent use.
type Provider struct {
	mu        sync.Mutex
	collector Collector
	storage   Storage
	logger    *zap.Logger
}

// NewProvider creates an identity provider.
func NewProvider(collector Collector, storage Storage, logger *zap.Logger) *Provider {
	return &Provider{collector: collector, storage: storage, logger: logger}
}

// Get returns the stored identity, generating one when none is stored.
// Storage failures are logged and never prevent an identity from being
// returned.
func (p *Provider) Get(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id, ok, err := p.storage.Load(ctx)
	if err != nil {
		p.logger.Warn("fingerprint: failed to load stored device id", zap.Error(err))
	}
	if ok && IsDeviceID(id) {
		return id, nil
	}
	return p.generateLocked(ctx), nil
}

// Reset clears the stored identity and generates a new one.
func (p *Provider) Reset(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.storage.Clear(ctx); err != nil {
		return "", err
	}
	return p.generateLocked(ctx), nil
}

func (p *Provider) generateLocked(ctx context.Context) string {
	signals, err := p.collector.Collect(ctx)
	if err != nil {
		p.logger.Warn("fingerprint: signal collection failed, using sentinels", zap.Error(err))
		signals = Signals{}
	}

	id := Generate(signals)
	if err := p.storage.Save(ctx, id); err != nil {
		p.logger.Warn("fingerprint: failed to persist device id",
			zap.String("device_id", id),
			zap.Error(err),
		)
	}
	return id
}
