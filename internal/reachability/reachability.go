// Package reachability answers whether the network is usable before a sync
// starts.
package reachability

import (
	"context"
	"net"
	"time"

	"github.com/amiyamandal-dev/topalbums/internal/config"
	"github.com/amiyamandal-dev/topalbums/pkg/logger"
)

// Checker reports whether the upstream host can currently be reached
type Checker interface {
	IsReachable(ctx context.Context) bool
}

// Static always returns the same answer
type Static bool

// IsReachable implements Checker
func (s Static) IsReachable(context.Context) bool {
	return bool(s)
}

// Prober dials a TCP address and reports success
type Prober struct {
	address string
	timeout time.Duration
	dialer  *net.Dialer
	logger  *logger.Logger
}

// New returns a Checker for cfg. A disabled probe always reports reachable.
func New(cfg config.ReachabilityConfig, log *logger.Logger) Checker {
	if !cfg.Enabled {
		return Static(true)
	}
	return NewProber(cfg.ProbeAddress, cfg.Timeout, log)
}

// NewProber creates a TCP prober for address (host:port)
func NewProber(address string, timeout time.Duration, log *logger.Logger) *Prober {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Prober{
		address: address,
		timeout: timeout,
		dialer:  &net.Dialer{},
		logger:  log.WithComponent("reachability"),
	}
}

// IsReachable opens and immediately closes a TCP connection
func (p *Prober) IsReachable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	conn, err := p.dialer.DialContext(ctx, "tcp", p.address)
	if err != nil {
		p.logger.Debug("Reachability probe failed", "address", p.address, "error", err)
		return false
	}
	_ = conn.Close()
	return true
}
