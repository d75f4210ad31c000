// Package bkn simulates the real-time SKP status feed of the national E-Kinerja system.
package bkn

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/skphelp/internal/logging"
	"github.com/aretw0/skphelp/pkg/domain"
	"github.com/aretw0/skphelp/pkg/ports"
)

// BusyMessage is shown when the upstream does not answer.
const BusyMessage = "Server E-Kinerja BKN sedang sibuk (Timeout). Silakan coba lagi."

// Defaults match the latency and error rate observed on the upstream.
const (
	DefaultMinDelay    = 1500 * time.Millisecond
	DefaultMaxDelay    = 3000 * time.Millisecond
	DefaultFailureRate = 0.05
)

// seniorPrefix marks NIPs whose plans are already approved.
const seniorPrefix = "1985"

// TimeoutError matches domain.ErrSyncTimeout.
type TimeoutError struct {
	NIP string
}

func (e *TimeoutError) Error() string {
	return "sync timeout for " + e.NIP
}

func (e *TimeoutError) Is(target error) bool {
	return target == domain.ErrSyncTimeout
}

// UserMessage is the text shown to the employee.
func (e *TimeoutError) UserMessage() string { return BusyMessage }

// Client implements ports.SyncService with canned snapshots.
type Client struct {
	minDelay    time.Duration
	maxDelay    time.Duration
	failureRate float64
	now         func() time.Time
	logger      *slog.Logger
	observe     func(service string, err error)

	mu  sync.Mutex
	rng *rand.Rand
}

var _ ports.SyncService = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithDelay sets the simulated latency range.
func WithDelay(lo, hi time.Duration) Option {
	return func(c *Client) {
		c.minDelay, c.maxDelay = lo, hi
	}
}

// WithFailureRate sets the probability, in [0,1], of a timeout.
func WithFailureRate(rate float64) Option {
	return func(c *Client) {
		c.failureRate = rate
	}
}

// WithClock sets the source of last_sync.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// WithRand sets the random source for delays and failures.
func WithRand(r *rand.Rand) Option {
	return func(c *Client) {
		c.rng = r
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithObserver reports the outcome of every sync, e.g. to metrics.
func WithObserver(fn func(service string, err error)) Option {
	return func(c *Client) {
		c.observe = fn
	}
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{
		minDelay:    DefaultMinDelay,
		maxDelay:    DefaultMaxDelay,
		failureRate: DefaultFailureRate,
		now:         time.Now,
		logger:      logging.NewNop(),
		observe:     func(string, error) {},
		rng:         rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxDelay < c.minDelay {
		c.maxDelay = c.minDelay
	}
	return c
}

// Sync waits for the simulated round trip and returns the snapshot for nip.
// It returns ctx.Err() if ctx ends first.
func (c *Client) Sync(ctx context.Context, nip string) (domain.SKPSnapshot, error) {
	delay, fail := c.roll()

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return domain.SKPSnapshot{}, ctx.Err()
	case <-timer.C:
	}

	if fail {
		err := &TimeoutError{NIP: nip}
		c.observe("sync", err)
		c.logger.Warn("skp sync timed out", "nip", nip, "delay", delay)
		return domain.SKPSnapshot{}, err
	}
	c.observe("sync", nil)

	snap := snapshotFor(nip)
	snap.LastSync = c.now()
	c.logger.Debug("skp synced", "nip", nip, "status", snap.Status)
	return snap, nil
}

func (c *Client) roll() (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delay := c.minDelay
	if span := c.maxDelay - c.minDelay; span > 0 {
		delay += time.Duration(c.rng.Int64N(int64(span)))
	}
	return delay, c.rng.Float64() < c.failureRate
}

func snapshotFor(nip string) domain.SKPSnapshot {
	snap := domain.SKPSnapshot{
		Period: "Januari - Desember",
		Year:   "2024",
	}
	if strings.HasPrefix(nip, seniorPrefix) {
		snap.Status = domain.SKPPersetujuan
		snap.Supervisor = domain.Supervisor{Name: "Dr. Hartono, M.Si", NIP: "197001011995031002", Status: "Aktif"}
		snap.RHKCount = 5
		snap.LastQuarterGrade = "Sangat Baik"
		return snap
	}
	snap.Status = domain.SKPDraft
	snap.Supervisor = domain.Supervisor{Name: "Siti Rahmawati, S.Sos", NIP: "198005052005012005", Status: "Menunggu Persetujuan"}
	snap.RHKCount = 3
	snap.LastQuarterGrade = "Baik"
	return snap
}
