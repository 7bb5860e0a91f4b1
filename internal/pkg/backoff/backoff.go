package backoff

import (
	"time"

	cbackoff "github.com/cenkalti/backoff/v4"
)

const (
	DefaultBase        = time.Second
	DefaultMax         = 30 * time.Second
	DefaultJitter      = 0.5
	DefaultStableAfter = 60 * time.Second
)

type Config struct {
	Base time.Duration
	Max  time.Duration
	// Jitter is the randomization factor: a delay d is drawn from [d*(1-Jitter), d*(1+Jitter)].
	Jitter float64
	// MaxAttempts of 0 retries forever.
	MaxAttempts int
	// StableAfter resets the attempt counter once a connection lived that long.
	StableAfter time.Duration
}

func DefaultConfig() Config {
	return Config{
		Base:        DefaultBase,
		Max:         DefaultMax,
		Jitter:      DefaultJitter,
		StableAfter: DefaultStableAfter,
	}
}

// Backoff computes reconnect delays on an exponential policy (doubling from
// base, capped at max) and forgets past attempts once a connection stayed up
// for StableAfter. Not safe for concurrent use.
type Backoff struct {
	cfg         Config
	policy      cbackoff.BackOff
	attempt     int
	connectedAt time.Time

	now func() time.Time
}

func New(cfg Config) *Backoff {
	if cfg.Base <= 0 {
		cfg.Base = DefaultBase
	}
	if cfg.Max < cfg.Base {
		cfg.Max = cfg.Base
	}

	exp := cbackoff.NewExponentialBackOff()
	exp.InitialInterval = cfg.Base
	exp.MaxInterval = cfg.Max
	exp.Multiplier = 2
	exp.RandomizationFactor = cfg.Jitter
	exp.MaxElapsedTime = 0
	exp.Reset()

	var policy cbackoff.BackOff = exp
	if cfg.MaxAttempts > 0 {
		policy = cbackoff.WithMaxRetries(exp, uint64(cfg.MaxAttempts))
	}

	return &Backoff{
		cfg:    cfg,
		policy: policy,
		now:    time.Now,
	}
}

func (b *Backoff) MarkConnected() {
	b.connectedAt = b.now()
}

func (b *Backoff) Attempt() int {
	return b.attempt
}

// Next returns the delay before the next attempt. It returns false once
// MaxAttempts delays were handed out since the last reset.
func (b *Backoff) Next() (time.Duration, bool) {
	if !b.connectedAt.IsZero() && b.cfg.StableAfter > 0 && b.now().Sub(b.connectedAt) > b.cfg.StableAfter {
		b.Reset()
	}
	b.connectedAt = time.Time{}

	delay := b.policy.NextBackOff()
	if delay == cbackoff.Stop {
		return 0, false
	}

	b.attempt++
	return delay, true
}

func (b *Backoff) Reset() {
	b.policy.Reset()
	b.attempt = 0
	b.connectedAt = time.Time{}
}
