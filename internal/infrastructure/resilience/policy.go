package resilience

import "time"

// Defaults are tuned for short LLM and datastore calls: three quick
// attempts under half a second of total backoff, and a breaker that
// needs a meaningful sample before it trips.
const (
	defaultRetryAttempts   = 3
	defaultInitialBackoff  = 100 * time.Millisecond
	defaultMaxBackoff      = 400 * time.Millisecond
	defaultRetryMultiplier = 2.0

	defaultBreakerMinRequests  = 10
	defaultBreakerFailureRatio = 0.5
	defaultBreakerOpenTimeout  = 30 * time.Second
	defaultBreakerHalfOpenMax  = 2
)

type Config struct {
	RetryMaxAttempts    int
	RetryInitialBackoff time.Duration
	RetryMaxBackoff     time.Duration
	RetryMultiplier     float64

	BreakerEnabled          bool
	BreakerMinRequests      uint32
	BreakerFailureRatio     float64
	BreakerOpenTimeout      time.Duration
	BreakerHalfOpenMaxCalls uint32
}

func DefaultConfig() Config {
	return Config{
		RetryMaxAttempts:    defaultRetryAttempts,
		RetryInitialBackoff: defaultInitialBackoff,
		RetryMaxBackoff:     defaultMaxBackoff,
		RetryMultiplier:     defaultRetryMultiplier,

		BreakerEnabled:          true,
		BreakerMinRequests:      defaultBreakerMinRequests,
		BreakerFailureRatio:     defaultBreakerFailureRatio,
		BreakerOpenTimeout:      defaultBreakerOpenTimeout,
		BreakerHalfOpenMaxCalls: defaultBreakerHalfOpenMax,
	}
}

// normalize replaces zero or nonsensical values with the defaults so a
// partially filled Config still yields a usable executor.
func (c Config) normalize() Config {
	out := c

	if out.RetryMaxAttempts <= 0 {
		out.RetryMaxAttempts = defaultRetryAttempts
	}
	if out.RetryInitialBackoff <= 0 {
		out.RetryInitialBackoff = defaultInitialBackoff
	}
	if out.RetryMaxBackoff <= 0 {
		out.RetryMaxBackoff = defaultMaxBackoff
	}
	out.RetryMaxBackoff = max(out.RetryMaxBackoff, out.RetryInitialBackoff)
	if out.RetryMultiplier < 1 {
		out.RetryMultiplier = defaultRetryMultiplier
	}

	if out.BreakerMinRequests == 0 {
		out.BreakerMinRequests = defaultBreakerMinRequests
	}
	if out.BreakerFailureRatio <= 0 || out.BreakerFailureRatio > 1 {
		out.BreakerFailureRatio = defaultBreakerFailureRatio
	}
	if out.BreakerOpenTimeout <= 0 {
		out.BreakerOpenTimeout = defaultBreakerOpenTimeout
	}
	if out.BreakerHalfOpenMaxCalls == 0 {
		out.BreakerHalfOpenMaxCalls = defaultBreakerHalfOpenMax
	}

	return out
}
