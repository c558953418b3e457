// Package faults decides per-call artificial latency and failure outcomes so
// the service can emulate a degraded production backend.
package faults

import (
	"math/rand"
	"sync"
	"time"
)

// Injector picks an artificial delay and a failure outcome for a single call.
// Implementations must be safe for concurrent use.
type Injector interface {
	// Delay returns how long the call should be suspended before it is
	// allowed to proceed or fail.
	Delay() time.Duration
	// ShouldFail reports whether this call is selected to fail. Each call is
	// an independent trial.
	ShouldFail() bool
}

// Config parameterizes a RandomInjector.
type Config struct {
	// FailureRate is the probability in [0,1] that a call fails.
	FailureRate float64
	// MinLatency and MaxLatency bound the uniformly distributed delay.
	MinLatency time.Duration
	MaxLatency time.Duration
	// Seed fixes the random source; 0 seeds from the clock.
	Seed int64
}

// RandomInjector draws delays uniformly from [MinLatency, MaxLatency] and
// fails calls as independent Bernoulli trials.
type RandomInjector struct {
	mu          sync.Mutex
	rng         *rand.Rand
	failureRate float64
	min, max    time.Duration
}

// NewRandom constructs an injector from cfg.
func NewRandom(cfg Config) *RandomInjector {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	min, max := cfg.MinLatency, cfg.MaxLatency
	if max < min {
		max = min
	}
	return &RandomInjector{
		rng:         rand.New(rand.NewSource(seed)),
		failureRate: cfg.FailureRate,
		min:         min,
		max:         max,
	}
}

// Delay returns a uniformly distributed duration in [MinLatency, MaxLatency].
func (inj *RandomInjector) Delay() time.Duration {
	inj.mu.Lock()
	defer inj.mu.Unlock()
	if inj.max == inj.min {
		return inj.min
	}
	return inj.min + time.Duration(inj.rng.Int63n(int64(inj.max-inj.min)+1))
}

// ShouldFail returns true with probability FailureRate.
func (inj *RandomInjector) ShouldFail() bool {
	inj.mu.Lock()
	defer inj.mu.Unlock()
	return inj.rng.Float64() < inj.failureRate
}

// Stub is a deterministic Injector for tests. Outcomes are consumed from
// Failures in order; once exhausted every call succeeds.
type Stub struct {
	mu         sync.Mutex
	FixedDelay time.Duration
	Failures   []bool
	next       int
}

// Delay returns the fixed delay.
func (s *Stub) Delay() time.Duration { return s.FixedDelay }

// ShouldFail pops the next scripted outcome.
func (s *Stub) ShouldFail() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next >= len(s.Failures) {
		return false
	}
	fail := s.Failures[s.next]
	s.next++
	return fail
}
