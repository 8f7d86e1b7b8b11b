// Package testserver provides a thin wrapper that starts a user-provided
// server implementation and health-checks it with exponential backoff
// before handing control back to a test (§6 TestServer interface).
//
// The core OpenAPI engine treats this as an external collaborator: it
// only needs a base URL to issue ApiCalls against, not the mechanics of
// booting the process under test. This package exists so clawspec's own
// tests (and downstream users) have a ready-made way to stand up
// whatever server they are exercising.
package testserver

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"net/http"
	"time"
)

// HealthStatus is the tri-state outcome of a single health probe.
type HealthStatus int

const (
	// Starting means the server accepted the probe's connection but
	// hasn't reported itself ready yet.
	Starting HealthStatus = iota
	// Healthy means the server is ready to receive test traffic.
	Healthy
	// Unhealthy means the probe reached the server but it reported an
	// error, or the probe could not reach it at all.
	Unhealthy
)

func (s HealthStatus) String() string {
	switch s {
	case Healthy:
		return "healthy"
	case Starting:
		return "starting"
	default:
		return "unhealthy"
	}
}

// Server is implemented by the user-provided application under test.
// Launch must bind listener and begin serving, returning only once the
// server has stopped (or immediately with an error if it could not
// start). Health is polled by Wait with a client Wait creates itself (a
// bare *http.Client with a 2-second timeout), typically hitting a
// readiness endpoint.
type Server interface {
	Launch(listener net.Listener) error
	Health(ctx context.Context, client *http.Client) HealthStatus
}

// BackoffConfig configures the exponential backoff Wait uses while
// polling Server.Health. Grounded on Onyx-Go-framework's mail delivery
// retry formula (InitialDelay * Multiplier^attempt, capped at MaxDelay);
// jitter is this package's own addition (see DESIGN.md) since nothing
// in the example pack adds jitter to that formula.
type BackoffConfig struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	MaxAttempts  int
	Jitter       float64 // fraction of the computed delay to randomize, e.g. 0.2
}

// DefaultBackoffConfig returns a sensible default: 25ms initial delay,
// doubling, capped at 2s, up to 40 attempts, 20% jitter.
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		InitialDelay: 25 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   2.0,
		MaxAttempts:  40,
		Jitter:       0.2,
	}
}

func (c BackoffConfig) delay(attempt int) time.Duration {
	if attempt <= 0 {
		return c.jittered(c.InitialDelay)
	}
	d := float64(c.InitialDelay) * pow(c.Multiplier, attempt)
	delay := time.Duration(d)
	if delay > c.MaxDelay {
		delay = c.MaxDelay
	}
	return c.jittered(delay)
}

func (c BackoffConfig) jittered(d time.Duration) time.Duration {
	if c.Jitter <= 0 {
		return d
	}
	spread := float64(d) * c.Jitter
	offset := (rand.Float64()*2 - 1) * spread
	jittered := time.Duration(float64(d) + offset)
	if jittered < 0 {
		return 0
	}
	return jittered
}

func pow(base float64, exp int) float64 {
	result := 1.0
	for i := 0; i < exp; i++ {
		result *= base
	}
	return result
}

// ErrUnhealthy is returned by Wait when MaxAttempts is exhausted without
// ever observing Healthy.
var ErrUnhealthy = errors.New("testserver: server did not become healthy before max attempts")

// Instance pairs a running Server with the listener it was launched on
// and the goroutine outcome of Launch.
type Instance struct {
	BaseURL string

	listener net.Listener
	launched chan error
}

// Launch binds a random loopback port, starts srv.Launch on it in a
// background goroutine, and returns immediately with the instance; call
// Wait to block until the server reports healthy.
func Launch(srv Server) (*Instance, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("testserver: listen: %w", err)
	}

	inst := &Instance{
		BaseURL:  fmt.Sprintf("http://%s", listener.Addr().String()),
		listener: listener,
		launched: make(chan error, 1),
	}

	go func() {
		inst.launched <- srv.Launch(listener)
	}()

	return inst, nil
}

// Wait polls srv.Health with cfg's backoff schedule until it reports
// Healthy, the launch goroutine exits with an error, or MaxAttempts is
// exhausted.
func (inst *Instance) Wait(ctx context.Context, srv Server, cfg BackoffConfig) error {
	client := &http.Client{Timeout: 2 * time.Second}

	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		select {
		case err := <-inst.launched:
			if err != nil {
				return fmt.Errorf("testserver: server exited before becoming healthy: %w", err)
			}
			return errors.New("testserver: server exited cleanly before becoming healthy")
		default:
		}

		switch srv.Health(ctx, client) {
		case Healthy:
			return nil
		case Starting, Unhealthy:
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cfg.delay(attempt)):
		}
	}

	return ErrUnhealthy
}

// Shutdown closes the listener, which causes a net/http-based Launch
// implementation's Serve call to return.
func (inst *Instance) Shutdown() error {
	return inst.listener.Close()
}
