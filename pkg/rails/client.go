// Package rails models the two external collaborators a sealed attestation
// is handed to: a payment rail, which consumes only (attestation_hash,
// meets_spec), and a receipt registry, which persists the full canonical
// record. Settlement and minting mechanics stay on the far side of these
// interfaces.
package rails

import (
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

// Client wraps http.Client with bounded timeouts, exponential backoff with
// jitter, and a circuit breaker. Both rails share one instance.
type Client struct {
	http       *http.Client
	maxRetries int
	breaker    *circuitBreaker
}

// NewClient returns a Client with production defaults: 10s request timeout,
// 3 retries, breaker opening after 5 consecutive failures for 10s.
func NewClient() *Client {
	return &Client{
		http:       &http.Client{Timeout: 10 * time.Second},
		maxRetries: 3,
		breaker:    newCircuitBreaker(5, 10*time.Second),
	}
}

// Do executes req, retrying 5xx responses and transport errors with
// exponential backoff. The request context bounds the whole attempt loop.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if !c.breaker.allow() {
		return nil, fmt.Errorf("rails: circuit breaker open")
	}

	var resp *http.Response
	var err error
	for i := 0; i <= c.maxRetries; i++ {
		if i > 0 && req.GetBody != nil {
			body, bodyErr := req.GetBody()
			if bodyErr != nil {
				return nil, fmt.Errorf("rails: rewind request body: %w", bodyErr)
			}
			req.Body = body
		}
		resp, err = c.http.Do(req)
		if err == nil && resp.StatusCode < 500 {
			c.breaker.success()
			return resp, nil
		}
		if resp != nil {
			_ = resp.Body.Close()
		}
		if i == c.maxRetries {
			break
		}

		backoff := time.Duration(1<<i) * 100 * time.Millisecond
		jitter := time.Duration(rand.Int63n(50)) * time.Millisecond
		select {
		case <-req.Context().Done():
			c.breaker.failure()
			return nil, req.Context().Err()
		case <-time.After(backoff + jitter):
		}
	}

	c.breaker.failure()
	if err != nil {
		return nil, fmt.Errorf("rails: request failed after %d attempts: %w", c.maxRetries+1, err)
	}
	return nil, fmt.Errorf("rails: request failed after %d attempts: status %d", c.maxRetries+1, resp.StatusCode)
}

// circuitBreaker is a minimal consecutive-failure breaker with a cooldown.
type circuitBreaker struct {
	mu        sync.Mutex
	failures  int
	threshold int
	cooldown  time.Duration
	openedAt  time.Time
}

func newCircuitBreaker(threshold int, cooldown time.Duration) *circuitBreaker {
	return &circuitBreaker{threshold: threshold, cooldown: cooldown}
}

func (b *circuitBreaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failures < b.threshold {
		return true
	}
	// Half-open after cooldown.
	if time.Since(b.openedAt) > b.cooldown {
		b.failures = b.threshold - 1
		return true
	}
	return false
}

func (b *circuitBreaker) success() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
}

func (b *circuitBreaker) failure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	if b.failures >= b.threshold {
		b.openedAt = time.Now()
	}
}
