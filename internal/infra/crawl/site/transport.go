package site

import (
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// DefaultPerHostConnections caps simultaneous in-flight requests per host
// on the shared crawl client.
const DefaultPerHostConnections = 5

// perHostRPS paces request starts per host, on top of the connection cap,
// so a page of concurrent detail fetches does not land on one publisher as
// a burst.
const perHostRPS = 4

// throttledTransport wraps a RoundTripper with a per-host in-flight
// semaphore and a per-host rate limiter. Hosts are tracked lazily.
type throttledTransport struct {
	base    http.RoundTripper
	perHost int

	mu    sync.Mutex
	slots map[string]chan struct{}
	rates map[string]*rate.Limiter
}

// NewThrottledClient wraps client so every request first acquires its
// host's slot and rate token. A nil client starts from http.DefaultClient's
// settings.
func NewThrottledClient(client *http.Client, perHost int) *http.Client {
	if client == nil {
		client = &http.Client{}
	}
	if perHost <= 0 {
		perHost = DefaultPerHostConnections
	}
	base := client.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	wrapped := *client
	wrapped.Transport = &throttledTransport{
		base:    base,
		perHost: perHost,
		slots:   make(map[string]chan struct{}),
		rates:   make(map[string]*rate.Limiter),
	}
	return &wrapped
}

func (t *throttledTransport) hostState(host string) (chan struct{}, *rate.Limiter) {
	t.mu.Lock()
	defer t.mu.Unlock()
	slot, ok := t.slots[host]
	if !ok {
		slot = make(chan struct{}, t.perHost)
		t.slots[host] = slot
		t.rates[host] = rate.NewLimiter(rate.Limit(perHostRPS), perHostRPS)
	}
	return slot, t.rates[host]
}

// RoundTrip implements http.RoundTripper.
func (t *throttledTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	slot, limiter := t.hostState(req.URL.Host)

	select {
	case slot <- struct{}{}:
	case <-req.Context().Done():
		return nil, req.Context().Err()
	}
	defer func() { <-slot }()

	if err := limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(req)
}
