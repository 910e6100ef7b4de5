package worker

import (
	"context"
	"testing"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "http://localhost:3030/warsa/sparql"); err != nil {
		t.Errorf("wait failed: %v", err)
	}

	// Different host should also work
	if err := limiter.Wait(ctx, "http://demo.seco.tkk.fi/arpa/pnr"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_RateLimit(t *testing.T) {
	limiter := NewLimiter(0.001, 1)
	ctx := context.Background()
	endpoint := "http://localhost:3030/warsa/sparql"

	if err := limiter.Wait(ctx, endpoint); err != nil {
		t.Errorf("first wait failed: %v", err)
	}

	// Burst of 1 is consumed
	if limiter.Allow(endpoint) {
		t.Errorf("expected allow to fail (exhausted tokens)")
	}

	// Same host, different path shares the budget
	if limiter.Allow("http://localhost:3030/warsa/query") {
		t.Errorf("expected paths on one host to share a limiter")
	}

	if !limiter.Allow("http://other.example/arpa") {
		t.Errorf("expected allow for other host")
	}
}

func TestLimiter_Unlimited(t *testing.T) {
	limiter := NewLimiter(0, 1)
	for i := 0; i < 100; i++ {
		if !limiter.Allow("http://localhost:3030") {
			t.Fatalf("call %d was limited", i)
		}
	}
}

func TestLimiter_SetHostRate(t *testing.T) {
	limiter := NewLimiter(10, 10)
	host := "demo.seco.tkk.fi"

	limiter.SetHostRate(host, 0.001, 1)

	if !limiter.Allow("http://" + host + "/arpa/pnr") {
		t.Errorf("first request should pass")
	}
	if limiter.Allow("http://" + host + "/arpa/ranks") {
		t.Errorf("second request should fail")
	}
	if !limiter.Allow("http://localhost:3030") {
		t.Errorf("other host should pass")
	}
}

func TestEndpointHost(t *testing.T) {
	host, err := endpointHost("http://localhost:3030/warsa/sparql")
	if err != nil {
		t.Fatalf("endpointHost failed: %v", err)
	}
	if host != "localhost:3030" {
		t.Errorf("expected localhost:3030, got %s", host)
	}

	if _, err := endpointHost("::invalid"); err == nil {
		t.Errorf("expected error for invalid URL")
	}
	if _, err := endpointHost("data/person_links.json"); err == nil {
		t.Errorf("expected error for relative path")
	}
}
