package server

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/turn-party/internal/clock"
)

func newFakeClock() *clock.Fake {
	return clock.NewFake(time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))
}

func TestRateLimiter_Allow(t *testing.T) {
	t.Parallel()

	// 5 reqs/sec, 10 reqs/min, 1s ban
	rl := NewRateLimiter(5, 10, time.Second, newFakeClock())
	ip := "127.0.0.1"

	for i := range 5 {
		assert.True(t, rl.Allow(ip), "Request %d should be allowed", i)
	}

	// 6th request should fail due to per-second limit
	assert.False(t, rl.Allow(ip), "6th request should be blocked")
	assert.True(t, rl.IsBanned(ip), "IP should be banned")
}

func TestRateLimiter_BanExpires(t *testing.T) {
	t.Parallel()

	clk := newFakeClock()
	rl := NewRateLimiter(10, 50, 2*time.Second, clk)
	ip := "192.168.1.1"

	for i := range 10 {
		assert.True(t, rl.Allow(ip), "Burst request %d should be allowed", i)
	}
	assert.False(t, rl.Allow(ip))
	assert.True(t, rl.IsBanned(ip))

	clk.Advance(2100 * time.Millisecond)

	assert.False(t, rl.IsBanned(ip))
	assert.True(t, rl.Allow(ip))
}

func TestRateLimiter_MinuteLimit(t *testing.T) {
	t.Parallel()

	clk := newFakeClock()
	// 100/sec but only 5/min
	rl := NewRateLimiter(100, 5, time.Second, clk)
	ip := "10.0.0.1"

	for range 5 {
		assert.True(t, rl.Allow(ip))
		clk.Advance(2 * time.Second)
	}

	// 6th request blocked by minute limit even though the second window reset
	assert.False(t, rl.Allow(ip))
}

func TestRateLimiter_Cleanup(t *testing.T) {
	t.Parallel()

	clk := newFakeClock()
	rl := NewRateLimiter(1, 10, time.Hour, clk)

	assert.True(t, rl.Allow("idle"))
	assert.True(t, rl.Allow("banned"))
	assert.False(t, rl.Allow("banned"))

	// the idle record expires, the banned one is kept until the ban ends
	assert.Equal(t, 1, rl.Cleanup(clk.Now().Add(rateIdleTTL+time.Second)))
	assert.True(t, rl.IsBanned("banned"))
	assert.Equal(t, 1, rl.Cleanup(clk.Now().Add(2*time.Hour)))
}

func TestRateLimiter_RunCleansUpOnClockTicks(t *testing.T) {
	t.Parallel()

	clk := newFakeClock()
	rl := NewRateLimiter(1, 10, time.Hour, clk)
	assert.True(t, rl.Allow("idle"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rl.Run(ctx) }()

	// the cleanup ticker is driven by the injected clock
	require.Eventually(t, func() bool { return clk.Pending() == 1 }, time.Second, time.Millisecond)
	clk.Advance(rateIdleTTL + rateCleanupInterval)
	assert.Eventually(t, func() bool {
		rl.mu.Lock()
		defer rl.mu.Unlock()
		return len(rl.requests) == 0
	}, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRateLimiter_Concurrency(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(100, 200, time.Second, newFakeClock())
	var wg sync.WaitGroup
	var mu sync.Mutex
	successCount := 0

	for range 50 {
		wg.Go(func() {
			if rl.Allow("concurrent-test") {
				mu.Lock()
				successCount++
				mu.Unlock()
			}
		})
	}

	wg.Wait()
	assert.Equal(t, 50, successCount)
}

func TestGetClientIP_ProxyHeaders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		expectedIP string
	}{
		{
			name:       "Direct connection",
			remoteAddr: "192.168.1.1:12345",
			headers:    map[string]string{},
			expectedIP: "192.168.1.1",
		},
		{
			name:       "X-Forwarded-For multiple IPs",
			remoteAddr: "10.0.0.1:12345",
			headers: map[string]string{
				"X-Forwarded-For": "203.0.113.1, 10.0.0.2, 10.0.0.3",
			},
			expectedIP: "203.0.113.1", // First IP is the original client
		},
		{
			name:       "X-Real-IP",
			remoteAddr: "10.0.0.1:12345",
			headers: map[string]string{
				"X-Real-IP": "203.0.113.2",
			},
			expectedIP: "203.0.113.2",
		},
		{
			name:       "X-Forwarded-For takes precedence over X-Real-IP",
			remoteAddr: "10.0.0.1:12345",
			headers: map[string]string{
				"X-Forwarded-For": "203.0.113.3",
				"X-Real-IP":       "203.0.113.4",
			},
			expectedIP: "203.0.113.3",
		},
		{
			name:       "Malformed remote address",
			remoteAddr: "not-an-addr",
			headers:    map[string]string{},
			expectedIP: "not-an-addr",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req, _ := http.NewRequest(http.MethodGet, "/", http.NoBody)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.expectedIP, GetClientIP(req))
		})
	}
}

func TestMessageRateLimiter(t *testing.T) {
	t.Parallel()

	// 5 msgs/sec, warning threshold 4
	ml := NewMessageRateLimiter(5, newFakeClock())
	clientID := "client1"

	for i := range 5 {
		allowed, warning := ml.AllowMessage(clientID)
		assert.True(t, allowed)
		assert.Equal(t, i >= 4, warning, "message %d", i)
	}

	allowed, warning := ml.AllowMessage(clientID)
	assert.False(t, allowed)
	assert.True(t, warning)
	assert.Equal(t, 1, ml.WarningCount(clientID))
}

func TestMessageRateLimiter_WindowResets(t *testing.T) {
	t.Parallel()

	clk := newFakeClock()
	ml := NewMessageRateLimiter(2, clk)

	ml.AllowMessage("c")
	ml.AllowMessage("c")
	allowed, _ := ml.AllowMessage("c")
	assert.False(t, allowed)

	clk.Advance(time.Second)
	allowed, warning := ml.AllowMessage("c")
	assert.True(t, allowed)
	assert.False(t, warning)
	// warnings survive the window reset
	assert.Equal(t, 1, ml.WarningCount("c"))
}

func TestMessageRateLimiter_RemoveClient(t *testing.T) {
	t.Parallel()

	ml := NewMessageRateLimiter(1, newFakeClock())
	ml.AllowMessage("temp-client")
	ml.AllowMessage("temp-client")
	assert.Equal(t, 1, ml.WarningCount("temp-client"))

	ml.RemoveClient("temp-client")

	assert.Zero(t, ml.WarningCount("temp-client"))
	allowed, warning := ml.AllowMessage("temp-client")
	assert.True(t, allowed)
	assert.False(t, warning)
}

func TestOriginChecker_AllowAll(t *testing.T) {
	t.Parallel()

	oc := NewOriginChecker([]string{"*"})
	req, _ := http.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set("Origin", "https://evil.com")

	assert.True(t, oc.Check(req))
}

func TestOriginChecker_SpecificOrigins(t *testing.T) {
	t.Parallel()

	oc := NewOriginChecker([]string{"https://example.com", "https://App.Example.com"})

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"https://example.com", true},
		{"https://app.example.com", true},
		{"https://evil.com", false},
		{"http://example.com", false}, // Different scheme
		{"", true},                    // No origin header (local client)
	}

	for _, tt := range tests {
		req, _ := http.NewRequest(http.MethodGet, "/", http.NoBody)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		assert.Equal(t, tt.allowed, oc.Check(req), "Origin: %s", tt.origin)
	}
}
