// Package ratelimit implements a simple in-memory sliding window limiter
// guarding the registration endpoints against scripted signup storms.
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// Limiter implements a simple in-memory sliding window rate limiter
type Limiter struct {
	mu       sync.RWMutex
	counters map[string]*counter
	window   time.Duration
	max      int
}

type counter struct {
	count     int
	expiresAt time.Time
}

// NewLimiter creates a new rate limiter with the specified window and max requests
func NewLimiter(window time.Duration, max int) *Limiter {
	l := &Limiter{
		counters: make(map[string]*counter),
		window:   window,
		max:      max,
	}
	go l.cleanup()
	return l
}

// Allow checks if a request for the given key is allowed
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	c, exists := l.counters[key]

	if !exists || now.After(c.expiresAt) {
		l.counters[key] = &counter{
			count:     1,
			expiresAt: now.Add(l.window),
		}
		return true
	}

	if c.count >= l.max {
		return false
	}

	c.count++
	return true
}

// GetRemaining returns the number of remaining requests for the given key
func (l *Limiter) GetRemaining(key string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	now := time.Now()
	c, exists := l.counters[key]

	if !exists || now.After(c.expiresAt) {
		return l.max
	}

	remaining := l.max - c.count
	if remaining < 0 {
		return 0
	}
	return remaining
}

// cleanup periodically removes expired counters
func (l *Limiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		now := time.Now()
		for key, c := range l.counters {
			if now.After(c.expiresAt) {
				delete(l.counters, key)
			}
		}
		l.mu.Unlock()
	}
}

// EnrollmentLimiter bundles the limiters for the enrollment surface.
type EnrollmentLimiter struct {
	limiters map[string]*Limiter
	mu       sync.RWMutex
}

// NewEnrollmentLimiter creates a limiter set with default limits
func NewEnrollmentLimiter() *EnrollmentLimiter {
	return &EnrollmentLimiter{
		limiters: map[string]*Limiter{
			"ip_register":     NewLimiter(time.Hour, 30),   // 30 register attempts per IP per hour
			"member_register": NewLimiter(time.Hour, 20),   // 20 register attempts per member per hour
			"member_offer":    NewLimiter(time.Minute, 10), // 10 offer responses per member per minute
		},
	}
}

// NewCustomEnrollmentLimiter creates a limiter set with custom limits
func NewCustomEnrollmentLimiter(ipRegisterLimit, memberRegisterLimit, memberOfferLimit int) *EnrollmentLimiter {
	return &EnrollmentLimiter{
		limiters: map[string]*Limiter{
			"ip_register":     NewLimiter(time.Hour, ipRegisterLimit),
			"member_register": NewLimiter(time.Hour, memberRegisterLimit),
			"member_offer":    NewLimiter(time.Minute, memberOfferLimit),
		},
	}
}

// CheckRegister verifies that a register attempt from the given IP and
// member is within limits
func (m *EnrollmentLimiter) CheckRegister(ip, memberId string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.limiters["ip_register"].Allow(ip) {
		return fmt.Errorf("too many registration attempts from this IP address, please try again later")
	}

	if memberId != "" && !m.limiters["member_register"].Allow(memberId) {
		return fmt.Errorf("too many registration attempts, please try again later")
	}

	return nil
}

// CheckOfferResponse verifies that an accept/decline call from the given
// member is within limits
func (m *EnrollmentLimiter) CheckOfferResponse(memberId string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.limiters["member_offer"].Allow(memberId) {
		return fmt.Errorf("too many offer responses, please slow down")
	}

	return nil
}

// GetRegisterLimits returns remaining register attempts for IP and member
func (m *EnrollmentLimiter) GetRegisterLimits(ip, memberId string) (ipRemaining, memberRemaining int) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ipRemaining = m.limiters["ip_register"].GetRemaining(ip)
	if memberId != "" {
		memberRemaining = m.limiters["member_register"].GetRemaining(memberId)
	} else {
		memberRemaining = -1 // not applicable
	}

	return ipRemaining, memberRemaining
}
