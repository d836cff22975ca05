package services

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/draff227/bslc/internal/core/domain"
	"github.com/draff227/bslc/internal/core/ports"
)

const DefaultCleanupInterval = 60 * time.Second

var _ ports.RateLimiter = (*RateLimiterService)(nil)

// RateLimiterConfig agrega os parâmetros da janela deslizante.
type RateLimiterConfig struct {
	Rule            domain.RateLimitRule
	CleanupInterval time.Duration
	Now             func() time.Time
}

// windowEntry guarda os timestamps (ms) admitidos para um identificador.
// removed é marcado quando a entrada sai do mapa, para que um Check concorrente
// que já tinha o ponteiro busque uma entrada nova.
type windowEntry struct {
	mu         sync.Mutex
	timestamps []int64
	removed    bool
}

// RateLimiterService implementa um rate limiter em memória por janela deslizante.
type RateLimiterService struct {
	rule              domain.RateLimitRule
	windowMs          int64
	cleanupIntervalMs int64
	now               func() time.Time

	mu          sync.Mutex
	entries     map[string]*windowEntry
	lastCleanup atomic.Int64
}

// NewRateLimiterService cria o limiter; deve ser instanciado uma vez por processo.
func NewRateLimiterService(cfg RateLimiterConfig) (*RateLimiterService, error) {
	if cfg.Rule.Requests <= 0 || cfg.Rule.Window <= 0 {
		return nil, fmt.Errorf("rate limit rule must have positive values")
	}
	if cfg.CleanupInterval < 0 {
		return nil, fmt.Errorf("cleanup interval must not be negative")
	}
	if cfg.CleanupInterval == 0 {
		cfg.CleanupInterval = DefaultCleanupInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	s := &RateLimiterService{
		rule:              cfg.Rule,
		windowMs:          cfg.Rule.Window.Milliseconds(),
		cleanupIntervalMs: cfg.CleanupInterval.Milliseconds(),
		now:               cfg.Now,
		entries:           make(map[string]*windowEntry),
	}
	s.lastCleanup.Store(cfg.Now().UnixMilli())
	return s, nil
}

func (s *RateLimiterService) Rule() domain.RateLimitRule {
	return s.rule
}

// Check avalia e, se permitido, registra uma requisição do identificador.
func (s *RateLimiterService) Check(identifier string) domain.RateLimitResult {
	nowMs := s.now().UnixMilli()
	s.maybeCleanup(nowMs)

	for {
		entry := s.entry(identifier)
		entry.mu.Lock()
		if entry.removed {
			entry.mu.Unlock()
			continue
		}
		result := s.admit(entry, nowMs)
		entry.mu.Unlock()
		return result
	}
}

// Reset descarta todo o estado de um identificador.
func (s *RateLimiterService) Reset(identifier string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[identifier]
	if !ok {
		return
	}
	entry.mu.Lock()
	entry.removed = true
	entry.mu.Unlock()
	delete(s.entries, identifier)
}

// Cleanup força a limpeza global, independentemente do intervalo configurado.
func (s *RateLimiterService) Cleanup() {
	nowMs := s.now().UnixMilli()
	s.lastCleanup.Store(nowMs)
	s.cleanup(nowMs)
}

func (s *RateLimiterService) Stats() domain.RateLimitStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := domain.RateLimitStats{
		Identifiers: len(s.entries),
		LastCleanup: time.UnixMilli(s.lastCleanup.Load()),
	}
	for _, entry := range s.entries {
		entry.mu.Lock()
		stats.TrackedRequests += len(entry.timestamps)
		entry.mu.Unlock()
	}
	return stats
}

func (s *RateLimiterService) entry(identifier string) *windowEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[identifier]
	if !ok {
		entry = &windowEntry{}
		s.entries[identifier] = entry
	}
	return entry
}

// admit must be called with entry.mu held.
func (s *RateLimiterService) admit(entry *windowEntry, nowMs int64) domain.RateLimitResult {
	limit := s.rule.Requests
	entry.timestamps = pruneExpired(entry.timestamps, nowMs-s.windowMs)

	count := len(entry.timestamps)
	remaining := max(0, limit-count)
	allowed := count < limit
	if allowed {
		entry.timestamps = append(entry.timestamps, nowMs)
		remaining--
	}

	resetMs := nowMs + s.windowMs
	if oldest, ok := oldestTimestamp(entry.timestamps); ok {
		resetMs = oldest + s.windowMs
	}

	return domain.RateLimitResult{
		Allowed:   allowed,
		Limit:     limit,
		Remaining: remaining,
		ResetTime: time.UnixMilli(resetMs),
	}
}

func (s *RateLimiterService) maybeCleanup(nowMs int64) {
	last := s.lastCleanup.Load()
	if nowMs-last < s.cleanupIntervalMs {
		return
	}
	// Only the goroutine that wins the swap runs the sweep.
	if !s.lastCleanup.CompareAndSwap(last, nowMs) {
		return
	}
	s.cleanup(nowMs)
}

func (s *RateLimiterService) cleanup(nowMs int64) {
	cutoff := nowMs - s.windowMs

	s.mu.Lock()
	defer s.mu.Unlock()

	for identifier, entry := range s.entries {
		entry.mu.Lock()
		entry.timestamps = pruneExpired(entry.timestamps, cutoff)
		if len(entry.timestamps) == 0 {
			entry.removed = true
			delete(s.entries, identifier)
		}
		entry.mu.Unlock()
	}
}

// pruneExpired keeps timestamps strictly newer than cutoff, reusing the backing array.
func pruneExpired(timestamps []int64, cutoff int64) []int64 {
	kept := timestamps[:0]
	for _, ts := range timestamps {
		if ts > cutoff {
			kept = append(kept, ts)
		}
	}
	return kept
}

func oldestTimestamp(timestamps []int64) (int64, bool) {
	if len(timestamps) == 0 {
		return 0, false
	}
	oldest := timestamps[0]
	for _, ts := range timestamps[1:] {
		if ts < oldest {
			oldest = ts
		}
	}
	return oldest, true
}
