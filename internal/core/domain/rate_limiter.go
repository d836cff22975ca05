// Package domain concentra entidades e estruturas centrais do serviço de cotação.
package domain

import "time"

type RateLimitRule struct {
	Requests int
	Window   time.Duration
}

// RateLimitResult é o resultado de uma única verificação; não possui identidade própria.
type RateLimitResult struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetTime time.Time
}

type RateLimitStats struct {
	Identifiers     int
	TrackedRequests int
	LastCleanup     time.Time
}
