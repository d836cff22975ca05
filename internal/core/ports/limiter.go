// Package ports define contratos que conectam o domínio a implementações externas.
package ports

import (
	"github.com/draff227/bslc/internal/core/domain"
)

type RateLimiter interface {
	Check(identifier string) domain.RateLimitResult
	Reset(identifier string)
	Rule() domain.RateLimitRule
}
