// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pacer enforces a minimum interval between outbound requests.
// Both external APIs impose hard per-second caps, so every PubMed and Slack
// request passes through one Pacer before it is issued.
package pacer

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces calls at least one interval apart. A nil Pacer never waits,
// which lets tests run the pipeline without real sleeps.
type Pacer struct {
	limiter *rate.Limiter
}

// New returns a Pacer that allows one call per interval. A non-positive
// interval yields a Pacer that never waits.
func New(interval time.Duration) *Pacer {
	if interval <= 0 {
		return &Pacer{}
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until the next call is permitted or the context is cancelled.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.limiter == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}
