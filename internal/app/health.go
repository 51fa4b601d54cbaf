package app

import (
	"sync/atomic"

	"github.com/FeyP/drupal-twitter-feed/internal/server"
)

// Health tracks whether the server should receive traffic. Safe for
// concurrent use.
type Health struct {
	ready atomic.Bool
}

var _ server.ReadinessChecker = (*Health)(nil)

// NewHealth creates a Health that starts out not ready.
func NewHealth() *Health {
	return &Health{}
}

// SetReady flips the readiness state.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports the current readiness state.
func (h *Health) IsReady() bool {
	return h.ready.Load()
}
