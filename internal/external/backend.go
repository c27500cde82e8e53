package external

import "context"

// Backend produces a raw text completion for a rendered prompt. The adapter
// parses every backend's text the same way.
type Backend interface {
	Name() string
	// Billable reports whether calls cost money and should be rate limited.
	Billable() bool
	Complete(ctx context.Context, prompt string, req Request) (string, error)
}
