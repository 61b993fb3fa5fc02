// Package counter defines cumulative usage metrics.
package counter

// Counter is a cumulative metric
type Counter interface {
	Value() int64
	RatePerSec() int64

	Add(n int64)
	// Reset sets the value back to zero and restarts rate sampling.
	Reset()
}
