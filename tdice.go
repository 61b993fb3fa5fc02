package tdice

import (
	"sync"

	"github.com/tutils/tdice/rng"
)

// Roller draws pairs of dice.
type Roller interface {
	Roll() (rng.Roll, error)
}

// SyncRoller is concurrency safe roller
type SyncRoller struct {
	r  Roller
	mu sync.Mutex
}

func (r *SyncRoller) Roll() (rng.Roll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.r.Roll()
}

// Do runs f with exclusive access to the wrapped roller, for sequences
// such as seed then roll that must not interleave with other callers.
func (r *SyncRoller) Do(f func(Roller) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return f(r.r)
}

// NewSyncRoller create a new SyncRoller
func NewSyncRoller(r Roller) *SyncRoller {
	return &SyncRoller{r: r}
}
