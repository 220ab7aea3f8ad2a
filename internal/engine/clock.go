package engine

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/roach88/presenter/internal/store"
)

// Clock hands out the seq of each synchronization cycle. Seqs strictly
// increase, so the journal orders cycles without wall time.
//
// Only the Run goroutine calls Next; the atomic lets Current be read from
// anywhere.
type Clock struct {
	seq atomic.Int64
}

// NewClock returns a clock whose first cycle is 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt returns a clock whose first cycle is last+1.
func NewClockAt(last int64) *Clock {
	c := &Clock{}
	c.seq.Store(last)
	return c
}

// CycleReader reads journaled cycles, newest last.
type CycleReader interface {
	ReadCycles(ctx context.Context, limit int) ([]store.Cycle, error)
}

// ResumeClock returns a clock that continues after the newest journaled
// cycle, or starts fresh on an empty journal.
func ResumeClock(ctx context.Context, r CycleReader) (*Clock, error) {
	last, err := r.ReadCycles(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("resume clock: %w", err)
	}
	if len(last) == 0 {
		return NewClock(), nil
	}
	return NewClockAt(last[len(last)-1].Seq), nil
}

// Next advances the clock and returns the new seq.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last seq handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
