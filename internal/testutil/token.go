package testutil

import (
	"fmt"
	"sync"
)

// SequenceGenerator produces numbered cycle tokens: "cycle-0001",
// "cycle-0002", and so on.
//
// The same scenario run with a fresh SequenceGenerator produces
// byte-identical traces, which golden comparison relies on. Unlike
// engine.FixedGenerator it never runs out.
//
// Thread-safety: SequenceGenerator is safe for concurrent use.
type SequenceGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceGenerator creates a generator whose tokens start with prefix.
// If prefix is empty, "cycle" is used.
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	if prefix == "" {
		prefix = "cycle"
	}
	return &SequenceGenerator{prefix: prefix}
}

// Generate returns the next token.
//
// Implements engine.CycleTokenGenerator interface.
func (g *SequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}

// Reset restarts numbering. After Reset(), the next token ends in 0001.
func (g *SequenceGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
