// Package id provides ULID-based identifiers for pipeline runs and
// reasoning-service call attempts. ULIDs are lexicographically sortable, so
// attempt IDs double as an ordering record: each retried service call gets a
// fresh, independently-timestamped ID and can never be confused with an
// earlier attempt's.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// RunID identifies one end-to-end pipeline run.
type RunID string

// AttemptID identifies a single reasoning-service call attempt within a run.
type AttemptID string

const (
	runPrefix     = "run"
	attemptPrefix = "att"
)

// Generator generates ULIDs with optional prefixes.
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator with secure entropy.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator(rand.Reader)
	})
	return defaultGenerator
}

// NewGenerator creates a generator with the given entropy source. Tests pass
// a deterministic reader.
func NewGenerator(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID timestamped at the call instant.
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string.
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewRunID generates a new pipeline run ID.
func NewRunID() RunID {
	return RunID(Default().GenerateWithPrefix(runPrefix))
}

// NewAttemptID generates a new service-call attempt ID.
func NewAttemptID() AttemptID {
	return AttemptID(Default().GenerateWithPrefix(attemptPrefix))
}
