package id

import (
	"crypto/rand"
	"strings"
	"sync"
	"testing"
)

func TestGenerate(t *testing.T) {
	gen := NewGenerator(rand.Reader)

	id1 := gen.Generate()
	id2 := gen.Generate()

	if id1.String() == id2.String() {
		t.Error("Generated IDs should be unique")
	}
}

func TestGenerateWithPrefix(t *testing.T) {
	gen := NewGenerator(rand.Reader)

	id := gen.GenerateWithPrefix("att")
	parts := strings.Split(id, "_")
	if len(parts) != 2 || parts[0] != "att" {
		t.Errorf("Prefixed ID should have format 'att_ulid', got: %s", id)
	}
	if len(parts[1]) != 26 {
		t.Errorf("ULID should be 26 characters, got %d", len(parts[1]))
	}
}

func TestTypedIDs(t *testing.T) {
	run := NewRunID()
	if !strings.HasPrefix(string(run), "run_") {
		t.Errorf("RunID should start with 'run_', got: %s", run)
	}

	att := NewAttemptID()
	if !strings.HasPrefix(string(att), "att_") {
		t.Errorf("AttemptID should start with 'att_', got: %s", att)
	}
}

func TestConcurrentGeneration(t *testing.T) {
	gen := NewGenerator(rand.Reader)

	const workers = 8
	const perWorker = 100

	var mu sync.Mutex
	seen := make(map[string]bool, workers*perWorker)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				id := gen.Generate().String()
				mu.Lock()
				if seen[id] {
					t.Errorf("Duplicate ID generated: %s", id)
				}
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
}
