package store

import (
	"fmt"
	"strings"
)

// PersistPolicy decides what a mutation does when the durable write fails.
type PersistPolicy int

const (
	// BestEffort logs the failure and keeps the in-memory mutation.
	BestEffort PersistPolicy = iota
	// Strict rolls the mutation back and returns a *PersistenceError.
	Strict
)

func (p PersistPolicy) String() string {
	switch p {
	case Strict:
		return "strict"
	default:
		return "best_effort"
	}
}

// ParsePersistPolicy parses "best_effort" or "strict". Empty means BestEffort.
func ParsePersistPolicy(s string) (PersistPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "best_effort", "best-effort":
		return BestEffort, nil
	case "strict":
		return Strict, nil
	default:
		return BestEffort, fmt.Errorf("unknown persist policy %q", s)
	}
}
