// Package store provides versioned keyed storage for one record type with
// optimistic concurrency control. All writes to an entity go through Mutate,
// which applies a pure transition function and commits it with a
// compare-and-swap on the entity's version.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no entity exists under the given id.
	ErrNotFound = errors.New("entity not found")

	// ErrAlreadyExists is returned by Create when the id is taken.
	ErrAlreadyExists = errors.New("entity already exists")

	// ErrConflict is returned when Mutate exhausts its retry budget under
	// write contention. The operation did not commit and may be retried.
	ErrConflict = errors.New("storage conflict: too many concurrent writes")
)

// maxMutateAttempts bounds the optimistic retry loop in Mutate. Contention on
// a single entity is a handful of players at most, so a lost race is resolved
// within one or two reloads in practice.
const maxMutateAttempts = 16

// Transition computes the next state of an entity from its current state.
// It must be a pure function of its input: Mutate may invoke it several times
// for one logical call when a concurrent writer commits first. Returning an
// error aborts the mutation with nothing persisted, and the same error is
// handed back to the caller.
type Transition[T any] func(current T) (T, error)

// Store is a versioned entity store for records of type T keyed by id.
// Implementations must provide per-key atomicity for Mutate; keys are fully
// independent of each other.
type Store[T any] interface {
	// Create persists a new entity at version 0. It fails with
	// ErrAlreadyExists if the id is present.
	Create(ctx context.Context, id string, initial T) error

	// Exists reports whether an entity is present under id.
	Exists(ctx context.Context, id string) (bool, error)

	// Get returns the current state, or ErrNotFound. Reads are not
	// linearized with concurrent writers and may trail a commit in flight.
	Get(ctx context.Context, id string) (T, error)

	// Mutate loads the entity, applies fn, and commits the result with a
	// compare-and-swap on the loaded version. On a version mismatch it
	// reloads and reapplies fn from scratch, up to a fixed budget;
	// exhaustion fails with ErrConflict. An error from fn aborts
	// immediately and is returned unchanged.
	Mutate(ctx context.Context, id string, fn Transition[T]) (T, error)

	// List returns the ids of all entities in creation order.
	List(ctx context.Context) ([]string, error)
}

// NewID returns a fresh unique entity id. Callers mint ids before running a
// transition so the transition itself stays pure.
func NewID() string {
	return uuid.NewString()
}

// MutateAux runs fn through s.Mutate while carrying a side value computed by
// the transition back to the caller, e.g. a record created inside the
// transition. Only the invocation that actually commits determines the
// returned value.
func MutateAux[T, A any](ctx context.Context, s Store[T], id string, fn func(current T) (T, A, error)) (T, A, error) {
	var aux A
	state, err := s.Mutate(ctx, id, func(current T) (T, error) {
		next, a, err := fn(current)
		if err != nil {
			var zero T
			return zero, err
		}
		aux = a
		return next, nil
	})
	if err != nil {
		var zero A
		return state, zero, err
	}
	return state, aux, nil
}
