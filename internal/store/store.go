// Package store provides the keyed blob storage behind flashcard sets,
// study sessions, and review state. Namespaces keep the three id spaces
// apart so a session id can never collide with the set it came from.
package store

import (
	"context"
	"errors"
	"time"
)

type Namespace string

const (
	NamespaceSets     Namespace = "sets"
	NamespaceSessions Namespace = "sessions"
	NamespaceReviews  Namespace = "reviews"
)

var ErrNotFound = errors.New("store: not found")

// Store is a namespaced key/value map with optional per-entry expiry.
// Implementations must be safe for concurrent use across distinct keys.
type Store interface {
	// Get returns the stored value, or ErrNotFound when the key is absent
	// or its TTL has lapsed.
	Get(ctx context.Context, ns Namespace, id string) ([]byte, error)
	// Put stores value under (ns, id). A zero ttl means the entry never
	// expires.
	Put(ctx context.Context, ns Namespace, id string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, ns Namespace, id string) error
}
