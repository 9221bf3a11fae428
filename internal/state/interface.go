// Package state provides SQLite-based history storage for Witan.
package state

import "io"

// DeliberationStore handles deliberation-related persistence operations.
type DeliberationStore interface {
	CreateDeliberation(d *Deliberation) error
	GetDeliberation(id string) (*Deliberation, error)
	UpdateDeliberation(d *Deliberation) error
	GetActiveDeliberation() (*Deliberation, error)
}

// ResponseStore handles member response persistence operations.
type ResponseStore interface {
	AddResponses(deliberationID string, responses []Response) error
	ListResponses(deliberationID string) ([]Response, error)
}

// TensionStore handles tension record persistence operations.
type TensionStore interface {
	AddTensions(deliberationID string, tensions []TensionRow) error
	ListTensions(deliberationID string) ([]TensionRow, error)
}

// Migrator handles database schema migrations.
// Separating this allows clients to depend only on migration functionality.
type Migrator interface {
	// Migrate applies all pending schema migrations.
	Migrate() error
}

// HistoryStore defines the interface for deliberation history persistence.
// This interface allows the session driver to work with any backend
// without depending on the concrete SQLite implementation.
// It composes focused sub-interfaces for better modularity.
type HistoryStore interface {
	io.Closer
	Migrator
	DeliberationStore
	ResponseStore
	TensionStore
}

// Compile-time verification that DB implements all interfaces.
var (
	_ HistoryStore      = (*DB)(nil)
	_ Migrator          = (*DB)(nil)
	_ DeliberationStore = (*DB)(nil)
	_ ResponseStore     = (*DB)(nil)
	_ TensionStore      = (*DB)(nil)
)
