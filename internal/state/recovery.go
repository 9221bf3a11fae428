package state

import (
	"fmt"
	"time"
)

// InterruptedDeliberation contains information about a deliberation a
// previous run left active, detected on startup.
type InterruptedDeliberation struct {
	DeliberationID string
	Proposal       string
	Tier           string
	StartedAt      time.Time
}

// RecoveryManager handles detection and cleanup of interrupted deliberations.
// A deliberation cannot be resumed across processes because every member
// would have to be re-consulted, so recovery means marking leftovers
// abandoned rather than restarting them.
type RecoveryManager struct {
	db *DB
}

// NewRecoveryManager creates a new RecoveryManager with the given database.
func NewRecoveryManager(db *DB) *RecoveryManager {
	return &RecoveryManager{db: db}
}

// CheckForInterrupted detects the most recent deliberation left active
// by a previous run. Returns nil if none is found.
func (rm *RecoveryManager) CheckForInterrupted() (*InterruptedDeliberation, error) {
	d, err := rm.db.GetActiveDeliberation()
	if err != nil {
		return nil, fmt.Errorf("check active deliberations: %w", err)
	}
	if d == nil {
		return nil, nil
	}

	return &InterruptedDeliberation{
		DeliberationID: d.ID,
		Proposal:       d.Proposal,
		Tier:           d.Tier,
		StartedAt:      d.StartedAt,
	}, nil
}

// Abandon marks an interrupted deliberation abandoned so the history
// stays truthful about what was never decided.
func (rm *RecoveryManager) Abandon(id string) error {
	d, err := rm.db.GetDeliberation(id)
	if err != nil {
		return fmt.Errorf("load deliberation: %w", err)
	}
	if d == nil {
		return fmt.Errorf("deliberation %s not found", id)
	}
	if d.Status != DeliberationActive {
		return nil
	}

	d.Status = DeliberationAbandoned
	if err := rm.db.UpdateDeliberation(d); err != nil {
		return fmt.Errorf("abandon deliberation: %w", err)
	}
	return nil
}

// AbandonStale marks every active deliberation older than the given
// duration as abandoned. Returns the number of deliberations marked.
func (rm *RecoveryManager) AbandonStale(olderThan time.Duration) (int, error) {
	status := DeliberationActive
	active, err := rm.db.ListDeliberations(&status)
	if err != nil {
		return 0, fmt.Errorf("list active deliberations: %w", err)
	}

	cutoff := time.Now().Add(-olderThan)
	marked := 0
	for i := range active {
		if active[i].StartedAt.After(cutoff) {
			continue
		}
		active[i].Status = DeliberationAbandoned
		if err := rm.db.UpdateDeliberation(&active[i]); err != nil {
			return marked, fmt.Errorf("abandon deliberation %s: %w", active[i].ID, err)
		}
		marked++
	}
	return marked, nil
}
