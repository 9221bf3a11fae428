// Package archive persists point-in-time deliberation snapshots so an
// operator can inspect how a decision evolved round by round.
package archive

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/witanworks/witan/pkg/models"
)

// Snapshot represents one captured moment of a deliberation.
type Snapshot struct {
	ID             string
	DeliberationID string
	Proposal       string
	Round          int
	Phase          string
	StateJSON      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// State decodes the captured decision state.
func (s *Snapshot) State() (*models.DecisionState, error) {
	var state models.DecisionState
	if err := json.Unmarshal([]byte(s.StateJSON), &state); err != nil {
		return nil, fmt.Errorf("decode snapshot state: %w", err)
	}
	return &state, nil
}

// Store manages deliberation snapshots.
type Store struct {
	db *sql.DB
}

// NewStore creates a new snapshot store with the given database path.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Create table if not exists
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS deliberation_snapshots (
			id TEXT PRIMARY KEY,
			deliberation_id TEXT,
			proposal TEXT,
			round INT,
			phase TEXT,
			state_json TEXT,
			created_at DATETIME,
			updated_at DATETIME
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &Store{db: db}, nil
}

// Capture records the current decision state under a fresh snapshot ID.
func (s *Store) Capture(deliberationID, phase string, state *models.DecisionState) (*Snapshot, error) {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot state: %w", err)
	}

	now := time.Now()
	snap := &Snapshot{
		ID:             uuid.New().String(),
		DeliberationID: deliberationID,
		Proposal:       state.Proposal,
		Round:          state.Round,
		Phase:          phase,
		StateJSON:      string(stateJSON),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	_, err = s.db.Exec(`
		INSERT INTO deliberation_snapshots (id, deliberation_id, proposal, round, phase, state_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, snap.ID, snap.DeliberationID, snap.Proposal, snap.Round, snap.Phase, snap.StateJSON, snap.CreatedAt, snap.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert snapshot: %w", err)
	}

	return snap, nil
}

// Update refreshes an existing snapshot with the latest state.
func (s *Store) Update(snap *Snapshot, phase string, state *models.DecisionState) error {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode snapshot state: %w", err)
	}

	snap.Phase = phase
	snap.Round = state.Round
	snap.StateJSON = string(stateJSON)
	snap.UpdatedAt = time.Now()

	result, err := s.db.Exec(`
		UPDATE deliberation_snapshots
		SET round = ?, phase = ?, state_json = ?, updated_at = ?
		WHERE id = ?
	`, snap.Round, snap.Phase, snap.StateJSON, snap.UpdatedAt, snap.ID)
	if err != nil {
		return fmt.Errorf("update snapshot: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("snapshot not found: %s", snap.ID)
	}

	return nil
}

// Get retrieves a snapshot by ID.
func (s *Store) Get(id string) (*Snapshot, error) {
	row := s.db.QueryRow(`
		SELECT id, deliberation_id, proposal, round, phase, state_json, created_at, updated_at
		FROM deliberation_snapshots
		WHERE id = ?
	`, id)

	snap, err := scanSnapshot(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("snapshot not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("scan snapshot: %w", err)
	}
	return snap, nil
}

// ListByDeliberation returns all snapshots for a deliberation, oldest first.
func (s *Store) ListByDeliberation(deliberationID string) ([]Snapshot, error) {
	rows, err := s.db.Query(`
		SELECT id, deliberation_id, proposal, round, phase, state_json, created_at, updated_at
		FROM deliberation_snapshots
		WHERE deliberation_id = ?
		ORDER BY rowid
	`, deliberationID)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snaps = append(snaps, *snap)
	}
	return snaps, nil
}

// Latest returns the most recently updated snapshot for a deliberation,
// nil when none exists.
func (s *Store) Latest(deliberationID string) (*Snapshot, error) {
	row := s.db.QueryRow(`
		SELECT id, deliberation_id, proposal, round, phase, state_json, created_at, updated_at
		FROM deliberation_snapshots
		WHERE deliberation_id = ?
		ORDER BY updated_at DESC, rowid DESC
		LIMIT 1
	`, deliberationID)

	snap, err := scanSnapshot(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan snapshot: %w", err)
	}
	return snap, nil
}

// Delete removes a snapshot by ID.
func (s *Store) Delete(id string) error {
	result, err := s.db.Exec(`DELETE FROM deliberation_snapshots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("snapshot not found: %s", id)
	}

	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// scanSnapshot decodes one snapshot row through the given scan function.
func scanSnapshot(scan func(dest ...any) error) (*Snapshot, error) {
	var snap Snapshot
	var stateJSON sql.NullString
	err := scan(
		&snap.ID,
		&snap.DeliberationID,
		&snap.Proposal,
		&snap.Round,
		&snap.Phase,
		&stateJSON,
		&snap.CreatedAt,
		&snap.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if stateJSON.Valid {
		snap.StateJSON = stateJSON.String
	}
	return &snap, nil
}
