package state

import (
	"database/sql"
	"fmt"
	"time"
)

// DeliberationStatus represents the lifecycle status of a deliberation.
type DeliberationStatus string

const (
	DeliberationActive    DeliberationStatus = "active"
	DeliberationDecided   DeliberationStatus = "decided"
	DeliberationAbandoned DeliberationStatus = "abandoned"
)

// Deliberation represents one council deliberation over a proposal.
type Deliberation struct {
	ID         string             `json:"id"`
	Proposal   string             `json:"proposal"`
	Tier       string             `json:"tier"`
	Outcome    string             `json:"outcome"`
	Summary    string             `json:"summary"`
	TokensUsed int                `json:"tokens_used"`
	Cost       float64            `json:"cost"`
	StartedAt  time.Time          `json:"started_at"`
	DecidedAt  *time.Time         `json:"decided_at"`
	Status     DeliberationStatus `json:"status"`
}

// Response represents one member verdict recorded for a deliberation.
type Response struct {
	ID             int64     `json:"id"`
	DeliberationID string    `json:"deliberation_id"`
	AgentID        string    `json:"agent_id"`
	Rating         string    `json:"rating"`
	Confidence     float64   `json:"confidence"`
	Reasoning      string    `json:"reasoning"`
	Model          string    `json:"model"`
	Round          int       `json:"round"`
	ReceivedAt     time.Time `json:"received_at"`
}

// TensionRow represents one detected tension recorded for a deliberation.
type TensionRow struct {
	ID             int64     `json:"id"`
	DeliberationID string    `json:"deliberation_id"`
	ProtocolID     string    `json:"protocol_id"`
	AgentA         string    `json:"agent_a"`
	AgentB         string    `json:"agent_b"`
	Priority       int       `json:"priority"`
	TriggerReason  string    `json:"trigger_reason"`
	Iterations     int       `json:"iterations"`
	MaxIterations  int       `json:"max_iterations"`
	Status         string    `json:"status"`
	Resolution     string    `json:"resolution"`
	DetectedAt     time.Time `json:"detected_at"`
}

// Deliberation CRUD operations

// CreateDeliberation creates a new deliberation record.
func (db *DB) CreateDeliberation(d *Deliberation) error {
	var decidedAt *string
	if d.DecidedAt != nil {
		s := formatTime(*d.DecidedAt)
		decidedAt = &s
	}

	_, err := db.Exec(`
		INSERT INTO deliberations (id, proposal, tier, outcome, summary, tokens_used, cost, started_at, decided_at, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.Proposal, d.Tier, d.Outcome, d.Summary, d.TokensUsed, d.Cost, formatTime(d.StartedAt), decidedAt, string(d.Status))
	if err != nil {
		return fmt.Errorf("create deliberation: %w", err)
	}
	return nil
}

// GetDeliberation retrieves a deliberation by ID.
func (db *DB) GetDeliberation(id string) (*Deliberation, error) {
	row := db.QueryRow(`
		SELECT id, proposal, tier, outcome, summary, tokens_used, cost, started_at, decided_at, status
		FROM deliberations WHERE id = ?
	`, id)

	d, err := scanDeliberation(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get deliberation: %w", err)
	}
	return d, nil
}

// UpdateDeliberation updates a deliberation record.
func (db *DB) UpdateDeliberation(d *Deliberation) error {
	var decidedAt *string
	if d.DecidedAt != nil {
		s := formatTime(*d.DecidedAt)
		decidedAt = &s
	}

	_, err := db.Exec(`
		UPDATE deliberations SET proposal = ?, tier = ?, outcome = ?, summary = ?, tokens_used = ?,
			cost = ?, decided_at = ?, status = ?
		WHERE id = ?
	`, d.Proposal, d.Tier, d.Outcome, d.Summary, d.TokensUsed, d.Cost, decidedAt, string(d.Status), d.ID)
	if err != nil {
		return fmt.Errorf("update deliberation: %w", err)
	}
	return nil
}

// DeleteDeliberation deletes a deliberation and its responses and tensions.
func (db *DB) DeleteDeliberation(id string) error {
	return db.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM responses WHERE deliberation_id = ?", id); err != nil {
			return fmt.Errorf("delete responses: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM tensions WHERE deliberation_id = ?", id); err != nil {
			return fmt.Errorf("delete tensions: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM deliberations WHERE id = ?", id); err != nil {
			return fmt.Errorf("delete deliberation: %w", err)
		}
		return nil
	})
}

// ListDeliberations lists all deliberations, optionally filtered by status.
func (db *DB) ListDeliberations(status *DeliberationStatus) ([]Deliberation, error) {
	var rows *sql.Rows
	var err error

	if status != nil {
		rows, err = db.Query(`
			SELECT id, proposal, tier, outcome, summary, tokens_used, cost, started_at, decided_at, status
			FROM deliberations WHERE status = ? ORDER BY started_at DESC
		`, string(*status))
	} else {
		rows, err = db.Query(`
			SELECT id, proposal, tier, outcome, summary, tokens_used, cost, started_at, decided_at, status
			FROM deliberations ORDER BY started_at DESC
		`)
	}
	if err != nil {
		return nil, fmt.Errorf("list deliberations: %w", err)
	}
	defer rows.Close()

	var deliberations []Deliberation
	for rows.Next() {
		d, err := scanDeliberation(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan deliberation: %w", err)
		}
		deliberations = append(deliberations, *d)
	}
	return deliberations, nil
}

// GetActiveDeliberation returns the most recent active deliberation, if any.
func (db *DB) GetActiveDeliberation() (*Deliberation, error) {
	status := DeliberationActive
	deliberations, err := db.ListDeliberations(&status)
	if err != nil {
		return nil, err
	}
	if len(deliberations) == 0 {
		return nil, nil
	}
	return &deliberations[0], nil
}

// scanDeliberation scans one deliberation row through the given scan
// function so a *sql.Row and *sql.Rows share the decode path.
func scanDeliberation(scan func(dest ...any) error) (*Deliberation, error) {
	var d Deliberation
	var startedAt string
	var decidedAt sql.NullString
	var outcome, summary sql.NullString
	if err := scan(&d.ID, &d.Proposal, &d.Tier, &outcome, &summary, &d.TokensUsed, &d.Cost, &startedAt, &decidedAt, &d.Status); err != nil {
		return nil, err
	}
	if outcome.Valid {
		d.Outcome = outcome.String
	}
	if summary.Valid {
		d.Summary = summary.String
	}
	d.StartedAt, _ = parseTime(startedAt)
	d.DecidedAt = parseNullableTime(decidedAt)
	return &d, nil
}

// Response operations

// AddResponses appends member responses to a deliberation in one transaction.
func (db *DB) AddResponses(deliberationID string, responses []Response) error {
	if len(responses) == 0 {
		return nil
	}
	return db.Transaction(func(tx *sql.Tx) error {
		for _, r := range responses {
			if _, err := tx.Exec(`
				INSERT INTO responses (deliberation_id, agent_id, rating, confidence, reasoning, model, round, received_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`, deliberationID, r.AgentID, r.Rating, r.Confidence, r.Reasoning, r.Model, r.Round, formatTime(r.ReceivedAt)); err != nil {
				return fmt.Errorf("add response for %s: %w", r.AgentID, err)
			}
		}
		return nil
	})
}

// ListResponses lists all responses for a deliberation in arrival order.
func (db *DB) ListResponses(deliberationID string) ([]Response, error) {
	rows, err := db.Query(`
		SELECT id, deliberation_id, agent_id, rating, confidence, reasoning, model, round, received_at
		FROM responses WHERE deliberation_id = ? ORDER BY id
	`, deliberationID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()

	var responses []Response
	for rows.Next() {
		var r Response
		var reasoning, model sql.NullString
		var receivedAt string
		if err := rows.Scan(&r.ID, &r.DeliberationID, &r.AgentID, &r.Rating, &r.Confidence, &reasoning, &model, &r.Round, &receivedAt); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		if reasoning.Valid {
			r.Reasoning = reasoning.String
		}
		if model.Valid {
			r.Model = model.String
		}
		r.ReceivedAt, _ = parseTime(receivedAt)
		responses = append(responses, r)
	}
	return responses, nil
}

// Tension operations

// AddTensions appends tension records to a deliberation in one transaction.
func (db *DB) AddTensions(deliberationID string, tensions []TensionRow) error {
	if len(tensions) == 0 {
		return nil
	}
	return db.Transaction(func(tx *sql.Tx) error {
		for _, tr := range tensions {
			if _, err := tx.Exec(`
				INSERT INTO tensions (deliberation_id, protocol_id, agent_a, agent_b, priority, trigger_reason,
					iterations, max_iterations, status, resolution, detected_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, deliberationID, tr.ProtocolID, tr.AgentA, tr.AgentB, tr.Priority, tr.TriggerReason,
				tr.Iterations, tr.MaxIterations, tr.Status, tr.Resolution, formatTime(tr.DetectedAt)); err != nil {
				return fmt.Errorf("add tension %s: %w", tr.ProtocolID, err)
			}
		}
		return nil
	})
}

// ListTensions lists all tensions for a deliberation in detection order.
func (db *DB) ListTensions(deliberationID string) ([]TensionRow, error) {
	rows, err := db.Query(`
		SELECT id, deliberation_id, protocol_id, agent_a, agent_b, priority, trigger_reason,
			iterations, max_iterations, status, resolution, detected_at
		FROM tensions WHERE deliberation_id = ? ORDER BY id
	`, deliberationID)
	if err != nil {
		return nil, fmt.Errorf("list tensions: %w", err)
	}
	defer rows.Close()

	var tensions []TensionRow
	for rows.Next() {
		var tr TensionRow
		var triggerReason, resolution sql.NullString
		var detectedAt string
		if err := rows.Scan(&tr.ID, &tr.DeliberationID, &tr.ProtocolID, &tr.AgentA, &tr.AgentB, &tr.Priority,
			&triggerReason, &tr.Iterations, &tr.MaxIterations, &tr.Status, &resolution, &detectedAt); err != nil {
			return nil, fmt.Errorf("scan tension: %w", err)
		}
		if triggerReason.Valid {
			tr.TriggerReason = triggerReason.String
		}
		if resolution.Valid {
			tr.Resolution = resolution.String
		}
		tr.DetectedAt, _ = parseTime(detectedAt)
		tensions = append(tensions, tr)
	}
	return tensions, nil
}
