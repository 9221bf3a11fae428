package state

import (
	"testing"
	"time"
)

func TestCheckForInterrupted_Empty(t *testing.T) {
	db := setupTestDB(t)
	rm := NewRecoveryManager(db)

	interrupted, err := rm.CheckForInterrupted()
	if err != nil {
		t.Fatalf("CheckForInterrupted failed: %v", err)
	}
	if interrupted != nil {
		t.Errorf("expected nil with no deliberations, got %+v", interrupted)
	}
}

func TestCheckForInterrupted_FindsActive(t *testing.T) {
	db := setupTestDB(t)
	rm := NewRecoveryManager(db)

	started := time.Now().UTC().Add(-30 * time.Minute).Truncate(time.Second)
	if err := db.CreateDeliberation(&Deliberation{
		ID: "crashed", Proposal: "rebuild the mill", Tier: "plenary",
		StartedAt: started, Status: DeliberationActive,
	}); err != nil {
		t.Fatalf("CreateDeliberation failed: %v", err)
	}
	if err := db.CreateDeliberation(&Deliberation{
		ID: "done", Proposal: "renew the charter", Tier: "brief",
		Outcome: "approved", StartedAt: started.Add(-time.Hour), Status: DeliberationDecided,
	}); err != nil {
		t.Fatalf("CreateDeliberation failed: %v", err)
	}

	interrupted, err := rm.CheckForInterrupted()
	if err != nil {
		t.Fatalf("CheckForInterrupted failed: %v", err)
	}
	if interrupted == nil {
		t.Fatal("expected interrupted deliberation, got nil")
	}
	if interrupted.DeliberationID != "crashed" {
		t.Errorf("id = %q, want crashed", interrupted.DeliberationID)
	}
	if interrupted.Proposal != "rebuild the mill" {
		t.Errorf("proposal = %q", interrupted.Proposal)
	}
	if interrupted.Tier != "plenary" {
		t.Errorf("tier = %q, want plenary", interrupted.Tier)
	}
	if !interrupted.StartedAt.Equal(started) {
		t.Errorf("started_at = %v, want %v", interrupted.StartedAt, started)
	}
}

func TestAbandon(t *testing.T) {
	db := setupTestDB(t)
	rm := NewRecoveryManager(db)

	if err := db.CreateDeliberation(&Deliberation{
		ID: "crashed", Proposal: "p", Tier: "council",
		StartedAt: time.Now().UTC(), Status: DeliberationActive,
	}); err != nil {
		t.Fatalf("CreateDeliberation failed: %v", err)
	}

	if err := rm.Abandon("crashed"); err != nil {
		t.Fatalf("Abandon failed: %v", err)
	}

	d, err := db.GetDeliberation("crashed")
	if err != nil {
		t.Fatalf("GetDeliberation failed: %v", err)
	}
	if d.Status != DeliberationAbandoned {
		t.Errorf("status = %q, want %q", d.Status, DeliberationAbandoned)
	}

	// Abandoning a non-active deliberation is a no-op.
	if err := rm.Abandon("crashed"); err != nil {
		t.Errorf("second Abandon failed: %v", err)
	}
}

func TestAbandon_NotFound(t *testing.T) {
	db := setupTestDB(t)
	rm := NewRecoveryManager(db)

	if err := rm.Abandon("absent"); err == nil {
		t.Error("expected error for missing deliberation, got nil")
	}
}

func TestAbandonStale(t *testing.T) {
	db := setupTestDB(t)
	rm := NewRecoveryManager(db)

	now := time.Now().UTC()
	if err := db.CreateDeliberation(&Deliberation{
		ID: "stale", Proposal: "p1", Tier: "council",
		StartedAt: now.Add(-48 * time.Hour), Status: DeliberationActive,
	}); err != nil {
		t.Fatalf("CreateDeliberation failed: %v", err)
	}
	if err := db.CreateDeliberation(&Deliberation{
		ID: "fresh", Proposal: "p2", Tier: "council",
		StartedAt: now.Add(-5 * time.Minute), Status: DeliberationActive,
	}); err != nil {
		t.Fatalf("CreateDeliberation failed: %v", err)
	}

	marked, err := rm.AbandonStale(24 * time.Hour)
	if err != nil {
		t.Fatalf("AbandonStale failed: %v", err)
	}
	if marked != 1 {
		t.Errorf("marked %d deliberations, want 1", marked)
	}

	stale, _ := db.GetDeliberation("stale")
	if stale.Status != DeliberationAbandoned {
		t.Errorf("stale status = %q, want %q", stale.Status, DeliberationAbandoned)
	}
	fresh, _ := db.GetDeliberation("fresh")
	if fresh.Status != DeliberationActive {
		t.Errorf("fresh status = %q, want %q", fresh.Status, DeliberationActive)
	}
}
