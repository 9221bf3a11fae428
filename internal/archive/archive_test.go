package archive

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/witanworks/witan/pkg/models"
)

func testState() *models.DecisionState {
	state := models.NewDecisionState("delib-1", "open the northern trade route")
	state.Round = 1
	state.AgentResponses["operator"] = models.AgentResponse{
		AgentID:    "operator",
		Rating:     models.RatingBlock,
		Confidence: 0.8,
		Reasoning:  "the timeline is impossible with current crews",
		ReceivedAt: time.Now().UTC(),
	}
	state.ActiveTensions = []*models.Tension{
		{
			ProtocolID:    "operator_strategy",
			AgentA:        "operator",
			AgentB:        models.AllMembers,
			Priority:      3,
			TriggerReason: "Operator flags implementation concerns: BLOCK",
			MaxIterations: 2,
			Status:        models.TensionActive,
			DetectedAt:    time.Now().UTC(),
		},
	}
	return state
}

func TestStore(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "archive_test")
	if err != nil {
		t.Fatalf("create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewStore(dbPath)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()

	state := testState()

	// Test Capture
	snap, err := store.Capture("delib-1", "detecting", state)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if snap.ID == "" {
		t.Error("snapshot ID should not be empty")
	}
	if snap.DeliberationID != "delib-1" {
		t.Errorf("DeliberationID = %q, want %q", snap.DeliberationID, "delib-1")
	}
	if snap.Proposal != state.Proposal {
		t.Errorf("Proposal = %q, want %q", snap.Proposal, state.Proposal)
	}
	if snap.Phase != "detecting" {
		t.Errorf("Phase = %q, want %q", snap.Phase, "detecting")
	}
	if snap.Round != 1 {
		t.Errorf("Round = %d, want 1", snap.Round)
	}

	// Test Get
	retrieved, err := store.Get(snap.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if retrieved.ID != snap.ID {
		t.Errorf("ID = %q, want %q", retrieved.ID, snap.ID)
	}

	// The captured state decodes back with tensions intact.
	decoded, err := retrieved.State()
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if decoded.ProposalID != "delib-1" {
		t.Errorf("ProposalID = %q, want delib-1", decoded.ProposalID)
	}
	if len(decoded.ActiveTensions) != 1 {
		t.Fatalf("expected 1 active tension, got %d", len(decoded.ActiveTensions))
	}
	if decoded.ActiveTensions[0].ProtocolID != "operator_strategy" {
		t.Errorf("tension protocol = %q, want operator_strategy", decoded.ActiveTensions[0].ProtocolID)
	}
	if resp, ok := decoded.Response("operator"); !ok || resp.Rating != models.RatingBlock {
		t.Errorf("operator response = %+v, ok = %v", resp, ok)
	}

	// Test Update
	state.Round = 2
	state.ActiveTensions[0].Status = models.TensionResolving
	state.ActiveTensions[0].IterationCount = 1
	if err := store.Update(snap, "resolving", state); err != nil {
		t.Fatalf("Update: %v", err)
	}

	updated, err := store.Get(snap.ID)
	if err != nil {
		t.Fatalf("Get after update: %v", err)
	}
	if updated.Phase != "resolving" {
		t.Errorf("Phase = %q, want resolving", updated.Phase)
	}
	if updated.Round != 2 {
		t.Errorf("Round = %d, want 2", updated.Round)
	}
	decoded, err = updated.State()
	if err != nil {
		t.Fatalf("State after update: %v", err)
	}
	if decoded.ActiveTensions[0].IterationCount != 1 {
		t.Errorf("IterationCount = %d, want 1", decoded.ActiveTensions[0].IterationCount)
	}

	// Test Delete
	if err := store.Delete(snap.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(snap.ID); err == nil {
		t.Error("Get after delete should return error")
	}
}

func TestStoreNotFound(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "archive_test")
	if err != nil {
		t.Fatalf("create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	dbPath := filepath.Join(tmpDir, "test.db")
	store, err := NewStore(dbPath)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()

	// Test Get with non-existent ID
	if _, err := store.Get("non-existent"); err == nil {
		t.Error("Get should return error for non-existent ID")
	}

	// Test Update with non-existent ID
	snap := &Snapshot{ID: "non-existent"}
	if err := store.Update(snap, "decided", testState()); err == nil {
		t.Error("Update should return error for non-existent ID")
	}

	// Test Delete with non-existent ID
	if err := store.Delete("non-existent"); err == nil {
		t.Error("Delete should return error for non-existent ID")
	}
}

func TestListAndLatest(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "archive_test")
	if err != nil {
		t.Fatalf("create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	store, err := NewStore(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()

	// No snapshots yet
	latest, err := store.Latest("delib-1")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest != nil {
		t.Errorf("expected nil latest, got %+v", latest)
	}

	state := testState()
	first, err := store.Capture("delib-1", "convening", state)
	if err != nil {
		t.Fatalf("Capture first: %v", err)
	}
	state.Round = 2
	second, err := store.Capture("delib-1", "resolving", state)
	if err != nil {
		t.Fatalf("Capture second: %v", err)
	}
	// Another deliberation's snapshot must not leak in.
	if _, err := store.Capture("delib-2", "convening", testState()); err != nil {
		t.Fatalf("Capture other: %v", err)
	}

	snaps, err := store.ListByDeliberation("delib-1")
	if err != nil {
		t.Fatalf("ListByDeliberation: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(snaps))
	}
	if snaps[0].ID != first.ID || snaps[1].ID != second.ID {
		t.Errorf("unexpected order: %s, %s", snaps[0].ID, snaps[1].ID)
	}

	latest, err = store.Latest("delib-1")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest == nil || latest.ID != second.ID {
		t.Errorf("latest = %+v, want %s", latest, second.ID)
	}
}
