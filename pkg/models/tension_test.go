package models

import "testing"

func TestTensionStatus_Valid(t *testing.T) {
	tests := []struct {
		name   string
		status TensionStatus
		want   bool
	}{
		{"active is valid", TensionActive, true},
		{"resolving is valid", TensionResolving, true},
		{"escalated is valid", TensionEscalated, true},
		{"resolved is valid", TensionResolved, true},
		{"requires_escalation is valid", TensionRequiresEscalation, true},
		{"empty string is invalid", TensionStatus(""), false},
		{"unknown status is invalid", TensionStatus("pending"), false},
		{"uppercase is invalid", TensionStatus("ACTIVE"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.Valid(); got != tt.want {
				t.Errorf("TensionStatus(%q).Valid() = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestTensionStatus_Terminal(t *testing.T) {
	tests := []struct {
		status TensionStatus
		want   bool
	}{
		{TensionActive, false},
		{TensionResolving, false},
		{TensionEscalated, true},
		{TensionResolved, true},
		// requires_escalation still expects a resolve call to escalate it.
		{TensionRequiresEscalation, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.Terminal(); got != tt.want {
				t.Errorf("TensionStatus(%q).Terminal() = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestAllMembers_Sentinel(t *testing.T) {
	if AllMembers != "all" {
		t.Errorf("AllMembers = %q, want %q", AllMembers, "all")
	}
}

func TestTension_ZeroValue(t *testing.T) {
	var tension Tension

	if tension.IterationCount != 0 {
		t.Errorf("zero Tension.IterationCount = %d, want 0", tension.IterationCount)
	}
	if tension.Resolution != "" {
		t.Errorf("zero Tension.Resolution = %q, want empty", tension.Resolution)
	}
	if tension.Status.Valid() {
		t.Error("zero Tension.Status should not be a valid status")
	}
}
