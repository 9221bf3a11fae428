package tensions

import (
	"errors"
	"testing"

	"github.com/witanworks/witan/pkg/models"
)

func TestConfig_Validate(t *testing.T) {
	valid := Config{
		ProtocolID:    ProtocolTrustPremium,
		AgentA:        models.MemberSovereign,
		AgentB:        models.MemberEconomist,
		MaxIterations: 4,
		Priority:      1,
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid config", func(c *Config) {}, false},
		{"zero max iterations is allowed", func(c *Config) { c.MaxIterations = 0 }, false},
		{"zero priority is allowed", func(c *Config) { c.Priority = 0 }, false},
		{"missing protocol id", func(c *Config) { c.ProtocolID = "" }, true},
		{"missing agent a", func(c *Config) { c.AgentA = "" }, true},
		{"missing agent b", func(c *Config) { c.AgentB = "" }, true},
		{"negative max iterations", func(c *Config) { c.MaxIterations = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("Validate() = nil, want error")
				}
				if !errors.Is(err, ErrBadConfig) {
					t.Errorf("Validate() error = %v, want ErrBadConfig", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestNew_UnknownProtocolID(t *testing.T) {
	cfg := Config{
		ProtocolID: "ghost_protocol",
		AgentA:     models.MemberJurist,
		AgentB:     models.MemberPhilosopher,
	}

	_, err := New(cfg)
	if err == nil {
		t.Fatal("New() with unknown protocol id should fail")
	}
	if !errors.Is(err, ErrBadConfig) {
		t.Errorf("New() error = %v, want ErrBadConfig", err)
	}
}

func TestNew_PropagatesConfigError(t *testing.T) {
	// A known protocol id with missing agents must still fail.
	cfg := Config{ProtocolID: ProtocolTrustPremium}

	_, err := New(cfg)
	if err == nil {
		t.Fatal("New() with incomplete config should fail")
	}
	if !errors.Is(err, ErrBadConfig) {
		t.Errorf("New() error = %v, want ErrBadConfig", err)
	}
}

func TestDefaultConfigs(t *testing.T) {
	cfgs := DefaultConfigs()

	if len(cfgs) != 5 {
		t.Fatalf("DefaultConfigs() returned %d configs, want 5", len(cfgs))
	}

	want := []struct {
		id       string
		agentA   string
		agentB   string
		maxIter  int
		priority int
	}{
		{ProtocolLegalEthical, models.MemberJurist, models.MemberPhilosopher, 0, 0},
		{ProtocolTrustPremium, models.MemberSovereign, models.MemberEconomist, 4, 1},
		{ProtocolIntegrationCoherence, models.MemberEcosystem, models.MemberArchitect, 3, 2},
		{ProtocolFeasibility, models.MemberOperator, models.AllMembers, 2, 3},
		{ProtocolOptionality, models.MemberFuturist, models.AllMembers, 3, 4},
	}

	for i, w := range want {
		cfg := cfgs[i]
		if cfg.ProtocolID != w.id {
			t.Errorf("config[%d].ProtocolID = %q, want %q", i, cfg.ProtocolID, w.id)
		}
		if cfg.AgentA != w.agentA {
			t.Errorf("%s: AgentA = %q, want %q", w.id, cfg.AgentA, w.agentA)
		}
		if cfg.AgentB != w.agentB {
			t.Errorf("%s: AgentB = %q, want %q", w.id, cfg.AgentB, w.agentB)
		}
		if cfg.MaxIterations != w.maxIter {
			t.Errorf("%s: MaxIterations = %d, want %d", w.id, cfg.MaxIterations, w.maxIter)
		}
		if cfg.Priority != w.priority {
			t.Errorf("%s: Priority = %d, want %d", w.id, cfg.Priority, w.priority)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("%s: default config does not validate: %v", w.id, err)
		}
	}
}

func TestDefaultProtocols(t *testing.T) {
	protocols, err := DefaultProtocols()
	if err != nil {
		t.Fatalf("DefaultProtocols() error = %v", err)
	}
	if len(protocols) != 5 {
		t.Fatalf("DefaultProtocols() returned %d protocols, want 5", len(protocols))
	}

	for i, cfg := range DefaultConfigs() {
		if protocols[i].ID() != cfg.ProtocolID {
			t.Errorf("protocol[%d].ID() = %q, want %q", i, protocols[i].ID(), cfg.ProtocolID)
		}
		if protocols[i].Priority() != cfg.Priority {
			t.Errorf("protocol[%d].Priority() = %d, want %d", i, protocols[i].Priority(), cfg.Priority)
		}
	}
}
