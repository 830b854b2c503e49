package domain

import "testing"

func TestParseAgentID(t *testing.T) {
	tests := []struct {
		in   string
		lab  Lab
		role string
	}{
		{"CC-architect", LabClaude, "architect"},
		{"OC-backend", LabOpenCode, "backend"},
		{"CX-reviewer", LabCodex, "reviewer"},
		{"GE-frontend", LabGemini, "frontend"},
		{"GR-scout", LabGrok, "scout"},
		{"darwin-claude-backend", LabClaude, "backend"},
		{"darwin-opencode-data-analyst", LabOpenCode, "data-analyst"},
		{"darwin-gemini-qa", LabGemini, "qa"},
		{"ZZ-mystery", LabUnknown, "ZZ-mystery"},
		{"plainname", LabUnknown, "plainname"},
		{"darwin-frobnicator-x", LabUnknown, "x"},
	}

	for _, tt := range tests {
		got := ParseAgentID(tt.in)
		if got.Lab != tt.lab {
			t.Errorf("ParseAgentID(%q).Lab = %v, want %v", tt.in, got.Lab, tt.lab)
		}
		if got.Role != tt.role {
			t.Errorf("ParseAgentID(%q).Role = %q, want %q", tt.in, got.Role, tt.role)
		}
		if got.Raw != tt.in {
			t.Errorf("ParseAgentID(%q).Raw = %q", tt.in, got.Raw)
		}
	}
}

func TestGenomeCLI(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"claude_architect", "claude"},
		{"opencode_backend", "opencode"},
		{"codex_reviewer", "codex"},
		{"gemini_frontend", "gemini"},
		{"mystery_role", "unknown"},
		{"nounderscores", "unknown"},
	}

	for _, tt := range tests {
		if got := GenomeCLI(tt.in); got != tt.want {
			t.Errorf("GenomeCLI(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAgentIDForGenome(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"claude_architect", "CC-architect"},
		{"opencode_backend", "OC-backend"},
		{"gemini_data_analyst", "GE-data_analyst"},
		{"mystery_role", ""},
		{"claude", ""},
	}

	for _, tt := range tests {
		if got := AgentIDForGenome(tt.in); got != tt.want {
			t.Errorf("AgentIDForGenome(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLabRoundTrip(t *testing.T) {
	for _, lab := range []Lab{LabClaude, LabOpenCode, LabCodex, LabGemini, LabGrok} {
		if got := LabFromCode(lab.Code()); got != lab {
			t.Errorf("LabFromCode(%q) = %v, want %v", lab.Code(), got, lab)
		}
		if got := LabFromCLI(lab.CLI()); got != lab {
			t.Errorf("LabFromCLI(%q) = %v, want %v", lab.CLI(), got, lab)
		}
	}
	if LabFromCode("zz") != LabUnknown {
		t.Error("LabFromCode(zz) should be LabUnknown")
	}
	if LabUnknown.Name() != "Unknown" {
		t.Errorf("LabUnknown.Name() = %q", LabUnknown.Name())
	}
}
