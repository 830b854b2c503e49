package domain

import "strings"

// Lab identifies which AI lab's CLI an agent runs on.
type Lab int

const (
	LabUnknown Lab = iota
	LabClaude
	LabOpenCode
	LabCodex
	LabGemini
	LabGrok
)

// labCodes maps the two-letter prefix used in agent IDs to a Lab.
var labCodes = map[string]Lab{
	"CC": LabClaude,
	"OC": LabOpenCode,
	"CX": LabCodex,
	"GE": LabGemini,
	"GR": LabGrok,
}

// cliNames maps a CLI binary name (as used in genome filenames and
// darwin-style agent IDs) to a Lab.
var cliNames = map[string]Lab{
	"claude":   LabClaude,
	"opencode": LabOpenCode,
	"codex":    LabCodex,
	"gemini":   LabGemini,
	"grok":     LabGrok,
}

// Code returns the two-letter lab code used in agent IDs.
func (l Lab) Code() string {
	switch l {
	case LabClaude:
		return "CC"
	case LabOpenCode:
		return "OC"
	case LabCodex:
		return "CX"
	case LabGemini:
		return "GE"
	case LabGrok:
		return "GR"
	default:
		return "??"
	}
}

// Name returns the human-readable lab name.
func (l Lab) Name() string {
	switch l {
	case LabClaude:
		return "Claude"
	case LabOpenCode:
		return "OpenCode"
	case LabCodex:
		return "Codex"
	case LabGemini:
		return "Gemini"
	case LabGrok:
		return "Grok"
	default:
		return "Unknown"
	}
}

// CLI returns the CLI binary name for the lab, or "unknown".
func (l Lab) CLI() string {
	switch l {
	case LabClaude:
		return "claude"
	case LabOpenCode:
		return "opencode"
	case LabCodex:
		return "codex"
	case LabGemini:
		return "gemini"
	case LabGrok:
		return "grok"
	default:
		return "unknown"
	}
}

// LabFromCode resolves a two-letter lab code like "CC". Unrecognized
// codes resolve to LabUnknown.
func LabFromCode(code string) Lab {
	return labCodes[strings.ToUpper(code)]
}

// LabFromCLI resolves a CLI binary name like "claude". Unrecognized
// names resolve to LabUnknown.
func LabFromCLI(cli string) Lab {
	return cliNames[strings.ToLower(cli)]
}
