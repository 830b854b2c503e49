package domain

import "strings"

// AgentID is a parsed swarm agent identifier. Two forms exist in the wild:
//
//	CC-architect           (lab code, dash, role)
//	darwin-claude-backend  (darwin prefix, CLI name, role)
//
// Anything else parses with LabUnknown and the full string as the role.
type AgentID struct {
	Raw  string
	Lab  Lab
	Role string
}

// ParseAgentID parses an agent identifier into its lab and role.
func ParseAgentID(s string) AgentID {
	id := AgentID{Raw: s, Lab: LabUnknown, Role: s}

	if rest, ok := strings.CutPrefix(s, "darwin-"); ok {
		cli, role, found := strings.Cut(rest, "-")
		if found {
			id.Lab = LabFromCLI(cli)
			id.Role = role
		} else {
			id.Lab = LabFromCLI(rest)
			id.Role = ""
		}
		return id
	}

	code, role, found := strings.Cut(s, "-")
	if found {
		if lab := LabFromCode(code); lab != LabUnknown {
			id.Lab = lab
			id.Role = role
		}
	}
	return id
}

// GenomeCLI infers the CLI name from a genome file stem like
// "claude_architect". Prefixes outside the known CLI set yield "unknown".
func GenomeCLI(name string) string {
	cli, _, found := strings.Cut(name, "_")
	if !found {
		return "unknown"
	}
	if LabFromCLI(cli) == LabUnknown {
		return "unknown"
	}
	return strings.ToLower(cli)
}

// GenomeRole extracts the role part of a genome file stem like
// "claude_architect". Stems without an underscore have no role.
func GenomeRole(name string) string {
	_, role, found := strings.Cut(name, "_")
	if !found {
		return ""
	}
	return role
}

// AgentIDForGenome reconstructs the agent ID a genome spawns under:
// lab code plus role, e.g. "claude_architect" -> "CC-architect".
// Genomes with an unknown CLI or no role reconstruct to "".
func AgentIDForGenome(name string) string {
	lab := LabFromCLI(GenomeCLI(name))
	role := GenomeRole(name)
	if lab == LabUnknown || role == "" {
		return ""
	}
	return lab.Code() + "-" + role
}
