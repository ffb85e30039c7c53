package main

import _ "embed"

//go:embed assets/skills/codegraph-explore/SKILL.md
var skillExplore string

//go:embed assets/skills/codegraph-indexing/SKILL.md
var skillIndexing string

//go:embed assets/codex-instructions.md
var codexInstructions string

// skillFiles maps skill directory name to embedded content.
var skillFiles = map[string]string{
	"codegraph-explore":  skillExplore,
	"codegraph-indexing": skillIndexing,
}
