package grammar

import "embed"

// builtinRulesFS embeds the built-in directive rules.
//
//go:embed rules/*.yml
var builtinRulesFS embed.FS
