package worker

import (
	"path/filepath"

	"hearthd/internal/common/fsutil"
)

// grammarFiles maps writing modes to their structural constraint files,
// resolved relative to the configured grammars directory.
var grammarFiles = map[string]string{
	"screenplay":    "screenplay.gbnf",
	"comic":         "comic.gbnf",
	"playwright":    "playwright.gbnf",
	"lexile_simple": "lexile_simple.gbnf",
}

// resolveGrammar picks the grammar file for a mode, honoring an explicit
// override path. A missing or unreadable file degrades to unconstrained
// generation with a logged warning; it is never fatal.
func (r *Runner) resolveGrammar(mode, override string) string {
	path := override
	if path == "" {
		if f, ok := grammarFiles[mode]; ok && r.cfg.GrammarsDir != "" {
			path = filepath.Join(r.cfg.GrammarsDir, f)
		}
	}
	if path == "" {
		return ""
	}
	if !fsutil.PathExists(path) {
		r.log.Warn().Str("grammar", path).Msg("grammar unavailable, generating unconstrained")
		return ""
	}
	return path
}
