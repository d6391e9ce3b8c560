package snapcore

import "regexp"

// variableRule rewrites one class of volatile key fragment to "#".
type variableRule struct {
	re   *regexp.Regexp
	repl string
}

// Rules run in order: the specific session-blob and hash patterns must fire
// before the generic digit rule swallows their matches. RE2 has no
// lookbehind, so the session rules keep their prefix via a capture group.
var variableRules = []variableRule{
	// Session keys for the "cache" session storage mode.
	{regexp.MustCompile(`(sessions\.cache)[0-9a-z]{32}\b`), "${1}#"},
	// Session keys for the "cached_db" session storage mode.
	{regexp.MustCompile(`(sessions\.cached_db)[0-9a-z]{32}\b`), "${1}#"},
	// Long random hashes.
	{regexp.MustCompile(`\b[0-9a-f]{32}\b`), "#"},
	// UUIDs.
	{regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`), "#"},
	// Integers.
	{regexp.MustCompile(`\d+`), "#"},
}

// CleanKey replaces fragments that look like variables (hashes, UUIDs,
// numeric ids) with '#' so recordings stay stable across runs. It is pure
// and idempotent.
func CleanKey(key string) string {
	for _, rule := range variableRules {
		key = rule.re.ReplaceAllString(key, rule.repl)
	}
	return key
}
