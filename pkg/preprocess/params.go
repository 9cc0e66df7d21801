package preprocess

import (
	"regexp"
	"strings"
)

// Params is the parameter set for one parameterized-include expansion,
// mapping uppercase names to already-unquoted values. A Params is created
// per invocation, optionally mutated by a PREAMBLE script, consumed by the
// conditional resolver and placeholder substitution, and then discarded.
// It is never shared across expansions.
type Params map[string]string

var (
	kwargArgRe   = regexp.MustCompile(kwargArg)
	kwargSplitRe = regexp.MustCompile(`\s*=\s*`)
)

// ParseArgs tokenizes a comma-separated key=value argument list into a
// Params map. Keys are normalized to uppercase and one layer of quote or
// pipe delimiters is stripped from values. Terms that do not parse as
// key=value are dropped rather than rejected.
func ParseArgs(args string) Params {
	params := make(Params)
	for _, term := range kwargArgRe.FindAllString(strings.TrimSpace(args), -1) {
		kv := kwargSplitRe.Split(term, 2)
		if len(kv) != 2 {
			continue
		}
		params[strings.ToUpper(kv[0])] = unquote(kv[1])
	}
	return params
}

// Has reports whether name is defined, the membership test IFDEF uses.
func (p Params) Has(name string) bool {
	_, ok := p[name]
	return ok
}

// unquote strips one layer of surrounding ", ' or | delimiters.
func unquote(s string) string {
	if len(s) >= 2 && strings.ContainsRune(`"'|`, rune(s[0])) {
		return s[1 : len(s)-1]
	}
	return s
}
