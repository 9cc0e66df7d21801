package preprocess

import (
	"regexp"
	"strings"
)

// MatchKind identifies which macro form won at a position. The constant
// order is the priority order tried when several forms could match at the
// same offset.
type MatchKind int

const (
	MatchKwargInclude MatchKind = iota
	MatchCustomTag
	MatchFunction
	MatchInclude
	MatchRaw
)

// Match is one recognized macro occurrence: the matched span plus the
// captured target name and raw argument text. For MatchRaw the Target holds
// the passthrough text itself.
type Match struct {
	Kind       MatchKind
	Start, End int
	Target     string
	Args       string
}

// Character classes shared by the macro grammar. fullChars covers anything
// that can appear in a path, URL, or bare argument value.
const (
	identChars = `[a-zA-Z0-9_]`
	fullChars  = `[a-zA-Z0-9_.:@/\-]`

	// One key=value term: bare token, double-quoted, single-quoted, or
	// pipe-delimited value. Quoted and piped values may contain commas.
	kwargArg = identChars + `+\s*=\s*(?:` + fullChars + `+|"[^"]*"|'[^']*'|\|[^|]*\|)`
)

var (
	// path(k1=v1, k2=v2, ...) with at least one argument. Empty parens
	// dispatch through the function form instead, so registry functions
	// written as name() still resolve and name() with no registry entry
	// degrades into an include of name.
	kwargIncludeRe = regexp.MustCompile(
		`^\{\{\s*(` + fullChars + `+)\(\s*((?:` + kwargArg + `)(?:\s*,\s*(?:` + kwargArg + `))*)\s*,?\s*\)\s*\}\}`)

	// name(args) where args carries no key=value terms. The name class is
	// wide enough for include paths, so path() forms fall through the
	// registry into the include fallback.
	functionRe = regexp.MustCompile(`^\{\{\s*(` + fullChars + `+)\(([^(){}]*)\)\s*\}\}`)

	// A bare include path.
	includeRe = regexp.MustCompile(`^\{\{\s*(` + fullChars + `+)\s*\}\}`)

	// Brace-free text passed through with its delimiters stripped.
	rawRe = regexp.MustCompile(`^\{\{\s*([^{}]+?)\s*\}\}`)

	// A capitalized pseudo-tag, e.g. <FormField type="file">, </FormField>,
	// or the self-closing <Widget />. The leading capital distinguishes
	// component tags from ordinary HTML elements.
	customTagRe = regexp.MustCompile(
		`<\s*(/?[A-Z]` + identChars + `+)((?:\s+(?:` + kwargArg + `))*)\s*/?>`)
)

// findMatch returns the leftmost macro occurrence in src. The braced forms
// and the custom-tag form are located independently and whichever starts
// first wins; at a single opening delimiter the braced alternatives are
// tried in priority order. An opening delimiter matching no form is skipped
// so a stray {{ never wedges the scan.
func findMatch(src string) (Match, bool) {
	braced, bracedOK := findBraced(src)
	tag, tagOK := findTag(src)
	switch {
	case bracedOK && tagOK:
		if tag.Start < braced.Start {
			return tag, true
		}
		return braced, true
	case bracedOK:
		return braced, true
	case tagOK:
		return tag, true
	}
	return Match{}, false
}

func findBraced(src string) (Match, bool) {
	from := 0
	for {
		i := strings.Index(src[from:], "{{")
		if i < 0 {
			return Match{}, false
		}
		at := from + i
		rest := src[at:]

		if loc := kwargIncludeRe.FindStringSubmatchIndex(rest); loc != nil {
			return Match{
				Kind:   MatchKwargInclude,
				Start:  at,
				End:    at + loc[1],
				Target: rest[loc[2]:loc[3]],
				Args:   rest[loc[4]:loc[5]],
			}, true
		}
		if loc := functionRe.FindStringSubmatchIndex(rest); loc != nil {
			return Match{
				Kind:   MatchFunction,
				Start:  at,
				End:    at + loc[1],
				Target: rest[loc[2]:loc[3]],
				Args:   rest[loc[4]:loc[5]],
			}, true
		}
		if loc := includeRe.FindStringSubmatchIndex(rest); loc != nil {
			return Match{
				Kind:   MatchInclude,
				Start:  at,
				End:    at + loc[1],
				Target: rest[loc[2]:loc[3]],
			}, true
		}
		if loc := rawRe.FindStringSubmatchIndex(rest); loc != nil {
			return Match{
				Kind:   MatchRaw,
				Start:  at,
				End:    at + loc[1],
				Target: rest[loc[2]:loc[3]],
			}, true
		}

		from = at + 2
	}
}

func findTag(src string) (Match, bool) {
	loc := customTagRe.FindStringSubmatchIndex(src)
	if loc == nil {
		return Match{}, false
	}
	return Match{
		Kind:   MatchCustomTag,
		Start:  loc[0],
		End:    loc[1],
		Target: src[loc[2]:loc[3]],
		Args:   strings.TrimSpace(src[loc[4]:loc[5]]),
	}, true
}
