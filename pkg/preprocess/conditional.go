package preprocess

import (
	"regexp"
	"strings"
)

var (
	ifdefOpenRe = regexp.MustCompile(`(IFN?DEF)\(([A-Z_]+)\)\s*\{\{`)
	elseOpenRe  = regexp.MustCompile(`^\s*ELSE\s*\{\{`)
)

// ResolveConditionals replaces every IFDEF/IFNDEF form in src with its
// selected branch. IFDEF selects the if-branch when the name is defined in
// params, the else-branch (or nothing) otherwise; IFNDEF inverts the test.
// The selected branch content is trimmed of surrounding whitespace.
//
// Forms carrying an ELSE branch resolve in a first pass, bare forms in a
// second, matching the grammar's two-pass order. Conditionals nested inside
// a branch are opaque to the block reader and surface on a later iteration,
// after the outer form has been spliced.
func ResolveConditionals(src string, params Params) (string, error) {
	out, err := resolveConditionalPass(src, params, true)
	if err != nil {
		return "", err
	}
	return resolveConditionalPass(out, params, false)
}

func resolveConditionalPass(src string, params Params, requireElse bool) (string, error) {
	for {
		replaced := false
		searchFrom := 0
		for searchFrom < len(src) {
			loc := ifdefOpenRe.FindStringSubmatchIndex(src[searchFrom:])
			if loc == nil {
				break
			}
			start := searchFrom + loc[0]
			cond := src[searchFrom+loc[2] : searchFrom+loc[3]]
			name := src[searchFrom+loc[4] : searchFrom+loc[5]]

			ifBlock, err := ReadBlock(start, src)
			if err != nil {
				return "", err
			}

			var elseBlock Block
			hasElse := false
			if elseOpenRe.MatchString(src[ifBlock.End:]) {
				elseBlock, err = ReadBlock(ifBlock.End, src)
				if err != nil {
					return "", err
				}
				hasElse = true
			}
			if requireElse && !hasElse {
				searchFrom = ifBlock.End
				continue
			}

			defined := params.Has(name)
			var repl string
			if (cond == "IFDEF" && defined) || (cond == "IFNDEF" && !defined) {
				repl = strings.TrimSpace(ifBlock.Contents(src))
			} else if hasElse {
				repl = strings.TrimSpace(elseBlock.Contents(src))
			}

			end := ifBlock.End
			if hasElse {
				end = elseBlock.End
			}
			src = src[:start] + repl + src[end:]
			replaced = true
			break
		}
		if !replaced {
			return src, nil
		}
	}
}
