package preprocess

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	preambleAssignRe = regexp.MustCompile(`^(set|default)\s+([A-Za-z_][A-Za-z0-9_]*)\s*=\s*(.+)$`)
	preambleNameRe   = regexp.MustCompile(`^(unset|require)\s+([A-Za-z_][A-Za-z0-9_]*)$`)
)

// EvalPreamble looks for a PREAMBLE {{ ... }} block, executes its script
// against params, and returns the document with the block removed and the
// surrounding whitespace trimmed. A document without a preamble is returned
// unchanged.
//
// The script is not host code. It is a fixed statement language that can
// only read and write the parameter set, separated by newlines or
// semicolons, with #-prefixed comment lines:
//
//	set NAME = value      assign; the value may be quoted with ", ' or |
//	default NAME = value  assign only when NAME is not already defined
//	unset NAME            remove NAME
//	require NAME          fail unless NAME is defined
//
// Names are normalized to uppercase like parsed arguments. Any statement
// failure is a PreambleError, which aborts the page build.
func EvalPreamble(src string, params Params) (string, error) {
	block, err := ReadIdentifierBlock("PREAMBLE", src)
	if err != nil {
		if errors.Is(err, ErrMissingIdentifier) {
			return src, nil
		}
		return "", err
	}
	for _, stmt := range splitStatements(block.Contents(src)) {
		if err := evalStatement(stmt, params); err != nil {
			return "", err
		}
	}
	return strings.TrimSpace(src[:block.Start] + src[block.End:]), nil
}

func splitStatements(script string) []string {
	var stmts []string
	for _, line := range strings.FieldsFunc(script, func(r rune) bool { return r == '\n' || r == ';' }) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		stmts = append(stmts, line)
	}
	return stmts
}

func evalStatement(stmt string, params Params) error {
	if m := preambleAssignRe.FindStringSubmatch(stmt); m != nil {
		name := strings.ToUpper(m[2])
		if m[1] == "default" && params.Has(name) {
			return nil
		}
		params[name] = unquote(strings.TrimSpace(m[3]))
		return nil
	}
	if m := preambleNameRe.FindStringSubmatch(stmt); m != nil {
		name := strings.ToUpper(m[2])
		switch m[1] {
		case "unset":
			delete(params, name)
		case "require":
			if !params.Has(name) {
				return &PreambleError{Stmt: stmt, Reason: fmt.Sprintf("required parameter %s is not set", name)}
			}
		}
		return nil
	}
	return &PreambleError{Stmt: stmt, Reason: "unrecognized statement"}
}
