package preprocess

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"unicode"
)

// Engine is the substitution orchestrator. It owns the resource loader, the
// constant table, and the function registry, and drives every document
// through the macro grammar to a fixed point.
//
// All methods are safe for concurrent use across pages: per-expansion state
// (parameter sets, block scans) lives on the stack of a Process call, and
// the loader's cache tolerates concurrent writers.
type Engine struct {
	logger    *slog.Logger
	config    *EngineConfig
	loader    *Loader
	constants *Constants
	outputDir string
	funcs     map[string]SubstFunc
}

// New creates an Engine over an include tree. constants may be nil when the
// build has no constant table; any constant lookup then fails as missing.
// client may be nil to use http.DefaultClient.
func New(logger *slog.Logger, config *EngineConfig, constants *Constants, includeDir, outputDir string, client *http.Client) *Engine {
	e := &Engine{
		logger:    logger,
		config:    config,
		loader:    NewLoader(logger, includeDir, config.DefaultExtension, client),
		constants: constants,
		outputDir: outputDir,
	}
	e.funcs = e.makeFuncMap()
	return e
}

// Process expands every macro form in src and returns the final text. Each
// iteration replaces the leftmost occurrence of any form and rescans from
// the top, so earlier-appearing macros always resolve first and text
// introduced by a replacement is revisited.
func (e *Engine) Process(src string) (string, error) {
	return e.process(src, 0)
}

func (e *Engine) process(src string, depth int) (string, error) {
	if depth > e.config.MaxIncludeDepth {
		return "", &CyclicIncludeError{Depth: depth}
	}
	for {
		m, ok := findMatch(src)
		if !ok {
			return src, nil
		}
		repl, err := e.resolve(m, depth)
		if err != nil {
			return "", err
		}
		src = src[:m.Start] + repl + src[m.End:]
	}
}

// resolve produces the replacement text for one match.
func (e *Engine) resolve(m Match, depth int) (string, error) {
	switch m.Kind {
	case MatchKwargInclude:
		return e.expandInclude(m.Target, m.Args, depth)
	case MatchCustomTag:
		return e.expandTag(m.Target, m.Args, depth)
	case MatchFunction:
		return e.callFunction(m.Target, m.Args, depth)
	case MatchInclude:
		content, err := e.loader.Include(m.Target)
		if err != nil {
			return "", err
		}
		out, err := e.process(content, depth+1)
		return out, tagCycle(err, m.Target)
	case MatchRaw:
		return m.Target, nil
	}
	return "", fmt.Errorf("unhandled match kind %d", m.Kind)
}

var placeholderRe = regexp.MustCompile(`\{\{\s*([A-Z_]+)\s*\}\}`)

// expandInclude resolves a parameterized include: load the target's raw
// content, then run the parameter pipeline over it.
func (e *Engine) expandInclude(target, argText string, depth int) (string, error) {
	raw, err := e.loader.Include(target)
	if err != nil {
		return "", err
	}
	out, err := e.applyParams(raw, ParseArgs(argText), depth)
	return out, tagCycle(err, target)
}

// applyParams runs the include pipeline over raw content: preamble, then
// conditionals, then bare {{ KEY }} placeholders (a missing key is empty
// text, never an error), then a full engine pass over the result so the
// include may contain further macros.
func (e *Engine) applyParams(raw string, params Params, depth int) (string, error) {
	out, err := EvalPreamble(raw, params)
	if err != nil {
		return "", err
	}
	out, err = ResolveConditionals(out, params)
	if err != nil {
		return "", err
	}
	out = placeholderRe.ReplaceAllStringFunc(out, func(ph string) string {
		return params[placeholderRe.FindStringSubmatch(ph)[1]]
	})
	return e.process(out, depth+1)
}

// expandTag translates a capitalized pseudo-tag into a parameterized
// include. A closing tag </Name> asks for the NameEnd component. The
// camel-cased name is split into lowercase segments and three candidate
// targets are tried in order: the path form, the path's explicit start
// block, and the flat snake form. The tag's attributes become the
// parameter set of whichever candidate exists.
func (e *Engine) expandTag(tag, argText string, depth int) (string, error) {
	name := tag
	if strings.HasPrefix(name, "/") {
		name = name[1:] + "End"
	}

	segments := splitCamel(name)
	path := strings.Join(segments, "/")
	candidates := []string{path, path + "/start", strings.Join(segments, "_")}

	for _, candidate := range candidates {
		raw, err := e.loader.Include(candidate)
		if err != nil {
			continue
		}
		out, err := e.applyParams(raw, ParseArgs(argText), depth)
		return out, tagCycle(err, candidate)
	}
	return "", &MissingIncludeError{
		Name: fmt.Sprintf("<%s> (tried %s)", tag, strings.Join(candidates, ", ")),
	}
}

// callFunction dispatches a name(args) form. An unknown name degrades into
// a parameterized include of the same name; only when that include is also
// missing does the call fail as a missing function.
func (e *Engine) callFunction(name, argText string, depth int) (string, error) {
	if fn, ok := e.funcs[name]; ok {
		return fn(splitFunctionArgs(argText), depth)
	}
	out, err := e.expandInclude(name, argText, depth)
	var missing *MissingIncludeError
	if errors.As(err, &missing) {
		return "", &MissingFunctionError{Name: name}
	}
	return out, err
}

// splitCamel breaks a camel-cased component name into lowercase segments,
// e.g. FormField into ["form", "field"].
func splitCamel(name string) []string {
	var parts []string
	var part strings.Builder
	for _, c := range name {
		if unicode.IsUpper(c) {
			if part.Len() > 0 {
				parts = append(parts, part.String())
			}
			part.Reset()
			part.WriteRune(unicode.ToLower(c))
		} else {
			part.WriteRune(c)
		}
	}
	if part.Len() > 0 {
		parts = append(parts, part.String())
	}
	return parts
}

// tagCycle attaches the include name to a depth-ceiling failure so the
// error points at the file that recursed.
func tagCycle(err error, name string) error {
	var cyc *CyclicIncludeError
	if errors.As(err, &cyc) && cyc.Name == "" {
		cyc.Name = name
	}
	return err
}

// HasUnresolved reports whether expanded output still contains the opening
// macro delimiter, which usually means a substitution quietly failed.
func HasUnresolved(out string) bool {
	return strings.Contains(out, "{{")
}
