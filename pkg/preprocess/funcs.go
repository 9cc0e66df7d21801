package preprocess

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"
)

// SubstFunc is one named operation callable from a {{ name(args) }} form.
// Arguments arrive as positional strings, already split on commas. The
// depth is the include depth of the document the call appeared in, so
// functions that expand further includes stay under the recursion ceiling.
type SubstFunc func(args []string, depth int) (string, error)

// makeFuncMap builds the fixed function registry.
func (e *Engine) makeFuncMap() map[string]SubstFunc {
	return map[string]SubstFunc{
		"stylesheet":     e.stylesheet,
		"javascript":     e.javascript,
		"constant":       e.constant,
		"unique_string":  e.uniqueString,
		"bootstrap_icon": e.bootstrapIcon,
	}
}

// splitFunctionArgs splits positional arguments on commas, dropping empty
// entries so name() yields no arguments.
func splitFunctionArgs(argText string) []string {
	var args []string
	for _, a := range strings.Split(argText, ",") {
		if a = strings.TrimSpace(a); a != "" {
			args = append(args, a)
		}
	}
	return args
}

func oneArg(name string, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%s expects exactly one argument, got %d", name, len(args))
	}
	return args[0], nil
}

// stylesheet inlines a local stylesheet in a <style> element, or rehosts a
// remote one and links to the local copy.
func (e *Engine) stylesheet(args []string, depth int) (string, error) {
	resource, err := oneArg("stylesheet", args)
	if err != nil {
		return "", err
	}
	if IsURL(resource) {
		href, err := e.rehost(resource)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(`<link rel="stylesheet" href=%q>`, href), nil
	}
	content, err := e.loadProcessed(resource, depth)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("<style>%s</style>", content), nil
}

// javascript inlines a local script in a <script> element, or rehosts a
// remote one and references the local copy.
func (e *Engine) javascript(args []string, depth int) (string, error) {
	resource, err := oneArg("javascript", args)
	if err != nil {
		return "", err
	}
	if IsURL(resource) {
		href, err := e.rehost(resource)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(`<script src=%q></script>`, href), nil
	}
	content, err := e.loadProcessed(resource, depth)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("<script>%s</script>", content), nil
}

// constant looks a name up in the constant table.
func (e *Engine) constant(args []string, _ int) (string, error) {
	name, err := oneArg("constant", args)
	if err != nil {
		return "", err
	}
	return e.constants.Get(name)
}

// uniqueString returns a short uppercase token for generated ids. The first
// character is never a digit, so the token is usable wherever an identifier
// is required.
func (e *Engine) uniqueString(args []string, _ int) (string, error) {
	if len(args) != 0 {
		return "", fmt.Errorf("unique_string expects no arguments, got %d", len(args))
	}
	for {
		s := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
		if s[0] < '0' || s[0] > '9' {
			return s, nil
		}
	}
}

// bootstrapIcon fetches (and caches) a named SVG icon from the configured
// icon URL template and inlines its markup.
func (e *Engine) bootstrapIcon(args []string, _ int) (string, error) {
	name, err := oneArg("bootstrap_icon", args)
	if err != nil {
		return "", err
	}
	return e.loader.FetchURL(fmt.Sprintf(e.config.IconURLTemplate, name+".svg"))
}

// rehost copies a fetched asset into the output directory, named by the
// last path segment of its source URL, and returns the local path to
// reference it by.
func (e *Engine) rehost(url string) (string, error) {
	data, err := e.loader.Resource(url)
	if err != nil {
		return "", err
	}
	href, err := FilenameFromURL(url)
	if err != nil {
		return "", err
	}
	if err = atomic.WriteFile(filepath.Join(e.outputDir, href), strings.NewReader(data)); err != nil {
		return "", fmt.Errorf("failed to rehost %s: %w", url, err)
	}
	return "/" + href, nil
}

// loadProcessed loads an include and runs the full engine over it, so
// inlined stylesheets and scripts may use macros of their own.
func (e *Engine) loadProcessed(name string, depth int) (string, error) {
	content, err := e.loader.Include(name)
	if err != nil {
		return "", err
	}
	out, err := e.process(content, depth+1)
	return out, tagCycle(err, name)
}
