package preprocess

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func writeConstants(tb testing.TB, content string) *Constants {
	tb.Helper()
	path := filepath.Join(tb.TempDir(), "constants.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		tb.Fatalf("failed to write constants file: %v", err)
	}
	constants, err := LoadConstants(path)
	if err != nil {
		tb.Fatalf("LoadConstants failed: %v", err)
	}
	return constants
}

func TestStylesheet_LocalInline(t *testing.T) {
	e, _ := setupTestEngine(t, map[string]string{
		"theme.css": "body { margin: 0 }",
	})
	want := "<style>body { margin: 0 }</style>"
	if got := process(t, e, "{{ stylesheet(theme.css) }}"); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestStylesheet_RemoteRehosted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("h1 { color: blue }"))
	}))
	defer srv.Close()

	e, outputDir := setupTestEngineWith(t, nil, DefaultEngineConfig(), nil, srv.Client())
	src := fmt.Sprintf("{{ stylesheet(%s/assets/theme.css) }}", srv.URL)
	if got := process(t, e, src); got != `<link rel="stylesheet" href="/theme.css">` {
		t.Errorf("got %q", got)
	}

	hosted, err := os.ReadFile(filepath.Join(outputDir, "theme.css"))
	if err != nil {
		t.Fatalf("rehosted asset missing: %v", err)
	}
	if string(hosted) != "h1 { color: blue }" {
		t.Errorf("rehosted content: got %q", hosted)
	}
}

func TestJavascript_LocalInline(t *testing.T) {
	e, _ := setupTestEngine(t, map[string]string{
		"app.js": "console.log(1)",
	})
	want := "<script>console.log(1)</script>"
	if got := process(t, e, "{{ javascript(app.js) }}"); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestJavascript_RemoteRehosted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("window.x = 1"))
	}))
	defer srv.Close()

	e, outputDir := setupTestEngineWith(t, nil, DefaultEngineConfig(), nil, srv.Client())
	src := fmt.Sprintf("{{ javascript(%s/lib/app.js) }}", srv.URL)
	if got := process(t, e, src); got != `<script src="/app.js"></script>` {
		t.Errorf("got %q", got)
	}
	if _, err := os.Stat(filepath.Join(outputDir, "app.js")); err != nil {
		t.Errorf("rehosted script missing: %v", err)
	}
}

func TestInlinedResourcesAreProcessed(t *testing.T) {
	e, _ := setupTestEngine(t, map[string]string{
		"theme.css": "h1 { {{ rule }} }",
		"rule.html": "color: red",
	})
	if got := process(t, e, "{{ stylesheet(theme.css) }}"); got != "<style>h1 { color: red }</style>" {
		t.Errorf("stylesheet macro expansion: got %q", got)
	}
}

func TestConstant(t *testing.T) {
	constants := writeConstants(t, `{"SITE_NAME": "Example", "MAX_ITEMS": 25}`)
	e, _ := setupTestEngineWith(t, nil, DefaultEngineConfig(), constants, nil)

	if got := process(t, e, "{{ constant(SITE_NAME) }}"); got != "Example" {
		t.Errorf("string constant: got %q", got)
	}
	if got := process(t, e, "{{ constant(MAX_ITEMS) }}"); got != "25" {
		t.Errorf("integer constant: got %q", got)
	}

	var missing *MissingConstantError
	if _, err := e.Process("{{ constant(UNKNOWN) }}"); !errors.As(err, &missing) {
		t.Fatalf("expected MissingConstantError, got %v", err)
	}
}

func TestConstant_NoTable(t *testing.T) {
	e, _ := setupTestEngine(t, nil)
	var missing *MissingConstantError
	if _, err := e.Process("{{ constant(ANY) }}"); !errors.As(err, &missing) {
		t.Fatalf("every lookup on a nil table should miss, got %v", err)
	}
}

func TestLoadConstants_RejectsNonScalars(t *testing.T) {
	path := filepath.Join(t.TempDir(), "constants.json")
	if err := os.WriteFile(path, []byte(`{"NESTED": {"a": 1}}`), 0644); err != nil {
		t.Fatalf("failed to write constants file: %v", err)
	}
	if _, err := LoadConstants(path); err == nil {
		t.Fatal("expected an error for a non-scalar constant value")
	}
}

func TestUniqueString(t *testing.T) {
	e, _ := setupTestEngine(t, nil)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		s := process(t, e, "{{ unique_string() }}")
		if len(s) != 8 {
			t.Fatalf("expected 8 characters, got %q", s)
		}
		if s[0] >= '0' && s[0] <= '9' {
			t.Fatalf("token must not start with a digit, got %q", s)
		}
		for _, c := range s {
			if !(c >= '0' && c <= '9' || c >= 'A' && c <= 'F') {
				t.Fatalf("expected uppercase hex characters, got %q", s)
			}
		}
		seen[s] = true
	}
	if len(seen) < 2 {
		t.Error("successive tokens should differ")
	}

	if _, err := e.Process("{{ unique_string(extra) }}"); err == nil {
		t.Error("expected an argument-count error")
	}
}

func TestBootstrapIcon(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/assets/icons/house.svg" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("<svg>house</svg>"))
	}))
	defer srv.Close()

	config := DefaultEngineConfig()
	config.IconURLTemplate = srv.URL + "/assets/icons/%s"
	e, _ := setupTestEngineWith(t, nil, config, nil, srv.Client())

	if got := process(t, e, "{{ bootstrap_icon(house) }}"); got != "<svg>house</svg>" {
		t.Errorf("got %q", got)
	}

	var fetch *ResourceFetchError
	if _, err := e.Process("{{ bootstrap_icon(unknown) }}"); !errors.As(err, &fetch) {
		t.Fatalf("expected ResourceFetchError for an unknown icon, got %v", err)
	}
}

func TestSplitFunctionArgs(t *testing.T) {
	if args := splitFunctionArgs(""); len(args) != 0 {
		t.Errorf("empty parens should yield no arguments, got %v", args)
	}
	args := splitFunctionArgs(" a , b ,, c ")
	want := []string{"a", "b", "c"}
	if len(args) != len(want) {
		t.Fatalf("got %v, want %v", args, want)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("arg %d: got %q, want %q", i, args[i], want[i])
		}
	}
}
