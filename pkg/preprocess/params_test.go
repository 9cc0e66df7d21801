package preprocess

import "testing"

func TestParseArgs(t *testing.T) {
	params := ParseArgs(`a=1, b="two words", c='x,y', d=|quo"te|`)

	want := map[string]string{
		"A": "1",
		"B": "two words",
		"C": "x,y",
		"D": `quo"te`,
	}
	if len(params) != len(want) {
		t.Fatalf("expected %d params, got %d: %v", len(want), len(params), params)
	}
	for k, v := range want {
		if params[k] != v {
			t.Errorf("param %s: got %q, want %q", k, params[k], v)
		}
	}
}

func TestParseArgs_KeysUppercased(t *testing.T) {
	params := ParseArgs("lower=x, MiXeD=y")
	if !params.Has("LOWER") || !params.Has("MIXED") {
		t.Errorf("keys should be normalized to uppercase, got %v", params)
	}
}

func TestParseArgs_MalformedTermsDropped(t *testing.T) {
	params := ParseArgs("nonsense with spaces, e=5")
	if len(params) != 1 || params["E"] != "5" {
		t.Errorf("expected only E=5 to survive, got %v", params)
	}
}

func TestParseArgs_Empty(t *testing.T) {
	if params := ParseArgs(""); len(params) != 0 {
		t.Errorf("expected no params, got %v", params)
	}
}

func TestUnquote(t *testing.T) {
	cases := map[string]string{
		`"quoted"`: "quoted",
		`'single'`: "single",
		`|piped|`:  "piped",
		`bare`:     "bare",
	}
	for in, want := range cases {
		if got := unquote(in); got != want {
			t.Errorf("unquote(%q): got %q, want %q", in, got, want)
		}
	}
}
