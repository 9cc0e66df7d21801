package preprocess

import (
	"errors"
	"testing"
)

func TestEvalPreamble_Set(t *testing.T) {
	params := Params{}
	out, err := EvalPreamble(`PREAMBLE {{ set VAR = "val" }} body`, params)
	if err != nil {
		t.Fatalf("EvalPreamble failed: %v", err)
	}
	if params["VAR"] != "val" {
		t.Errorf("expected VAR to be set to %q, got %q", "val", params["VAR"])
	}
	if out != "body" {
		t.Errorf("expected preamble block removed and output trimmed, got %q", out)
	}
}

func TestEvalPreamble_Absent(t *testing.T) {
	src := "just a document"
	out, err := EvalPreamble(src, Params{})
	if err != nil {
		t.Fatalf("EvalPreamble failed: %v", err)
	}
	if out != src {
		t.Errorf("document without a preamble should pass through unchanged, got %q", out)
	}
}

func TestEvalPreamble_Statements(t *testing.T) {
	params := Params{"KEPT": "original"}
	script := "PREAMBLE {{\n" +
		"# defaults only fill gaps\n" +
		"default KEPT = replaced\n" +
		"default TITLE = Untitled; set mode = |a, b|\n" +
		"set GONE = x\n" +
		"unset GONE\n" +
		"require TITLE\n" +
		"}}"
	if _, err := EvalPreamble(script, params); err != nil {
		t.Fatalf("EvalPreamble failed: %v", err)
	}
	if params["KEPT"] != "original" {
		t.Errorf("default must not replace an existing value, got %q", params["KEPT"])
	}
	if params["TITLE"] != "Untitled" {
		t.Errorf("default should set a missing value, got %q", params["TITLE"])
	}
	if params["MODE"] != "a, b" {
		t.Errorf("set should uppercase the key and strip pipes, got %q", params["MODE"])
	}
	if params.Has("GONE") {
		t.Error("unset should remove the parameter")
	}
}

func TestEvalPreamble_RequireMissing(t *testing.T) {
	var pErr *PreambleError
	_, err := EvalPreamble("PREAMBLE {{ require TITLE }}", Params{})
	if !errors.As(err, &pErr) {
		t.Fatalf("expected PreambleError for unmet require, got %v", err)
	}
}

func TestEvalPreamble_UnknownStatement(t *testing.T) {
	var pErr *PreambleError
	_, err := EvalPreamble("PREAMBLE {{ exec rm -rf / }}", Params{})
	if !errors.As(err, &pErr) {
		t.Fatalf("expected PreambleError for unknown statement, got %v", err)
	}
}
