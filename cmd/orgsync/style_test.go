package main

import (
	"strings"
	"testing"
)

func TestStyleDiff_EmptyInputStaysEmpty(t *testing.T) {
	if got := styleDiff(""); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}

func TestStyleDiff_PreservesLineContent(t *testing.T) {
	input := "+ team rust-lang/compiler\n    description: \"x\"\n~ team rust-lang/infra\n- team rust-lang/old\n"
	got := styleDiff(input)

	for _, want := range []string{"team rust-lang/compiler", "team rust-lang/infra", "team rust-lang/old", "description"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected styled output to contain %q, got %q", want, got)
		}
	}
}
