package util

import (
	"reflect"
	"testing"
)

func TestNormalizeName(t *testing.T) {
	cases := map[string]string{
		"Café  «Molido» 2×3": "CAFE MOLIDO 2X3",
		"  jabón   de avena ": "JABON DE AVENA",
		"Tapete 2*3 m²":      "TAPETE 2X3 M2",
		"":                   "",
	}
	for in, want := range cases {
		if got := NormalizeName(in); got != want {
			t.Fatalf("NormalizeName(%q)=%q want %q", in, got, want)
		}
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("a Café x2")
	if !reflect.DeepEqual(got, []string{"CAFE", "X2"}) {
		t.Fatalf("tokens=%v", got)
	}
}

func TestDiceCoefficient(t *testing.T) {
	if got := DiceCoefficient("night", "nacht"); got != 0.25 {
		t.Fatalf("dice=%v", got)
	}
	if DiceCoefficient("vela", "vela") != 1 || DiceCoefficient("", "vela") != 0 || DiceCoefficient("a", "b") != 0 {
		t.Fatal("edge cases")
	}
}

func TestSplitLinesAndFirstNonEmpty(t *testing.T) {
	if got := SplitLines("a\r\n\n  b  \n"); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("lines=%v", got)
	}
	if got := FirstNonEmpty("", "  ", " x "); got != "x" {
		t.Fatalf("first=%q", got)
	}
	if got := NormalizeSpaces(" a \t b\n"); got != "a b" {
		t.Fatalf("spaces=%q", got)
	}
}
