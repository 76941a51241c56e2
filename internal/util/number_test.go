package util

import "testing"

func TestFindAmount(t *testing.T) {
	cases := []struct {
		name   string
		input  string
		want   float64
		prefix string
		suffix string
	}{
		{name: "bare", input: "85000", want: 85000},
		{name: "suffix", input: "85000/m²", want: 85000, suffix: "/m²"},
		{name: "code prefix", input: "COP 85000/m²", want: 85000, prefix: "COP ", suffix: "/m²"},
		{name: "dot grouping", input: "$ 1.250.000", want: 1250000, prefix: "$ "},
		{name: "comma grouping", input: "1,250,000 c/u", want: 1250000, suffix: " c/u"},
		{name: "decimal comma", input: "12,5 kg", want: 12.5, suffix: " kg"},
		{name: "grouped with decimals", input: "1.234,50", want: 1234.5},
		{name: "first run only", input: "Desde 20 hasta 30", want: 20, prefix: "Desde ", suffix: " hasta 30"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			span, ok := FindAmount(tc.input)
			if !ok {
				t.Fatalf("no amount in %q", tc.input)
			}
			if span.Value != tc.want {
				t.Fatalf("got %v want %v", span.Value, tc.want)
			}
			if span.Prefix != tc.prefix || span.Suffix != tc.suffix {
				t.Fatalf("prefix=%q suffix=%q", span.Prefix, span.Suffix)
			}
		})
	}
}

func TestFindAmountNoNumber(t *testing.T) {
	if _, ok := FindAmount("not a number"); ok {
		t.Fatal("expected no amount")
	}
}

func TestFindLastAmount(t *testing.T) {
	span, ok := FindLastAmount("Camisa talla 12 .... $45.000")
	if !ok || span.Value != 45000 || span.Prefix != "Camisa talla 12 .... $" || span.Suffix != "" {
		t.Fatalf("span=%+v ok=%v", span, ok)
	}
	if _, ok := FindLastAmount("sin precio"); ok {
		t.Fatal("expected no amount")
	}
}
