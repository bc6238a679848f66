package normtext

import "testing"

func TestNormalizeTable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		out  string
	}{
		{name: "identity ascii", in: "hello world", out: "hello world"},
		{
			name: "utf8 repair drops invalid bytes",
			in:   string([]byte{0xff, 'f', 'o', 'o', 0x80, ' ', 'b', 'a', 'r'}),
			out:  "foo bar",
		},
		{name: "case fold", in: "Firedancer", out: "firedancer"},
		{name: "remove zero-widths", in: "fi​rede‍ancer", out: "firedeancer"},
		{name: "remove combining marks", in: "café", out: "cafe"},
		{name: "width fold fullwidth", in: "ＳＯＬＡＮＡ labs", out: "solana labs"},
		{name: "no leet folding", in: "layer1 l2", out: "layer1 l2"},
		{name: "collapse whitespace", in: "a\t\tb\nc   d", out: "a b\nc d"},
		{name: "trim edges", in: "  hi  \n", out: "hi"},
		{name: "empty", in: "", out: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.in); got != tc.out {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.out)
			}
		})
	}
}

func TestStripZones(t *testing.T) {
	t.Parallel()

	in := "intro\n```go\ncode here\n```\nsome `inline` bit\n> quoted line\nlast line"
	out := StripZones(in)
	if contains(out, "code here") {
		t.Fatalf("fenced code not stripped: %q", out)
	}
	if contains(out, "inline") {
		t.Fatalf("inline code not stripped: %q", out)
	}
	if contains(out, "quoted line") {
		t.Fatalf("quoted line not stripped: %q", out)
	}
	if !contains(out, "last line") {
		t.Fatalf("unrelated text dropped: %q", out)
	}
}

func contains(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
