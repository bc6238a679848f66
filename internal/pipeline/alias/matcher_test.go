package alias

import (
	"reflect"
	"testing"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	m := New(map[string][]string{
		"Firedancer":  {"firedancer", "fd"},
		"Jump Crypto": {"jump crypto", "jump trading"},
	})

	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "both entities",
			in:   "firedancer ships a release backed by jump crypto engineers",
			want: []string{"Firedancer", "Jump Crypto"},
		},
		{
			name: "word boundary rejects substring",
			in:   "superfiredancer2000 is not a real alias",
			want: nil,
		},
		{
			name: "no match",
			in:   "nothing relevant here",
			want: nil,
		},
		{
			name: "alt surface form",
			in:   "fd pushed a new commit",
			want: []string{"Firedancer"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := m.Resolve(tc.in)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Resolve(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestResolveDeduplicatesWithinEvent(t *testing.T) {
	t.Parallel()
	m := New(map[string][]string{"Solana": {"solana"}})
	got := m.Resolve("solana solana solana")
	if len(got) != 1 || got[0] != "Solana" {
		t.Fatalf("want single dedup'd match, got %v", got)
	}
}
