package match

import "testing"

// These tests pin the quorum rule: verified iff at least two fields matched,
// mismatches never veto. The stricter zero-mismatch variant would disagree on
// the two-matches-one-mismatch case below.
func TestDecideQuorum(t *testing.T) {
	tests := []struct {
		name       string
		matched    []string
		mismatched []string
		want       bool
	}{
		{name: "all three match", matched: []string{"name", "phone", "address"}, want: true},
		{name: "two match no mismatch", matched: []string{"name", "phone"}, want: true},
		{name: "two match one mismatch", matched: []string{"name", "phone"}, mismatched: []string{"address"}, want: true},
		{name: "one match only", matched: []string{"name"}, want: false},
		{name: "one match two mismatch", matched: []string{"name"}, mismatched: []string{"phone", "address"}, want: false},
		{name: "nothing compared", want: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := Decide(tt.matched, tt.mismatched); got != tt.want {
				t.Fatalf("Decide(%v, %v) = %v, want %v", tt.matched, tt.mismatched, got, tt.want)
			}
		})
	}
}
