package keyword

import "testing"

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected int
	}{
		{"both empty", "", "", 0},
		{"identical", "cluster", "cluster", 0},
		{"empty a", "", "go", 2},
		{"empty b", "search", "", 6},
		{"substitution", "cat", "bat", 1},
		{"insertion", "cat", "cart", 1},
		{"deletion", "cart", "cat", 1},
		{"kitten to sitting", "kitten", "sitting", 3},
		{"flaw to lawn", "flaw", "lawn", 2},
		{"unicode substitution", "café", "cafe", 1},
		{"transposition counts twice", "ab", "ba", 2},
		{"case sensitive", "Go", "go", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LevenshteinDistance(tt.a, tt.b); got != tt.expected {
				t.Errorf("LevenshteinDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.expected)
			}
			if got := LevenshteinDistance(tt.b, tt.a); got != tt.expected {
				t.Errorf("LevenshteinDistance(%q, %q) = %d, not symmetric", tt.b, tt.a, got)
			}
		})
	}
}

func BenchmarkLevenshteinDistance(b *testing.B) {
	for i := 0; i < b.N; i++ {
		LevenshteinDistance("clustering", "clsutering")
	}
}
