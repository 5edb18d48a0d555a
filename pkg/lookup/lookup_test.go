package lookup

import (
	"reflect"
	"testing"
)

func TestRank(t *testing.T) {
	tests := []struct {
		name       string
		candidates []Candidate
		expected   []string
	}{
		{
			name: "Filters Registered and Sorts Descending",
			candidates: []Candidate{
				{Tld: "net", Rank: 3},
				{Tld: "com", Rank: 7},
				{Tld: "org", Rank: 9, IsRegistered: true},
			},
			expected: []string{"com", "net"},
		},
		{
			name: "Ties Keep Provider Order",
			candidates: []Candidate{
				{Tld: "io", Rank: 1},
				{Tld: "ai", Rank: 1},
				{Tld: "co", Rank: 1},
			},
			expected: []string{"io", "ai", "co"},
		},
		{
			name:       "Nothing Available",
			candidates: []Candidate{{Tld: "com", IsRegistered: true}},
			expected:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Rank(tt.candidates); !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Rank() = %v, want %v", got, tt.expected)
			}
		})
	}
}
