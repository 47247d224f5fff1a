package config

import (
	"testing"
)

func TestSplitQuotedFields(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		quote    rune
		expected []string
	}{
		{
			name:     "single quotes",
			in:       `field'A' 'fieldB' fie'l\'d'C fieldD 'another field' fieldE`,
			quote:    '\'',
			expected: []string{"fieldA", "fieldB", "fiel'dC", "fieldD", "another field", "fieldE"},
		},
		{
			name:     "double quotes",
			in:       `field"A" "fieldB" fie"l'd"C "field\"D" "yet another field"`,
			quote:    '"',
			expected: []string{"fieldA", "fieldB", "fiel'dC", "field\"D", "yet another field"},
		},
		{
			name:     "with empty string in the end",
			in:       `field"A" ""`,
			quote:    '"',
			expected: []string{"fieldA", ""},
		},
		{
			name:     "with empty string at the beginning",
			in:       ` "" field"A"`,
			quote:    '"',
			expected: []string{"", "fieldA"},
		},
		{
			name:     "lots of spaces",
			in:       "    field\"A\"  \t ",
			quote:    '"',
			expected: []string{"fieldA"},
		},
		{
			name:     "only empty strings",
			in:       ` "" "" "" """" "" `,
			quote:    '"',
			expected: []string{"", "", "", "", ""},
		},
		{
			name:     "backslash outside quotes",
			in:       `a\b 'c\\d'`,
			quote:    '\'',
			expected: []string{`a\b`, `c\d`},
		},
		{
			name:     "empty",
			in:       "",
			quote:    '"',
			expected: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := SplitQuotedFields(tt.in, tt.quote)
			if len(tt.expected) != len(out) {
				t.Fatalf("expected %#v, got %#v (len mismatch)", tt.expected, out)
			}
			for i := range tt.expected {
				if tt.expected[i] != out[i] {
					t.Fatalf("expected %#v, got %#v (mismatch at %d)", tt.expected, out, i)
				}
			}
		})
	}
}
