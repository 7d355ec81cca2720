package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{name: "nil", input: nil, expected: nil},
		{name: "only blanks", input: []string{"", " , "}, expected: nil},
		{
			name:     "yaml list",
			input:    []string{" kafka-1:9092 ", "kafka-2:9092"},
			expected: []string{"kafka-1:9092", "kafka-2:9092"},
		},
		{
			name:     "comma separated env value",
			input:    []string{"kafka-1:9092,kafka-2:9092,,kafka-3:9092"},
			expected: []string{"kafka-1:9092", "kafka-2:9092", "kafka-3:9092"},
		},
		{
			name:     "repeats dropped in first-seen order",
			input:    []string{"b,a", "a", " b "},
			expected: []string{"b", "a"},
		},
		{
			name:     "case is kept",
			input:    []string{"Broker", "broker"},
			expected: []string{"Broker", "broker"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitList(tt.input))
		})
	}
}
