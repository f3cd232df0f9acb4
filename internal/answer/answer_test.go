package answer

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClue(t *testing.T) {
	tests := []struct {
		input     string
		number    int
		direction Direction
	}{
		{input: "1a", number: 1, direction: Across},
		{input: "1A", number: 1, direction: Across},
		{input: "12d", number: 12, direction: Down},
		{input: " 7D ", number: 7, direction: Down},
		{input: "\t43a\n", number: 43, direction: Across},
		{input: "0a", number: 0, direction: Across},
		{input: "007d", number: 7, direction: Down},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			num, dir, err := ParseClue(test.input)
			require.NoError(t, err)
			assert.Equal(t, test.number, num)
			assert.Equal(t, test.direction, dir)
		})
	}
}

func TestParseClue_CaseAndWhitespaceInsensitive(t *testing.T) {
	for n := 0; n < 100; n++ {
		for _, dir := range []string{"a", "d"} {
			ref := strconv.Itoa(n) + dir
			wantNum, wantDir, err := ParseClue(ref)
			require.NoError(t, err)

			for _, variant := range []string{
				ref,
				strconv.Itoa(n) + strings.ToUpper(dir),
				"  " + ref + "  ",
				"\t" + strconv.Itoa(n) + strings.ToUpper(dir) + "\n",
			} {
				num, d, err := ParseClue(variant)
				require.NoError(t, err, variant)
				assert.Equal(t, wantNum, num, variant)
				assert.Equal(t, wantDir, d, variant)
			}
		}
	}
}

func TestParseClue_Error(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "whitespace only", input: "   "},
		{name: "direction only", input: "a"},
		{name: "number only", input: "12"},
		{name: "bad direction", input: "12x"},
		{name: "non-numeric prefix", input: "xyz"},
		{name: "negative number", input: "-1a"},
		{name: "signed number", input: "+1a"},
		{name: "inner whitespace", input: "1 2a"},
		{name: "spelled direction", input: "1across"},
		{name: "overflow", input: "99999999999999999999999a"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, _, err := ParseClue(test.input)
			assert.ErrorIs(t, err, ErrMalformedClue)
		})
	}
}

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "simple",
			input:    "QANDA",
			expected: []string{"Q", "A", "N", "D", "A"},
		},
		{
			name:     "leading rebus",
			input:    "(red)velvet",
			expected: []string{"red", "v", "e", "l", "v", "e", "t"},
		},
		{
			name:     "placeholders",
			input:    "....s",
			expected: []string{"", "", "", "", "s"},
		},
		{
			name:     "whitespace removed",
			input:    "red velvet",
			expected: []string{"r", "e", "d", "v", "e", "l", "v", "e", "t"},
		},
		{
			name:     "invalid utf-8 byte",
			input:    "C\xffT",
			expected: []string{"C", "\uFFFD", "T"},
		},
		{
			name:     "whitespace inside rebus",
			input:    "( re d )AND",
			expected: []string{"red", "A", "N", "D"},
		},
		{
			name:     "period inside rebus is kept",
			input:    "(a.b)c",
			expected: []string{"a.b", "c"},
		},
		{
			name:     "empty rebus",
			input:    "a()b",
			expected: []string{"a", "", "b"},
		},
		{
			name:     "multiple rebuses",
			input:    "(RED)AND(BLUE)",
			expected: []string{"RED", "A", "N", "D", "BLUE"},
		},
		{
			name:     "unterminated rebus",
			input:    "AERIAL RE(CON",
			expected: []string{"A", "E", "R", "I", "A", "L", "R", "E", "CON"},
		},
		{
			name:     "unterminated empty rebus",
			input:    "ab(",
			expected: []string{"a", "b", ""},
		},
		{
			name:     "stray close paren is a character",
			input:    ")Q",
			expected: []string{")", "Q"},
		},
		{
			name:     "unicode",
			input:    "ÉTÉ",
			expected: []string{"É", "T", "É"},
		},
		{
			name:     "empty",
			input:    "",
			expected: []string{},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, ParseAnswer(test.input))
		})
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		values   []string
		expected string
	}{
		{name: "letters", values: []string{"Q", "A", "N", "D", "A"}, expected: "QANDA"},
		{name: "rebus", values: []string{"RED", "A", "N", "D", "BLUE"}, expected: "(RED)AND(BLUE)"},
		{name: "blanks", values: []string{"", "A", ""}, expected: ".A."},
		{name: "literal period", values: []string{"."}, expected: "(.)"},
		{name: "literal open paren", values: []string{"("}, expected: "(()"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, Format(test.values))
		})
	}
}

func TestFormat_ParsesBack(t *testing.T) {
	inputs := []string{
		"(red)velvet",
		"....s",
		"a()b",
		"(a.b)c",
		")Q",
		"((x)",
		"AERIAL RE(CON",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			values := ParseAnswer(input)
			assert.Equal(t, values, ParseAnswer(Format(values)))
		})
	}
}
