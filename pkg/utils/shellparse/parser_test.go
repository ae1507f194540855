package shellparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "empty", input: "", want: nil},
		{name: "only spaces", input: " \t ", want: nil},
		{name: "single word", input: "gifweave-worker", want: []string{"gifweave-worker"}},
		{name: "extra whitespace", input: "  gifweave \t worker  ", want: []string{"gifweave", "worker"}},
		{name: "double quotes", input: `"/opt/my tools/gifweave" worker`, want: []string{"/opt/my tools/gifweave", "worker"}},
		{name: "single quotes are literal", input: `echo '$HOME \n'`, want: []string{"echo", `$HOME \n`}},
		{name: "escaped space", input: `/opt/my\ tools/gifweave`, want: []string{"/opt/my tools/gifweave"}},
		{name: "escape in double quotes", input: `"say \"hi\""`, want: []string{`say "hi"`}},
		{name: "other escape in double quotes kept", input: `"a\nb"`, want: []string{`a\nb`}},
		{name: "empty quoted word", input: `worker "" ''`, want: []string{"worker", "", ""}},
		{name: "adjacent quoting joins", input: `pre"mid"'post'`, want: []string{"premidpost"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Split(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSplitErrors(t *testing.T) {
	tests := []struct {
		input string
		err   error
	}{
		{`worker "open`, ErrUnclosedQuote},
		{`worker 'open`, ErrUnclosedQuote},
		{`worker \`, ErrTrailingEscape},
		{`"worker \`, ErrTrailingEscape},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			_, err := Split(tc.input)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestJoinRoundTrip(t *testing.T) {
	args := []string{
		"/opt/my tools/gifweave",
		"worker",
		"",
		"it's",
		`say "$x"`,
		"plain",
	}

	line := Join(args)
	assert.Equal(t, `'/opt/my tools/gifweave' worker '' "it's" 'say "$x"' plain`, line)

	back, err := Split(line)
	require.NoError(t, err)
	assert.Equal(t, args, back)
}
