package permissions

import (
	"os"
	"testing"
)

func TestParseOctalString(t *testing.T) {
	tests := []struct {
		input   string
		want    os.FileMode
		wantErr bool
	}{
		{input: "", want: DefaultFilePerms},
		{input: "644", want: 0o644},
		{input: "0600", want: 0o600},
		{input: "0o755", want: 0o755},
		{input: "000", want: 0},
		{input: "9", wantErr: true},
		{input: "4755", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseOctalString(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Errorf("ParseOctalString(%q) accepted", tc.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseOctalString(%q): %v", tc.input, err)
			}
			if got != tc.want {
				t.Errorf("ParseOctalString(%q) = %o, want %o", tc.input, got, tc.want)
			}
		})
	}
}

func TestFormatOctal(t *testing.T) {
	if got := FormatOctal(0o640); got != "0640" {
		t.Errorf("FormatOctal = %s", got)
	}
	if IsExecutable(0o644) || !IsExecutable(0o755) {
		t.Error("IsExecutable disagrees with the owner x bit")
	}
}
