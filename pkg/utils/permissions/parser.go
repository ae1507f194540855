// Package permissions parses the file modes accepted on the command line.
package permissions

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DefaultFilePerms is used for written animations when no mode is given.
const DefaultFilePerms os.FileMode = 0o644

// ParseOctalString parses "644", "0644" or "0o644". The empty string
// yields DefaultFilePerms.
func ParseOctalString(s string) (os.FileMode, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultFilePerms, nil
	}

	digits := strings.TrimPrefix(strings.TrimPrefix(s, "0o"), "0")
	if digits == "" {
		return 0, nil
	}

	val, err := strconv.ParseUint(digits, 8, 32)
	if err != nil {
		return DefaultFilePerms, fmt.Errorf("invalid permission string %q: %w", s, err)
	}
	if val > 0o777 {
		return DefaultFilePerms, fmt.Errorf("invalid permission string %q: only permission bits are allowed", s)
	}
	return os.FileMode(val), nil
}

// FormatOctal renders perm the way ParseOctalString accepts it.
func FormatOctal(perm os.FileMode) string {
	return fmt.Sprintf("0%o", perm.Perm())
}

// IsExecutable reports whether the owner execute bit is set.
func IsExecutable(perm os.FileMode) bool {
	return perm&0o100 != 0
}
