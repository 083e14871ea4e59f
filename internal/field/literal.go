package field

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseUintLiteral accepts either a decimal or a "0x"-prefixed hex
// string, matching spec.md's "default may be an integer or a
// decimal/hex string". Exported for container sub-fields (e.g.
// BinaryContainer) that resolve the same literal grammar.
func ParseUintLiteral(s string) (uint64, error) {
	return parseUintLiteral(s)
}

func parseUintLiteral(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := strconv.ParseUint(s[2:], 16, 64)
		if err != nil {
			return 0, fmt.Errorf("field: invalid hex literal %q: %w", s, err)
		}
		return v, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("field: invalid integer literal %q: %w", s, err)
	}
	return v, nil
}
