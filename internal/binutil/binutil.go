// Package binutil implements the hex/binary display helpers spec.md §1
// calls out as an external collaborator ("hex ↔ binary display helpers")
// and SPEC_FULL.md §4 recovers from the Python `binary_tools` module that
// `Rammbock.py` imports: converting a "0x"-prefixed hex literal to raw
// bytes and back. cmd/rammbock uses BinToHex to print raw bytes; it has
// no command-line flag that takes a binary literal.
package binutil

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// HexToBin decodes a "0x"-prefixed (or bare) hex string into raw bytes.
// An odd number of hex digits is padded with a leading zero, matching
// Rammbock's own tolerant hex_to_bin.
func HexToBin(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	if len(s)%2 != 0 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("binutil: invalid hex string %q: %w", s, err)
	}
	return b, nil
}

// BinToHex renders raw bytes as a lower-case "0x"-prefixed hex string.
func BinToHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}
