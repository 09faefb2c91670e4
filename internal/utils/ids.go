// Package utils contains small parsing helpers shared by the HTTP layer.
package utils

import (
	"strconv"
	"strings"
)

// ParseID parses a positive decimal identifier. Surrounding whitespace is
// ignored; zero, signs and values beyond 32 bits are rejected.
func ParseID(s string) (uint, bool) {
	s = strings.TrimSpace(s)
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}
