package utils

import (
	"strconv"
	"strings"
)

// AtoiOr parses s as an int, returning def when s is not a number.
func AtoiOr(s string, def int) int {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return i
}
