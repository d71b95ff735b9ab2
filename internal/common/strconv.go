package common

import "strconv"

// AtoiDefault parses value as a base-10 int. Empty or malformed input
// yields def.
func AtoiDefault(value string, def int) int {
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}
