package utils

import (
	"fmt"
	"strconv"
)

// ParseID parses a positive integer identifier from a path or query value
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// ParseInt converts s to an int, returning fallback when s is empty
func ParseInt(s string, fallback int) (int, error) {
	if s == "" {
		return fallback, nil
	}
	return strconv.Atoi(s)
}
