package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task id required")

// ErrUserRefRequired indicates no member reference was provided.
var ErrUserRefRequired = errors.New("user id required")

// ParseTaskRef parses a task id from the first arg.
//
// Accepted forms: "17" and "#17". Ids are positive.
func ParseTaskRef(args []string) (int64, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return 0, ErrTaskRefRequired
	}
	id, ok := parseID(strings.TrimPrefix(strings.TrimSpace(args[0]), "#"))
	if !ok {
		return 0, fmt.Errorf("invalid task id: %s", args[0])
	}
	return id, nil
}

// ParseUserRef parses a member's user id from the first arg.
func ParseUserRef(args []string) (int64, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return 0, ErrUserRefRequired
	}
	id, ok := parseID(strings.TrimSpace(args[0]))
	if !ok {
		return 0, fmt.Errorf("invalid user id: %s", args[0])
	}
	return id, nil
}

func parseID(s string) (int64, bool) {
	if !isAllDigits(s) {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
