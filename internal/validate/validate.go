package validate

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// digits with optional leading +, spaces, dashes and parentheses
	rePhone = regexp.MustCompile(`^\+?[0-9(][0-9 ()\-]{6,24}$`)
	reID    = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
)

// text trims s and accepts 1..max runes without control characters.
func text(s string, max int) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || utf8.RuneCountInString(s) > max || !utf8.ValidString(s) {
		return "", false
	}
	for _, r := range s {
		if (r < 0x20 && r != '\n' && r != '\t') || r == 0x7f {
			return "", false
		}
	}
	return s, true
}

// Name validates a customer name. Cyrillic and other scripts are allowed.
func Name(s string) (string, bool) { return text(s, 100) }

func Address(s string) (string, bool) { return text(s, 300) }

// Phone keeps the number as typed once it looks like one.
func Phone(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, rePhone.MatchString(s)
}

// Notes is optional; empty is valid.
func Notes(s string) (string, bool) {
	if strings.TrimSpace(s) == "" {
		return "", true
	}
	return text(s, 1000)
}

// ID validates a simple resource identifier (product/order ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}
