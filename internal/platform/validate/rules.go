// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package validate

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// # Credential Format Rules

const (
	// MinPasswordLength is the shortest accepted password, in characters.
	MinPasswordLength = 8

	// PasswordSpecials is the set of symbols of which a password needs at least one.
	PasswordSpecials = "@#$%^&+=!"
)

var (
	emailRegex = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)
	phoneRegex = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
)

// Password policy violation messages, in the order they are checked.
const (
	ViolationLength     = "Minimum 8 characters"
	ViolationDigit      = "Must contain a digit"
	ViolationLower      = "Must contain a lowercase letter"
	ViolationUpper      = "Must contain an uppercase letter"
	ViolationSpecial    = "Must contain one of " + PasswordSpecials
	ViolationWhitespace = "Must not contain whitespace"
)

// IsValidPassword reports whether s satisfies the password strength policy: at
// least 8 characters, a digit, a lowercase and an uppercase letter, one of
// [PasswordSpecials], and no whitespace.
func IsValidPassword(s string) bool {
	return s != "" && len(PasswordViolations(s)) == 0
}

// PasswordViolations lists every strength rule s fails. The empty string fails all
// rules except the whitespace one.
func PasswordViolations(s string) []string {
	var hasDigit, hasLower, hasUpper, hasSpecial, hasSpace bool

	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case strings.ContainsRune(PasswordSpecials, r):
			hasSpecial = true
		case unicode.IsSpace(r):
			hasSpace = true
		}
	}

	var violations []string
	if utf8.RuneCountInString(s) < MinPasswordLength {
		violations = append(violations, ViolationLength)
	}
	if !hasDigit {
		violations = append(violations, ViolationDigit)
	}
	if !hasLower {
		violations = append(violations, ViolationLower)
	}
	if !hasUpper {
		violations = append(violations, ViolationUpper)
	}
	if !hasSpecial {
		violations = append(violations, ViolationSpecial)
	}
	if hasSpace {
		violations = append(violations, ViolationWhitespace)
	}
	return violations
}

// IsValidEmail reports whether s has the local@domain.tld shape.
func IsValidEmail(s string) bool {
	return s != "" && emailRegex.MatchString(s)
}

// IsValidPhone reports whether s, once whitespace is stripped, is 10 to 15 digits
// with an optional leading '+'.
func IsValidPhone(s string) bool {
	if s == "" {
		return false
	}
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	return phoneRegex.MatchString(stripped)
}
