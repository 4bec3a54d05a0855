// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package validate

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeIdentifier maps a login identifier (email or username) to its
// canonical form: surrounding whitespace removed, NFKC-normalized and case-folded.
//
// Two spellings that a person would consider the same login ("Ana@X.com",
// "ana@x.com", full-width letters) map to the same key.
func NormalizeIdentifier(identifier string) string {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return ""
	}
	return cases.Fold().String(norm.NFKC.String(trimmed))
}
