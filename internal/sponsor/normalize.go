package sponsor

import "strings"

// Corporate boilerplate tokens dropped during normalization so that
// "Google LLC" and "google" compare equal. Whole tokens only; substrings
// inside real names ("Lincoln") are untouched.
var suffixTokens = map[string]struct{}{
	"inc":  {},
	"llc":  {},
	"corp": {},
}

// Normalize puts an employer or company name into canonical comparison form:
// lowercase, trimmed, punctuation removed, corporate suffix tokens dropped,
// internal whitespace runs collapsed to a single space. Idempotent:
// Normalize(Normalize(x)) == Normalize(x).
func Normalize(name string) string {
	s := strings.ToLower(name)
	s = strings.NewReplacer(",", " ", ".", " ").Replace(s)

	fields := strings.Fields(s)
	out := fields[:0]
	for _, f := range fields {
		if _, drop := suffixTokens[f]; drop {
			continue
		}
		out = append(out, f)
	}
	return strings.Join(out, " ")
}
