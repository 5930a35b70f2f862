package sponsor

import (
	"github.com/agnivade/levenshtein"

	"sponsorscout-engine/internal/domain"
)

// DefaultThreshold is the fuzzy-match cutoff used when config doesn't set one.
const DefaultThreshold = 90

// Classifier tags company names against a loaded reference set. A nil or
// empty reference set degrades to always answering "No record found" —
// sponsorship enrichment is best-effort, never run-fatal.
type Classifier struct {
	ref       *ReferenceSet
	threshold int
}

func NewClassifier(ref *ReferenceSet, threshold int) *Classifier {
	if threshold < 0 {
		threshold = 0
	}
	if threshold > 100 {
		threshold = 100
	}
	return &Classifier{ref: ref, threshold: threshold}
}

// Classify returns domain.SponsorshipLikely when the normalized company name
// is in the reference set verbatim (no fuzzy scoring in that case), or when
// any reference entry scores >= threshold; otherwise domain.SponsorshipUnknown.
func (c *Classifier) Classify(company string) string {
	name := Normalize(company)
	if name == "" || c.ref.Len() == 0 {
		return domain.SponsorshipUnknown
	}

	if c.ref.Contains(name) {
		return domain.SponsorshipLikely
	}

	// Linear scan; reference sets are low thousands at most.
	for _, employer := range c.ref.Names() {
		if Ratio(name, employer) >= c.threshold {
			return domain.SponsorshipLikely
		}
	}
	return domain.SponsorshipUnknown
}

// Ratio is a symmetric similarity score on a 0-100 scale derived from the
// Levenshtein distance between the two strings.
func Ratio(a, b string) int {
	if a == b {
		return 100
	}
	la, lb := len([]rune(a)), len([]rune(b))
	max := la
	if lb > max {
		max = lb
	}
	if max == 0 {
		return 100
	}
	d := levenshtein.ComputeDistance(a, b)
	return 100 - (100*d+max/2)/max
}
