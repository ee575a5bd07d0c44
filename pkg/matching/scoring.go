// Package matching implements customer and address matching algorithms
package matching

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/dylan-buck/UAF-Auto/pkg/normalizers"
)

// Scorer provides the field comparison algorithms used during resolution
type Scorer struct{}

// NewScorer creates a new Scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// ExactFold returns 1.0 on case-insensitive equality, 0.0 otherwise
func (s *Scorer) ExactFold(a, b string) float64 {
	if strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b)) {
		return 1.0
	}
	return 0.0
}

// ZipMatch compares zip codes on the 5-digit prefix, ignoring +4 suffixes
func (s *Scorer) ZipMatch(a, b string) float64 {
	na := normalizers.NormalizeZip(a)
	nb := normalizers.NormalizeZip(b)
	if na == "" || nb == "" {
		return 0.0
	}
	if na == nb {
		return 1.0
	}
	return 0.0
}

// NameScore scores a free-text company name against a stored customer name.
// 1.0 exact after normalization, 0.9 when one contains the other, otherwise
// the fraction of significant query tokens found in the candidate, scaled
// by 0.8.
func (s *Scorer) NameScore(query, candidate string) float64 {
	if query == "" || candidate == "" {
		return 0.0
	}

	nq := normalizers.NormalizeName(query)
	nc := normalizers.NormalizeName(candidate)
	if nq == "" || nc == "" {
		return 0.0
	}

	if nq == nc {
		return 1.0
	}
	if strings.Contains(nc, nq) || strings.Contains(nq, nc) {
		return 0.9
	}

	tokens := significantTokens(nq)
	if len(tokens) == 0 {
		return 0.0
	}

	matched := 0
	for _, tok := range tokens {
		if tokenFound(tok, nc) {
			matched++
		}
	}
	return float64(matched) / float64(len(tokens)) * 0.8
}

// NameMatch is the scan predicate for the bounded customer search: true when
// the record name scores well enough against the search name to be worth
// shortlisting. Tolerates OCR typos via edit distance on tokens.
func (s *Scorer) NameMatch(search, record string) bool {
	if search == "" || record == "" {
		return false
	}

	ns := normalizers.NormalizeName(search)
	nr := normalizers.NormalizeName(record)
	if ns == "" || nr == "" {
		return false
	}

	if strings.Contains(nr, ns) || strings.Contains(ns, nr) {
		return true
	}

	tokens := significantTokens(ns)
	if len(tokens) == 0 {
		return false
	}

	recordTokens := strings.Fields(nr)
	matched := 0
	for _, tok := range tokens {
		if tokenFound(tok, nr) || fuzzyTokenMatch(tok, recordTokens) {
			matched++
		}
	}
	return float64(matched)/float64(len(tokens)) >= 0.5
}

// AddressLineMatch reports whether two combined address lines refer to the
// same street address: equal after normalization, or one contains the other
func (s *Scorer) AddressLineMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	na := normalizers.NormalizeAddress(a)
	nb := normalizers.NormalizeAddress(b)
	if na == "" || nb == "" {
		return false
	}
	return na == nb || strings.Contains(na, nb) || strings.Contains(nb, na)
}

// PhoneScore compares phone numbers on significant digits: 1.0 exact, 0.8
// when one is a substring of the other (extension or area-code variance)
func (s *Scorer) PhoneScore(a, b string) float64 {
	na := normalizers.NormalizePhone(a)
	nb := normalizers.NormalizePhone(b)
	if na == "" || nb == "" {
		return 0.0
	}
	if na == nb {
		return 1.0
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return 0.8
	}
	return 0.0
}

// significantTokens splits a normalized string into tokens longer than two
// characters. When every token is short the full token list is returned so
// short legal names still match.
func significantTokens(s string) []string {
	fields := strings.Fields(s)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) > 2 {
			tokens = append(tokens, f)
		}
	}
	if len(tokens) == 0 {
		return fields
	}
	return tokens
}

// tokenFound reports whether tok appears as a substring of the candidate
func tokenFound(tok, candidate string) bool {
	return strings.Contains(candidate, tok)
}

// fuzzyTokenMatch reports whether tok is within edit-distance tolerance of
// any candidate token. Scanned POs arrive via OCR, so single-character
// substitutions are common.
func fuzzyTokenMatch(tok string, candidates []string) bool {
	for _, c := range candidates {
		longest := len(tok)
		if len(c) > longest {
			longest = len(c)
		}
		if longest == 0 {
			continue
		}
		dist := levenshtein.ComputeDistance(tok, c)
		if 1.0-float64(dist)/float64(longest) >= 0.8 {
			return true
		}
	}
	return false
}
