// Package normalizers provides field normalization functions for customer matching
package normalizers

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"
)

// Normalizer is a function that normalizes a string value
type Normalizer func(string) string

// registry holds all registered normalizers
var registry = make(map[string]Normalizer)

func init() {
	// Register built-in normalizers
	Register("lowercase", Lowercase)
	Register("uppercase", Uppercase)
	Register("trim", Trim)
	Register("nname", NormalizeName)
	Register("naddress", NormalizeAddress)
	Register("nphone", NormalizePhone)
	Register("nzip", NormalizeZip)
	Register("digits_only", DigitsOnly)
}

// Register adds a normalizer to the registry
func Register(name string, fn Normalizer) {
	registry[name] = fn
}

// Get retrieves a normalizer by name
func Get(name string) (Normalizer, bool) {
	fn, ok := registry[name]
	return fn, ok
}

// Apply applies a named normalizer to a value
func Apply(value, normalizer string) string {
	fn, ok := registry[normalizer]
	if !ok {
		return value
	}
	return fn(value)
}

// corporateSuffixes are dropped token-wise from company names. "CO" covers
// the common "& CO" form once punctuation is stripped.
var corporateSuffixes = map[string]bool{
	"INC":         true,
	"LLC":         true,
	"CORP":        true,
	"CORPORATION": true,
	"COMPANY":     true,
	"CO":          true,
}

// stateCodeSuffix matches parenthetical branch markers like "(NC)"
var stateCodeSuffix = regexp.MustCompile(`\([A-Za-z]{2}\)`)

// streetAbbreviations maps full street suffixes and directionals to the
// abbreviated forms the external system stores
var streetAbbreviations = map[string]string{
	"STREET":    "ST",
	"AVENUE":    "AVE",
	"BOULEVARD": "BLVD",
	"DRIVE":     "DR",
	"ROAD":      "RD",
	"LANE":      "LN",
	"COURT":     "CT",
	"NORTH":     "N",
	"SOUTH":     "S",
	"EAST":      "E",
	"WEST":      "W",
}

// Lowercase converts string to lowercase
func Lowercase(s string) string {
	return strings.ToLower(s)
}

// Uppercase converts string to uppercase
func Uppercase(s string) string {
	return strings.ToUpper(s)
}

// Trim removes leading and trailing whitespace
func Trim(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeName normalizes a company name for matching:
// uppercase, strip periods/commas and parenthetical state codes, drop
// corporate suffix tokens, collapse whitespace. Idempotent.
func NormalizeName(s string) string {
	s = strings.ToUpper(s)
	s = stateCodeSuffix.ReplaceAllString(s, " ")
	s = strings.NewReplacer(".", "", ",", "").Replace(s)

	fields := strings.Fields(s)
	kept := fields[:0]
	for _, f := range fields {
		if corporateSuffixes[f] {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

// NormalizeAddress normalizes a street address for matching:
// uppercase, strip periods/commas, abbreviate street suffixes and
// directionals token-wise, collapse whitespace. Idempotent.
func NormalizeAddress(s string) string {
	s = strings.ToUpper(s)
	s = strings.NewReplacer(".", "", ",", "").Replace(s)

	fields := strings.Fields(s)
	for i, f := range fields {
		if abbr, ok := streetAbbreviations[f]; ok {
			fields[i] = abbr
		}
	}
	return strings.Join(fields, " ")
}

// NormalizePhone reduces a phone number to its significant digits. Numbers
// that parse as NANP get the national number; everything else falls back to
// a plain digit strip. Empty when the input has no digits.
func NormalizePhone(s string) string {
	if s == "" {
		return ""
	}
	if num, err := phonenumbers.Parse(s, "US"); err == nil && phonenumbers.IsPossibleNumber(num) {
		return phonenumbers.GetNationalSignificantNumber(num)
	}
	return DigitsOnly(s)
}

// NormalizeZip keeps the 5-digit prefix of a zip, dropping the +4 suffix
func NormalizeZip(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '-'); i >= 0 {
		s = s[:i]
	}
	return s
}

// DigitsOnly keeps only digit characters
func DigitsOnly(s string) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// ExtractSearchName strips parenthetical state-code markers from a free-text
// customer name so the scan predicate sees the plain company name
func ExtractSearchName(s string) string {
	s = stateCodeSuffix.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}
