package normalize

import "strings"

// DefaultCountryCode is the calling code attached to national numbers.
const DefaultCountryCode = "34"

// nationalLength is the digit count of a national mobile number.
const nationalLength = 9

// phoneNoise lists the separators removed before validation.
var phoneNoise = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")

// Phone canonicalizes a raw phone value from the export into "+<cc><national>".
//
// Accepted shapes, after removing spaces, hyphens, parentheses and one leading "+":
//   - 9 digits: the country code is prepended
//   - 9+len(cc) digits starting with cc: "+" is re-attached
//
// Numeric cells exported as floats ("612345678.0") are accepted. Anything else
// returns ok=false and must be excluded from the sync, never treated as fatal.
func Phone(raw, countryCode string) (phone string, ok bool) {
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}

	t := strings.TrimSpace(raw)
	t = strings.TrimSuffix(t, ".0")
	t = phoneNoise.Replace(t)
	t = strings.TrimPrefix(t, "+")

	if t == "" || !isDigits(t) {
		return "", false
	}

	switch {
	case len(t) == nationalLength+len(countryCode) && strings.HasPrefix(t, countryCode):
		return "+" + t, true
	case len(t) == nationalLength:
		return "+" + countryCode + t, true
	default:
		return "", false
	}
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
