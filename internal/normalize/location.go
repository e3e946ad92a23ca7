package normalize

import (
	"regexp"
	"strings"
)

// Two-letter uppercase token, treated as a US state code when it appears in
// the trailing segments of an address.
var reStateToken = regexp.MustCompile(`\b[A-Z]{2}\b`)

// Location derives city and state tokens from a free-text address such as
// "123 Main St, Miami, FL 33139". The address is split on commas; the last
// and second-to-last segments are inspected for a two-letter uppercase state
// token, and the city is the second-to-last segment with any state token
// stripped. Addresses with fewer than two comma segments yield empty
// strings for both.
//
// This is a best-effort heuristic, not a postal parser. Unusual punctuation
// can defeat it; callers must tolerate empty results.
func Location(address string) (city, state string) {
	if strings.TrimSpace(address) == "" {
		return "", ""
	}

	parts := strings.Split(address, ",")
	if len(parts) < 2 {
		return "", ""
	}

	last := strings.TrimSpace(parts[len(parts)-1])
	secondLast := strings.TrimSpace(parts[len(parts)-2])

	if m := reStateToken.FindString(last); m != "" {
		state = m
	} else if m := reStateToken.FindString(secondLast); m != "" {
		state = m
	}

	city = strings.TrimSpace(reStateToken.ReplaceAllString(secondLast, ""))

	return city, state
}
