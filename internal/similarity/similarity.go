package similarity

import (
	"math"
	"sort"
	"strings"

	"github.com/xrash/smetrics"

	"github.com/robzajac581/glowra-search-api-sub002/internal/normalize"
)

// Scores are 0-100 integers. All three strategies normalize their inputs
// first, so raw names can be passed straight from source rows.
//
// The edit distance uses substitution cost 2 (an insert plus a delete), the
// convention shared by difflib-style ratio scoring, so that a short word
// inserted into an otherwise identical name costs proportionally little.

// Ratio scores the full normalized strings against each other.
func Ratio(a, b string) int {
	return ratio(normalize.Text(a), normalize.Text(b))
}

// PartialRatio scores the shorter normalized string against every
// equal-length substring of the longer one and returns the best score.
// "dr smith" inside "smith md dermatology" scores far higher here than
// under Ratio.
func PartialRatio(a, b string) int {
	return partialRatio(normalize.Text(a), normalize.Text(b))
}

// TokenSortRatio sorts the whitespace tokens of each normalized string,
// rejoins them, and applies Ratio. Word-order differences such as
// "miami skin solutions" vs "skin solutions miami" become irrelevant.
func TokenSortRatio(a, b string) int {
	return ratio(tokenSort(a), tokenSort(b))
}

// BestScore returns the maximum of Ratio, PartialRatio and TokenSortRatio.
// It is symmetric in its arguments and returns 100 for identical inputs.
func BestScore(a, b string) int {
	na, nb := normalize.Text(a), normalize.Text(b)

	best := ratio(na, nb)
	if s := partialRatio(na, nb); s > best {
		best = s
	}
	if s := ratio(sortTokens(na), sortTokens(nb)); s > best {
		best = s
	}
	return best
}

func ratio(a, b string) int {
	if a == "" && b == "" {
		return 100
	}
	if a == "" || b == "" {
		return 0
	}

	total := len(a) + len(b)
	dist := smetrics.WagnerFischer(a, b, 1, 1, 2)

	return int(math.Round(100 * float64(total-dist) / float64(total)))
}

func partialRatio(a, b string) int {
	shorter, longer := []rune(a), []rune(b)
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(shorter) == 0 {
		return ratio(a, b)
	}
	if len(shorter) == len(longer) {
		return ratio(string(shorter), string(longer))
	}

	best := 0
	for i := 0; i+len(shorter) <= len(longer); i++ {
		window := string(longer[i : i+len(shorter)])
		if s := ratio(string(shorter), window); s > best {
			best = s
			if best == 100 {
				break
			}
		}
	}
	return best
}

func tokenSort(raw string) string {
	return sortTokens(normalize.Text(raw))
}

func sortTokens(normalized string) string {
	tokens := strings.Fields(normalized)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
