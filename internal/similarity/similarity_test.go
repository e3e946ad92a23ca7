package similarity

import (
	"testing"
)

func TestRatioIdentity(t *testing.T) {
	inputs := []string{
		"Miami Skin Solutions",
		"dr smith",
		"",
		"Clinic #42, Suite B",
	}

	for _, s := range inputs {
		if got := Ratio(s, s); got != 100 {
			t.Errorf("Ratio(%q, %q) = %d, want 100", s, s, got)
		}
		if got := BestScore(s, s); got != 100 {
			t.Errorf("BestScore(%q, %q) = %d, want 100", s, s, got)
		}
	}
}

func TestBestScoreSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"Skin Solutions Miami", "Skin Solutions of Miami"},
		{"Dr. Smith", "Smith, MD"},
		{"ABC Wellness Clinic", "XYZ Aesthetics"},
		{"", "Something"},
	}

	for _, p := range pairs {
		ab := BestScore(p[0], p[1])
		ba := BestScore(p[1], p[0])
		if ab != ba {
			t.Errorf("BestScore not symmetric for %q / %q: %d vs %d", p[0], p[1], ab, ba)
		}
	}
}

func TestTokenSortRatioWordOrder(t *testing.T) {
	got := TokenSortRatio("Miami Skin Solutions", "Skin Solutions Miami")
	if got != 100 {
		t.Errorf("TokenSortRatio() = %d, want 100 for reordered tokens", got)
	}
}

func TestPartialRatioSubstring(t *testing.T) {
	// The shorter name should line up against a window of the longer one.
	got := PartialRatio("Smith", "Dr. Smith, MD")
	if got != 100 {
		t.Errorf("PartialRatio() = %d, want 100 for contained name", got)
	}
}

func TestBestScoreTiers(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		min  int
		max  int
	}{
		{
			// Word order plus one inserted word still scores in the
			// strong-match tier via token sort.
			name: "skin solutions miami",
			a:    "Skin Solutions Miami",
			b:    "Skin Solutions of Miami",
			min:  90,
			max:  100,
		},
		{
			name: "unrelated names",
			a:    "ABC Wellness Clinic",
			b:    "Radiant Dermatology Group",
			min:  0,
			max:  59,
		},
		{
			name: "no overlap at all",
			a:    "zzzz",
			b:    "qqqq",
			min:  0,
			max:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BestScore(tt.a, tt.b)
			if got < tt.min || got > tt.max {
				t.Errorf("BestScore(%q, %q) = %d, want in [%d, %d]", tt.a, tt.b, got, tt.min, tt.max)
			}
		})
	}
}

func TestEmptyAgainstNonEmpty(t *testing.T) {
	if got := BestScore("", "Miami Skin Solutions"); got != 0 {
		t.Errorf("BestScore(empty, name) = %d, want 0", got)
	}
}
