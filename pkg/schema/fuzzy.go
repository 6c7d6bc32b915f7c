package schema

// levenshteinDistance calculates the edit distance between two strings.
// Used to score near-miss alias matches.
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	// Single rolling row of the DP table for space efficiency
	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)

	for j := 0; j <= len(s2); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(s2)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// ratio scores the similarity of two strings on a 0-100 scale.
func ratio(s1, s2 string) int {
	if s1 == s2 {
		return 100
	}
	longest := len(s1)
	if len(s2) > longest {
		longest = len(s2)
	}
	if longest == 0 {
		return 100
	}
	dist := levenshteinDistance(s1, s2)
	return (longest - dist) * 100 / longest
}

// partialRatio scores the shorter string against every equal-length window of
// the longer one and returns the best score. A phrase fully contained in a
// longer query therefore scores 100.
func partialRatio(s1, s2 string) int {
	shorter, longer := s1, s2
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(shorter) == 0 {
		return 0
	}
	if len(shorter) == len(longer) {
		return ratio(shorter, longer)
	}

	best := 0
	for i := 0; i+len(shorter) <= len(longer); i++ {
		if s := ratio(shorter, longer[i:i+len(shorter)]); s > best {
			best = s
			if best == 100 {
				break
			}
		}
	}
	return best
}
