package diff

import "unicode"

// tokenize splits text at every whitespace/non-whitespace boundary. The
// whitespace runs are kept as tokens so concatenating the result yields text.
func tokenize(text string) []string {
	if text == "" {
		return nil
	}

	var tokens []string
	start := 0
	inSpace := false
	for i, r := range text {
		space := unicode.IsSpace(r)
		if i == 0 {
			inSpace = space
			continue
		}
		if space != inSpace {
			tokens = append(tokens, text[start:i])
			start = i
			inSpace = space
		}
	}
	return append(tokens, text[start:])
}

// match is an index pair of equal tokens, a[a] == b[b].
type match struct {
	a, b int
}

// commonSubsequence returns the matched index pairs of a longest common
// subsequence of a and b, in increasing order on both sides.
//
// Backtracking steps through a only when that side is strictly longer; ties
// step through b. The same input therefore always yields the same pairs.
func commonSubsequence(a, b []string) []match {
	m, n := len(a), len(b)
	if m == 0 || n == 0 {
		return nil
	}

	width := n + 1
	dp := make([]int, (m+1)*width)
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			switch {
			case a[i-1] == b[j-1]:
				dp[i*width+j] = dp[(i-1)*width+j-1] + 1
			case dp[(i-1)*width+j] >= dp[i*width+j-1]:
				dp[i*width+j] = dp[(i-1)*width+j]
			default:
				dp[i*width+j] = dp[i*width+j-1]
			}
		}
	}

	pairs := make([]match, dp[m*width+n])
	k := len(pairs)
	i, j := m, n
	for i > 0 && j > 0 {
		switch {
		case a[i-1] == b[j-1]:
			k--
			pairs[k] = match{a: i - 1, b: j - 1}
			i--
			j--
		case dp[(i-1)*width+j] > dp[i*width+j-1]:
			i--
		default:
			j--
		}
	}
	if k != 0 {
		panic("diff: backtrack recovered fewer pairs than the table length")
	}
	return pairs
}
