package fuzzy

// SubstringDistance returns the minimum number of edits (insertions,
// deletions, substitutions and adjacent transpositions) needed to turn
// pattern into some substring of text. The match may start anywhere in
// text, so the result does not depend on where the pattern occurs.
func SubstringDistance(pattern, text string) int {
	p := []rune(pattern)
	t := []rune(text)
	m, n := len(p), len(t)
	if m == 0 {
		return 0
	}
	if n == 0 {
		return m
	}

	// Rows i-2, i-1 and i of the (m+1) x (n+1) table; row 0 is all zeros
	// because a match may begin at any text position.
	prev2 := make([]int, n+1)
	prev := make([]int, n+1)
	cur := make([]int, n+1)

	for i := 1; i <= m; i++ {
		cur[0] = i
		for j := 1; j <= n; j++ {
			cost := 1
			if p[i-1] == t[j-1] {
				cost = 0
			}
			best := prev[j] + 1
			if v := cur[j-1] + 1; v < best {
				best = v
			}
			if v := prev[j-1] + cost; v < best {
				best = v
			}
			if i > 1 && j > 1 && p[i-1] == t[j-2] && p[i-2] == t[j-1] {
				if v := prev2[j-2] + 1; v < best {
					best = v
				}
			}
			cur[j] = best
		}
		prev2, prev, cur = prev, cur, prev2
	}

	best := prev[0]
	for j := 1; j <= n; j++ {
		if prev[j] < best {
			best = prev[j]
		}
	}
	return best
}

// Score is the substring edit distance of pattern against text divided by
// the pattern length, clamped to [0, 1]. Both inputs are normalized first.
// 0 means pattern occurs verbatim in text.
func Score(pattern, text string) float64 {
	p := Normalize(pattern)
	if p == "" {
		return 1
	}
	t := Normalize(text)
	if t == "" {
		return 1
	}
	s := float64(SubstringDistance(p, t)) / float64(len([]rune(p)))
	if s > 1 {
		return 1
	}
	return s
}
