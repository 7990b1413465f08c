package match

// Ratio returns the normalized indel similarity of a and b in [0, 1]:
//
//	(len(a) + len(b) - indel(a, b)) / (len(a) + len(b))
//
// where indel is the number of single-rune insertions and deletions needed
// to turn a into b, and lengths count runes. Two empty strings are identical.
func Ratio(a, b string) float64 {
	ar, br := []rune(a), []rune(b)
	total := len(ar) + len(br)
	if total == 0 {
		return 1
	}
	// indel = total - 2*lcs, so the ratio reduces to 2*lcs/total.
	return float64(2*lcsLength(ar, br)) / float64(total)
}

// lcsLength returns the length of the longest common subsequence of a and b
// using two rows of the classic dynamic-programming table.
func lcsLength(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	if len(b) == 0 {
		return 0
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for _, ca := range a {
		for j, cb := range b {
			switch {
			case ca == cb:
				curr[j+1] = prev[j] + 1
			case prev[j+1] >= curr[j]:
				curr[j+1] = prev[j+1]
			default:
				curr[j+1] = curr[j]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
