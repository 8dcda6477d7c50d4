package csr

// permutations returns every ordering of the indices 0..n-1 in the order
// produced by the left-shift recursion: at each level the first element is
// rotated to the back of the active prefix before recursing one level
// deeper. The enumeration order decides which of two equal scores wins.
func permutations(n int) [][]int {
	if n <= 0 {
		return nil
	}
	cur := make([]int, n)
	for i := range cur {
		cur[i] = i
	}
	var out [][]int
	findPermutations(cur, n, &out)
	return out
}

func findPermutations(cur []int, level int, out *[][]int) {
	switch {
	case level < 2:
		*out = append(*out, append([]int(nil), cur...))
	case level == 2:
		leftShift(cur, 2)
		*out = append(*out, append([]int(nil), cur...))
		leftShift(cur, 2)
		*out = append(*out, append([]int(nil), cur...))
	default:
		for i := 0; i < level; i++ {
			leftShift(cur, level)
			findPermutations(cur, level-1, out)
		}
	}
}

// leftShift moves cur[0] to position level-1, shifting the rest left.
func leftShift(cur []int, level int) {
	first := cur[0]
	copy(cur[:level-1], cur[1:level])
	cur[level-1] = first
}
