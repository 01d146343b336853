// Package suffix builds suffix arrays with the SA-IS induced sorting
// algorithm and longest-common-prefix arrays with Kasai's algorithm.
package suffix

import (
	"golang.org/x/exp/slices"
)

// Array returns the suffix array of s. Every value of s must lie in
// [0, upper].
func Array(s []int, upper int) []int {
	return sais(s, upper)
}

// Bytes returns the suffix array of b.
func Bytes(b []byte) []int {
	s := make([]int, len(b))
	for i, c := range b {
		s[i] = int(c)
	}
	return sais(s, 255)
}

// Ints returns the suffix array of an arbitrary int64 sequence. Values are
// replaced by their rank among the distinct values before sorting.
func Ints(v []int64) []int {
	s, upper := Compact(v)
	return sais(s, upper)
}

// Compact maps v onto the dense alphabet [0, upper] preserving order.
func Compact(v []int64) (s []int, upper int) {
	alphabet := slices.Clone(v)
	slices.Sort(alphabet)
	alphabet = slices.Compact(alphabet)
	s = make([]int, len(v))
	for i, x := range v {
		s[i], _ = slices.BinarySearch(alphabet, x)
	}
	return s, max(len(alphabet)-1, 0)
}

// LCP returns the longest common prefix of each pair of adjacent suffixes:
// lcp[i] is the LCP of the suffixes at sa[i] and sa[i+1].
func LCP[T comparable](s []T, sa []int) []int {
	n := len(s)
	if n == 0 {
		return nil
	}
	rank := make([]int, n)
	for i, p := range sa {
		rank[p] = i
	}
	lcp := make([]int, n-1)
	h := 0
	for i := 0; i < n; i++ {
		if h > 0 {
			h--
		}
		if rank[i] == 0 {
			continue
		}
		j := sa[rank[i]-1]
		for j+h < n && i+h < n && s[j+h] == s[i+h] {
			h++
		}
		lcp[rank[i]-1] = h
	}
	return lcp
}

func sais(s []int, upper int) []int {
	n := len(s)
	switch n {
	case 0:
		return nil
	case 1:
		return []int{0}
	case 2:
		if s[0] < s[1] {
			return []int{0, 1}
		}
		return []int{1, 0}
	}

	sa := make([]int, n)
	// ls[i] marks S-type suffixes.
	ls := make([]bool, n)
	for i := n - 2; i >= 0; i-- {
		if s[i] == s[i+1] {
			ls[i] = ls[i+1]
		} else {
			ls[i] = s[i] < s[i+1]
		}
	}

	// Bucket starts for L-type and S-type suffixes of each character.
	sumL := make([]int, upper+1)
	sumS := make([]int, upper+1)
	for i := 0; i < n; i++ {
		if !ls[i] {
			sumS[s[i]]++
		} else if s[i]+1 <= upper {
			sumL[s[i]+1]++
		}
	}
	for i := 0; i <= upper; i++ {
		sumS[i] += sumL[i]
		if i < upper {
			sumL[i+1] += sumS[i]
		}
	}

	buf := make([]int, upper+1)
	induce := func(lms []int) {
		for i := range sa {
			sa[i] = -1
		}
		copy(buf, sumS)
		for _, d := range lms {
			if d == n {
				continue
			}
			sa[buf[s[d]]] = d
			buf[s[d]]++
		}
		copy(buf, sumL)
		sa[buf[s[n-1]]] = n - 1
		buf[s[n-1]]++
		for i := 0; i < n; i++ {
			v := sa[i]
			if v >= 1 && !ls[v-1] {
				sa[buf[s[v-1]]] = v - 1
				buf[s[v-1]]++
			}
		}
		copy(buf, sumL)
		for i := n - 1; i >= 0; i-- {
			v := sa[i]
			if v >= 1 && ls[v-1] {
				buf[s[v-1]+1]--
				sa[buf[s[v-1]+1]] = v - 1
			}
		}
	}

	lmsMap := make([]int, n+1)
	for i := range lmsMap {
		lmsMap[i] = -1
	}
	var lms []int
	for i := 1; i < n; i++ {
		if !ls[i-1] && ls[i] {
			lmsMap[i] = len(lms)
			lms = append(lms, i)
		}
	}
	m := len(lms)
	induce(lms)
	if m == 0 {
		return sa
	}

	sorted := make([]int, 0, m)
	for _, v := range sa {
		if lmsMap[v] != -1 {
			sorted = append(sorted, v)
		}
	}
	// Name each LMS substring; equal substrings share a name.
	rec := make([]int, m)
	recUpper := 0
	rec[lmsMap[sorted[0]]] = 0
	for i := 1; i < m; i++ {
		l, r := sorted[i-1], sorted[i]
		endL, endR := n, n
		if lmsMap[l]+1 < m {
			endL = lms[lmsMap[l]+1]
		}
		if lmsMap[r]+1 < m {
			endR = lms[lmsMap[r]+1]
		}
		same := endL-l == endR-r
		if same {
			for l < endL && s[l] == s[r] {
				l++
				r++
			}
			if l == n || r == n || s[l] != s[r] {
				same = false
			}
		}
		if !same {
			recUpper++
		}
		rec[lmsMap[sorted[i]]] = recUpper
	}
	recSA := sais(rec, recUpper)
	for i := 0; i < m; i++ {
		sorted[i] = lms[recSA[i]]
	}
	induce(sorted)
	return sa
}
