package sema

import "math/big"

// rangeSpan is one inclusive integer interval.
type rangeSpan struct {
	lo, hi *big.Int
}

// rangeSet is a collection of disjoint inclusive integer intervals, kept
// sorted by lower bound. It detects duplicate or overlapping switch case
// values and decides coverage of a scrutinee type's representable range.
type rangeSet struct {
	spans []rangeSpan
}

// insert adds [lo, hi] to the set. It reports false, without modifying the
// set, when the interval overlaps an existing one.
func (rs *rangeSet) insert(lo, hi *big.Int) bool {
	at := len(rs.spans)
	for i, sp := range rs.spans {
		if hi.Cmp(sp.lo) < 0 {
			at = i
			break
		}
		if lo.Cmp(sp.hi) <= 0 {
			return false
		}
	}
	rs.spans = append(rs.spans, rangeSpan{})
	copy(rs.spans[at+1:], rs.spans[at:])
	rs.spans[at] = rangeSpan{lo: lo, hi: hi}
	return true
}

// covers reports whether the set's intervals cover [lo, hi] completely.
func (rs *rangeSet) covers(lo, hi *big.Int) bool {
	next := new(big.Int).Set(lo)
	one := big.NewInt(1)
	for _, sp := range rs.spans {
		if sp.lo.Cmp(next) > 0 {
			return false
		}
		if sp.hi.Cmp(next) >= 0 {
			next.Add(sp.hi, one)
		}
		if next.Cmp(hi) > 0 {
			return true
		}
	}
	return next.Cmp(hi) > 0
}
