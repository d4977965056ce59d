package types

import (
	"math"
	"math/big"
)

// IntRange returns the inclusive [min, max] range representable by an
// integer type of the given signedness and width. A zero-bit integer holds
// only 0.
func IntRange(signed bool, bits uint16) (min, max *big.Int) {
	if bits == 0 {
		return big.NewInt(0), big.NewInt(0)
	}
	one := big.NewInt(1)
	if signed {
		// [-2^(bits-1), 2^(bits-1)-1]
		min = new(big.Int).Lsh(one, uint(bits-1))
		min.Neg(min)
		max = new(big.Int).Lsh(one, uint(bits-1))
		max.Sub(max, one)
		return min, max
	}
	// [0, 2^bits-1]
	max = new(big.Int).Lsh(one, uint(bits))
	max.Sub(max, one)
	return big.NewInt(0), max
}

// FitsInt reports whether v is representable in an integer type of the
// given signedness and width.
func FitsInt(v *big.Int, signed bool, bits uint16) bool {
	min, max := IntRange(signed, bits)
	return v.Cmp(min) >= 0 && v.Cmp(max) <= 0
}

// FitsFloat reports whether v survives conversion to a float of the given
// width without overflowing to infinity. Precision loss is allowed.
func FitsFloat(v *big.Float, bits uint16) bool {
	switch bits {
	case 16:
		// binary16 max finite value is 65504.
		limit := big.NewFloat(65504)
		abs := new(big.Float).Abs(v)
		return abs.Cmp(limit) <= 0
	case 32:
		f, _ := v.Float32()
		return !math.IsInf(float64(f), 0)
	default:
		f, _ := v.Float64()
		return !math.IsInf(f, 0)
	}
}
