// Package combinatorics provides exact factorial and binomial coefficient
// arithmetic over arbitrary-precision integers.
package combinatorics

import "math/big"

// Factorial returns n! as an exact integer. Factorial(0) is 1.
func Factorial(n uint64) *big.Int {
	result := big.NewInt(1)

	if n < 2 {
		return result
	}

	return result.MulRange(1, int64(n))
}

// Combination returns the binomial coefficient "n choose r", computed as
// n! / (r! * (n-r)!) with exact integer division.
// Returns 0 when n < r; no factorial is evaluated in that case.
func Combination(n, r uint64) *big.Int {
	if n < r {
		return new(big.Int)
	}

	denominator := new(big.Int).Mul(Factorial(r), Factorial(n-r))

	return new(big.Int).Quo(Factorial(n), denominator)
}

// SubsetCount returns the number of non-empty subsets of an n-element set,
// summed term by term as Σ_{l=1..n} Combination(n, l).
func SubsetCount(n uint64) *big.Int {
	total := new(big.Int)

	for l := uint64(1); l <= n; l++ {
		total.Add(total, Combination(n, l))
	}

	return total
}

// Ratio returns numerator / denominator as a float64, performing the division
// in exact rational arithmetic first. A zero denominator yields 0.
func Ratio(numerator, denominator *big.Int) float64 {
	if denominator == nil || denominator.Sign() == 0 {
		return 0
	}

	value, _ := new(big.Rat).SetFrac(numerator, denominator).Float64()

	return value
}

// Float returns value as the nearest float64.
func Float(value *big.Int) float64 {
	f, _ := new(big.Float).SetInt(value).Float64()

	return f
}
