package synth

import (
	"encoding/hex"
	"strconv"
	"strings"

	"golang.org/x/crypto/sha3"
)

// seedHexDigits is the number of leading hex digits of the domain hash
// used for the seed. Eight digits keep the seed in 32-bit range, which
// leaves headroom for salt mixing without overflow concerns.
const seedHexDigits = 8

// Seed deterministically maps a domain to an integer seed.
// The domain is lower-cased before hashing so "Example.COM" and
// "example.com" synthesize identical data. An empty domain still yields
// a stable value (the hash of the empty string) rather than an error.
//
// Design decision: We use SHA3-256 rather than a non-cryptographic hash
// because it guarantees a uniform spread across similar domain strings;
// FNV-style hashes cluster badly on common prefixes like "www.".
func Seed(domain string) uint64 {
	sum := sha3.Sum256([]byte(strings.ToLower(domain)))
	hexDigest := hex.EncodeToString(sum[:])

	seed, err := strconv.ParseUint(hexDigest[:seedHexDigits], 16, 64)
	if err != nil {
		// Unreachable: the digest is always valid hex of sufficient length.
		return 0
	}
	return seed
}

// NextFloat returns a float in [0,1) that is a pure function of
// (seed, salt). Calling it twice with identical arguments yields an
// identical result, and varying the salt produces an independent value.
//
// The transform is a splitmix64-style finalizer over the combined seed
// and salt. Any deterministic mixer with reasonable spread would satisfy
// the contract; this one is cheap and has no shared state.
func NextFloat(seed uint64, salt int) float64 {
	x := seed + (uint64(salt)+1)*0x9E3779B97F4A7C15 //nolint:gosec // salt is a small non-secret counter
	x ^= x >> 30
	x *= 0xBF58476D1CE4E5B9
	x ^= x >> 27
	x *= 0x94D049BB133111EB
	x ^= x >> 31

	// Use the top 53 bits so the result is uniform over representable
	// floats in [0,1).
	return float64(x>>11) / float64(1<<53)
}

// IntBetween returns an integer in [low, high] derived from (seed, salt).
// If high <= low it returns low.
func IntBetween(seed uint64, salt, low, high int) int {
	if high <= low {
		return low
	}
	span := high - low + 1
	return low + int(NextFloat(seed, salt)*float64(span))
}

// PickIndex returns an index in [0, n) derived from (seed, salt).
// It returns 0 when n <= 1.
func PickIndex(seed uint64, salt, n int) int {
	if n <= 1 {
		return 0
	}
	return int(NextFloat(seed, salt) * float64(n))
}

// Chance reports whether the (seed, salt) draw falls below probability p.
// p is clamped to [0,1].
func Chance(seed uint64, salt int, p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return NextFloat(seed, salt) < p
}
