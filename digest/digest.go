// Package digest computes the wire digest for cache keys.
package digest

import (
	"crypto/md5"
	"encoding/hex"
)

// Hex returns the 32-character lowercase hex MD5 digest of b.
//
// This is the wire payload: clients depend on the exact bytes RFC 1321
// produces, so the computation is delegated to the standard library's
// crypto/md5, which is the RFC 1321 reference implementation. Accepts
// any length input, including empty, and never errors.
func Hex(b []byte) string {
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])
}

// HexString is a convenience wrapper for string inputs.
func HexString(s string) string {
	return Hex([]byte(s))
}
