// Package shareid produces the public tokens used in share links.
package shareid

import "crypto/rand"

// Length of every generated identifier.
const Length = 10

// alphabet has 64 symbols so a random byte maps onto it without bias.
const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz_-"

// New returns a fresh URL-safe identifier of Length symbols. No uniqueness
// check is made here; the store rejects the rare collision.
func New() string {
	b := make([]byte, Length)
	// crypto/rand.Read never fails on supported platforms
	_, _ = rand.Read(b)
	return Encode(b)
}

// Encode maps each byte onto the share-id alphabet.
func Encode(b []byte) string {
	out := make([]byte, len(b))
	for i, c := range b {
		out[i] = alphabet[c&63]
	}
	return string(out)
}

// Valid reports whether s could have been produced by New.
func Valid(s string) bool {
	if len(s) != Length {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c == '_', c == '-':
		default:
			return false
		}
	}
	return true
}
