package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// Short returns the first 12 characters, for logs
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// Hasher accumulates labelled values into a deterministic fingerprint.
// Floats are written by their bit pattern so that two designs only hash
// equal when every value is identical.
type Hasher struct {
	b strings.Builder
}

// Field writes a labelled string value
func (h *Hasher) Field(key string, value any) *Hasher {
	h.b.WriteString(key)
	h.b.WriteByte('=')
	h.b.WriteString(fmt.Sprintf("%v", value))
	h.b.WriteByte('|')
	return h
}

// Floats writes a labelled slice of floats
func (h *Hasher) Floats(key string, values []float64) *Hasher {
	h.b.WriteString(key)
	h.b.WriteByte('=')
	for _, v := range values {
		h.b.WriteString(fmt.Sprintf("%016x,", math.Float64bits(v)))
	}
	h.b.WriteByte('|')
	return h
}

// Sum returns the fingerprint of everything written so far
func (h *Hasher) Sum() Hash {
	return NewHash([]byte(h.b.String()))
}
