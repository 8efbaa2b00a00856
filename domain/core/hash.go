package core

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"time"
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

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// DataHash fingerprints dataset content for audit trails
type DataHash Hash

// NewDataHash creates a data hash from raw bytes
func NewDataHash(data []byte) DataHash { return DataHash(NewHash(data)) }

// String returns the string representation
func (h DataHash) String() string { return Hash(h).String() }

// ComputeSeriesHash fingerprints a timestamped series. The same
// observations in the same order always produce the same hash.
func ComputeSeriesHash(times []time.Time, values []float64) DataHash {
	buf := make([]byte, 0, 16*len(times))
	var scratch [8]byte
	for i := range times {
		binary.BigEndian.PutUint64(scratch[:], uint64(times[i].UnixNano()))
		buf = append(buf, scratch[:]...)
		binary.BigEndian.PutUint64(scratch[:], math.Float64bits(values[i]))
		buf = append(buf, scratch[:]...)
	}
	return NewDataHash(buf)
}
