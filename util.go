package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math"
)

// GenerateID returns a random hex string of the given byte length
func GenerateID(byteLen int) string {
	b := make([]byte, byteLen)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// GenerateRoomCode returns a 4-digit numeric room code
func GenerateRoomCode() string {
	b := make([]byte, 2)
	rand.Read(b)
	n := int(b[0])<<8 | int(b[1])
	return fmt.Sprintf("%04d", 1000+n%9000)
}

// Clamp restricts v to [min, max]
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// round2 rounds to 2 decimals to keep state frames compact
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
