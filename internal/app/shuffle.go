package app

import (
	"strconv"
	"unicode/utf16"
)

// SeedKey is the shuffle seed string for a node: "{weekKey}-{nodeIndex}".
func SeedKey(weekKey string, nodeIndex int) string {
	return weekKey + "-" + strconv.Itoa(nodeIndex)
}

// EmojiSeedKey keeps emoji puzzle order independent from the quiz order of the same node.
func EmojiSeedKey(weekKey string, nodeIndex int) string {
	return SeedKey(weekKey, nodeIndex) + "-emoji"
}

// SeedFor folds key into a signed 32-bit seed with seed = seed*31 + c over UTF-16 code units.
func SeedFor(key string) int32 {
	var seed int32
	for _, c := range utf16.Encode([]rune(key)) {
		seed = seed*31 + int32(c)
	}
	return seed
}

// Mulberry32 is a 32-bit seeded PRNG. The same seed always yields the same sequence.
type Mulberry32 struct {
	state uint32
}

func NewMulberry32(seed int32) *Mulberry32 {
	return &Mulberry32{state: uint32(seed)}
}

// Float64 returns the next draw in [0, 1).
func (m *Mulberry32) Float64() float64 {
	m.state += 0x6D2B79F5
	t := m.state
	t = (t ^ t>>15) * (t | 1)
	t ^= t + (t^t>>7)*(t|61)
	return float64(t^t>>14) / 4294967296
}

// ShuffleSeeded returns a Fisher-Yates shuffled copy of items driven by Mulberry32(SeedFor(key)).
// The input slice is not modified.
func ShuffleSeeded[T any](items []T, key string) []T {
	out := make([]T, len(items))
	copy(out, items)
	rng := NewMulberry32(SeedFor(key))
	for i := len(out) - 1; i > 0; i-- {
		j := int(rng.Float64() * float64(i+1))
		out[i], out[j] = out[j], out[i]
	}
	return out
}
