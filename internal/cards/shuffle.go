package cards

import (
	"crypto/rand"
	mathrand "math/rand/v2"
	"sync"
)

// Shuffle returns a Fisher-Yates permutation of deck using a process-wide
// random source seeded from the system CSPRNG at startup (see newSource
// below). No seed or determinism hook is exposed to callers, per
// spec.md §4.1 ("no determinism/seed is exposed").
func Shuffle(deck []Card) []Card {
	shuffled := make([]Card, len(deck))
	copy(shuffled, deck)

	for i := len(shuffled) - 1; i > 0; i-- {
		j := nextIntN(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}

// source is the process-wide random source backing Shuffle and dealer
// selection. Rooms run as independently locked actors, so two rooms'
// dispatchers can call into source concurrently (room-1 dealing a
// fresh round while room-2 reshuffles its discard pile); sourceMu
// serializes every draw from it, per spec.md §5's "the random source
// is process-wide; concurrent use must be safe".
var (
	sourceMu sync.Mutex
	source   = newSource()
)

func nextIntN(n int) int {
	sourceMu.Lock()
	defer sourceMu.Unlock()
	return source.IntN(n)
}

func newSource() *mathrand.Rand {
	var seed [32]byte
	if _, err := rand.Read(seed[:]); err != nil {
		panic("cards: system random source unavailable: " + err.Error())
	}
	return mathrand.New(mathrand.NewChaCha8(seed))
}

// PickDealer returns a uniformly random index into [0, n).
func PickDealer(n int) int {
	return nextIntN(n)
}
