package payload

import (
	"math/rand/v2"
	"strconv"
	"time"
)

// IDGenerator produces short base-36 identifiers from three random decimal
// digits followed by a millisecond timestamp. The result is neither fixed
// width nor cryptographically secure; it suits UI element ids, not tokens.
type IDGenerator struct {
	// Now defaults to time.Now.
	Now func() time.Time
	// Digits returns the random fragment in [0, 999]; defaults to math/rand/v2.
	Digits func() int
}

// Generate returns a new identifier.
func (g IDGenerator) Generate() string {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	digits := func() int { return rand.IntN(1000) }
	if g.Digits != nil {
		digits = g.Digits
	}

	d := digits() % 1000
	if d < 0 {
		d += 1000
	}
	frag := strconv.Itoa(d)
	for len(frag) < 3 {
		frag = "0" + frag
	}
	// Leading zeros of the fragment vanish once the concatenation is read as
	// a number, which is why ids are not fixed width.
	n, err := strconv.ParseUint(frag+strconv.FormatInt(now().UnixMilli(), 10), 10, 64)
	if err != nil {
		return strconv.FormatInt(now().UnixMilli(), 36)
	}
	return strconv.FormatUint(n, 36)
}

var defaultIDGenerator IDGenerator

// GenerateID returns a new identifier using the default generator.
func GenerateID() string {
	return defaultIDGenerator.Generate()
}
