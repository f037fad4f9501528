package reference

import (
	"crypto/rand"
	"fmt"
	"io"
)

const (
	Prefix = "FB"
	// BodyLength is the number of random characters after the prefix.
	BodyLength = 8

	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// Largest multiple of len(alphabet) that fits in a byte; bytes at or above it are redrawn.
	acceptBelow = 252
)

// Generator produces booking references. It is stateless: uniqueness is
// checked by the caller against persisted bookings.
type Generator interface {
	Generate() (string, error)
}

type randomGenerator struct {
	source io.Reader
}

func NewGenerator() Generator {
	return &randomGenerator{source: rand.Reader}
}

// NewGeneratorFromReader draws randomness from r instead of crypto/rand.
func NewGeneratorFromReader(r io.Reader) Generator {
	return &randomGenerator{source: r}
}

func (g *randomGenerator) Generate() (string, error) {
	out := make([]byte, 0, len(Prefix)+BodyLength)
	out = append(out, Prefix...)

	buf := make([]byte, BodyLength*2)
	for len(out) < cap(out) {
		if _, err := io.ReadFull(g.source, buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= acceptBelow {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == cap(out) {
				break
			}
		}
	}
	return string(out), nil
}

// Valid reports whether ref has the FB + 8 [A-Z0-9] shape.
func Valid(ref string) bool {
	if len(ref) != len(Prefix)+BodyLength || ref[:len(Prefix)] != Prefix {
		return false
	}
	for i := len(Prefix); i < len(ref); i++ {
		c := ref[i]
		if !(c >= 'A' && c <= 'Z') && !(c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}
