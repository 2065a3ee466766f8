// Package ordercode mints the customer-facing order reference, e.g. 2025OC12dbfw.
package ordercode

import (
	"crypto/rand"
	"fmt"
	"io"
	"time"
)

// Length is the fixed size of every generated code: year, month code, day, suffix.
const Length = 4 + 2 + 2 + suffixLength

const (
	suffixLength = 4
	alphabet     = "abcdefghijklmnopqrstuvwxyz"
)

var monthCodes = [12]string{"JA", "FB", "MR", "AP", "MY", "JN", "JL", "AU", "SE", "OC", "NV", "DC"}

// MonthCode returns the two letter code for m.
func MonthCode(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthCodes[m-1]
}

// Generator produces order codes in a fixed business timezone.
type Generator struct {
	loc     *time.Location
	now     func() time.Time
	entropy io.Reader
}

// Option customizes a Generator.
type Option func(*Generator)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// WithEntropy overrides the random source used for the suffix.
func WithEntropy(r io.Reader) Option {
	return func(g *Generator) {
		if r != nil {
			g.entropy = r
		}
	}
}

// NewGenerator builds a generator for loc (UTC when nil).
func NewGenerator(loc *time.Location, opts ...Option) *Generator {
	if loc == nil {
		loc = time.UTC
	}
	g := &Generator{
		loc:     loc,
		now:     time.Now,
		entropy: rand.Reader,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns a new code such as 2025OC12dbfw.
func (g *Generator) Generate() (string, error) {
	now := g.now().In(g.loc)
	suffix, err := g.suffix()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d%s%02d%s", now.Year(), MonthCode(now.Month()), now.Day(), suffix), nil
}

func (g *Generator) suffix() (string, error) {
	buf := make([]byte, suffixLength)
	out := make([]byte, suffixLength)
	// 256 % 26 != 0, so bytes >= 234 are redrawn to keep the letters uniform.
	const limit = 256 - 256%len(alphabet)
	for i := 0; i < suffixLength; {
		if _, err := io.ReadFull(g.entropy, buf); err != nil {
			return "", fmt.Errorf("reading entropy: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out[i] = alphabet[int(b)%len(alphabet)]
			i++
			if i == suffixLength {
				break
			}
		}
	}
	return string(out), nil
}
