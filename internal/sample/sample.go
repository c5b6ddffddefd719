// Package sample draws values from configured categorical and numeric
// distributions using an explicit, seedable pseudo-random source.
//
// A given seed reproduces an identical sequence of draws, which is what
// makes whole-dataset generation reproducible for test fixtures and
// golden comparisons. Production demo runs pass a fresh seed.
package sample

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/eurostyle/datagen/internal/config"
)

// Sampler wraps one rand.Rand. Not safe for concurrent use; the
// pipeline's single-writer discipline is the caller's responsibility.
type Sampler struct {
	rng *rand.Rand
}

// New creates a sampler seeded with the given value.
func New(seed int64) *Sampler {
	return &Sampler{rng: rand.New(rand.NewSource(seed))}
}

// Pick performs one weighted-categorical draw. Zero-weight categories
// are never drawn; a spec with a single category always returns it.
func (s *Sampler) Pick(spec []config.Weight) (string, error) {
	var total float64
	for _, w := range spec {
		if w.Weight < 0 {
			return "", fmt.Errorf("sample: negative weight for %q", w.Label)
		}
		total += w.Weight
	}
	if total <= 0 {
		return "", fmt.Errorf("sample: all weights are zero")
	}

	r := s.rng.Float64() * total
	for _, w := range spec {
		r -= w.Weight
		if r < 0 && w.Weight > 0 {
			return w.Label, nil
		}
	}
	// Float accumulation can land exactly on the upper bound; return the
	// last drawable category.
	for i := len(spec) - 1; i >= 0; i-- {
		if spec[i].Weight > 0 {
			return spec[i].Label, nil
		}
	}
	return "", fmt.Errorf("sample: all weights are zero")
}

// PickN draws n labels with replacement.
func (s *Sampler) PickN(spec []config.Weight, n int) ([]string, error) {
	out := make([]string, n)
	for i := range out {
		label, err := s.Pick(spec)
		if err != nil {
			return nil, err
		}
		out[i] = label
	}
	return out, nil
}

// Country draws a country code weighted by configured market share.
func (s *Sampler) Country(countries []config.Country) (string, error) {
	spec := make([]config.Weight, len(countries))
	for i, c := range countries {
		spec[i] = config.Weight{Label: c.Code, Weight: c.Weight}
	}
	return s.Pick(spec)
}

// Amount draws a uniform monetary amount in [min, max], rounded to cents.
func (s *Sampler) Amount(min, max float64) decimal.Decimal {
	if max < min {
		min, max = max, min
	}
	v := min + s.rng.Float64()*(max-min)
	return decimal.NewFromFloat(v).Round(2)
}

// IntBetween draws a uniform integer in [min, max] inclusive.
func (s *Sampler) IntBetween(min, max int) int {
	if max < min {
		min, max = max, min
	}
	return min + s.rng.Intn(max-min+1)
}

// NormalClamped draws from a normal distribution and clamps the result
// to [min, max] inclusive.
func (s *Sampler) NormalClamped(mean, stddev, min, max float64) float64 {
	v := mean + s.rng.NormFloat64()*stddev
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Bool draws true with probability p.
func (s *Sampler) Bool(p float64) bool {
	return s.rng.Float64() < p
}

// Index draws a uniform index in [0, n).
func (s *Sampler) Index(n int) int {
	return s.rng.Intn(n)
}

// UUID returns an RFC 4122 v4 UUID drawn from the sampler's source, so
// generated tokens are reproducible for a fixed seed.
func (s *Sampler) UUID() string {
	u, err := uuid.NewRandomFromReader(s.rng)
	if err != nil {
		// rand.Rand.Read never fails.
		return uuid.Nil.String()
	}
	return u.String()
}

// TimeInDay draws a timestamp within business hours (08:00-20:00 UTC)
// of the given day.
func (s *Sampler) TimeInDay(day time.Time) time.Time {
	base := time.Date(day.Year(), day.Month(), day.Day(), 8, 0, 0, 0, time.UTC)
	return base.Add(time.Duration(s.rng.Intn(12*3600)) * time.Second)
}
