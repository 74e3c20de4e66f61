package fair

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveSeed(t *testing.T) {
	base := SeedOf(42)

	derived := DeriveSeed(base, seedOffsetSusceptibility)
	require.NotNil(t, derived)
	assert.Equal(t, int64(52), *derived)

	// The base pointer is untouched.
	assert.Equal(t, int64(42), *base)
}

func TestDeriveSeedNilPropagates(t *testing.T) {
	assert.Nil(t, DeriveSeed(nil, seedOffsetTEF))
}

func TestSeedOffsetsAreDistinct(t *testing.T) {
	offsets := []int64{
		seedOffsetTEF,
		seedOffsetProbOfAction,
		seedOffsetSusceptibility,
		seedOffsetProductivity,
		seedOffsetResponse,
		seedOffsetReplacement,
		seedOffsetFines,
		seedOffsetCompetitiveAdv,
		seedOffsetReputation,
		seedOffsetSLEF,
		seedOffsetCopula,
	}

	seen := make(map[int64]bool)
	for _, o := range offsets {
		assert.False(t, seen[o], "duplicate seed offset %d", o)
		seen[o] = true
	}
}

func TestNewSourceDeterminism(t *testing.T) {
	a := newSource(SeedOf(99))
	b := newSource(SeedOf(99))
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Uint64(), b.Uint64())
	}

	c := newSource(SeedOf(100))
	d := newSource(SeedOf(99))
	same := true
	for i := 0; i < 10; i++ {
		if c.Uint64() != d.Uint64() {
			same = false
		}
	}
	assert.False(t, same)
}
