package steps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lettora/rentals-service/internal/models"
)

func TestCatalogLinks(t *testing.T) {
	cat := Catalog()
	require.Len(t, cat, 9)

	assert.Nil(t, cat[0].PreviousKey)
	assert.Nil(t, cat[len(cat)-1].NextKey)

	for i, s := range cat {
		assert.Equal(t, i+1, s.ID)
		if i > 0 {
			require.NotNil(t, s.PreviousKey)
			assert.Equal(t, cat[i-1].Key, *s.PreviousKey)
		}
		if i < len(cat)-1 {
			require.NotNil(t, s.NextKey)
			assert.Equal(t, cat[i+1].Key, *s.NextKey)
		}
	}
}

func TestResolveInitialStep_NoLastStep(t *testing.T) {
	id, err := ResolveInitialStep(nil)
	require.NoError(t, err)
	assert.Equal(t, First().ID, id)
}

func TestResolveInitialStep_Resumes(t *testing.T) {
	// For every non-terminal step, a returning applicant lands on the
	// step immediately after it.
	for _, s := range Catalog() {
		if s.NextKey == nil {
			continue
		}
		k := s.Key
		id, err := ResolveInitialStep(&k)
		require.NoError(t, err)
		assert.Equal(t, s.ID+1, id, "lastStep=%s", k)
	}
}

func TestResolveInitialStep_TerminalClamps(t *testing.T) {
	last := Last().Key
	id, err := ResolveInitialStep(&last)
	require.NoError(t, err)
	assert.Equal(t, Last().ID, id)
}

func TestResolveInitialStep_UnknownKey(t *testing.T) {
	bogus := models.StepKey("SOMETHING_ELSE")
	_, err := ResolveInitialStep(&bogus)
	assert.Error(t, err)
}

func TestAdvanceAndRetreat(t *testing.T) {
	next, ok, err := Advance(First().ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, First().ID+1, next)

	_, ok, err = Advance(Last().ID)
	require.NoError(t, err)
	assert.False(t, ok, "terminal step must not advance")

	prev, err := Retreat(Last().ID)
	require.NoError(t, err)
	assert.Equal(t, Last().ID-1, prev)

	// Clamped at the front.
	prev, err = Retreat(First().ID)
	require.NoError(t, err)
	assert.Equal(t, First().ID, prev)
}

func TestAdvanceOutOfRange(t *testing.T) {
	_, _, err := Advance(0)
	assert.Error(t, err)
	_, _, err = Advance(Count() + 1)
	assert.Error(t, err)
}
