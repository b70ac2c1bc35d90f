package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRating(t *testing.T) {
	userID := uuid.New()
	ratedBy := uuid.New()

	t.Run("accepts boundary scores", func(t *testing.T) {
		for _, score := range []int{1, 5} {
			rating, err := NewRating(userID, ratedBy, score, "solid work")
			require.NoError(t, err)
			assert.Equal(t, score, rating.Score())
		}
	})

	t.Run("rejects out of range scores", func(t *testing.T) {
		for _, score := range []int{0, -3, 6, 100} {
			_, err := NewRating(userID, ratedBy, score, "")
			assert.ErrorIs(t, err, ErrInvalidScore, "score %d", score)
		}
	})

	t.Run("rejects self rating", func(t *testing.T) {
		_, err := NewRating(userID, userID, 4, "")
		assert.ErrorIs(t, err, ErrSelfRating)
	})
}

func TestAverageRating(t *testing.T) {
	assert.Equal(t, 0.0, AverageRating(nil))
	assert.Equal(t, 4.0, AverageRating([]int{3, 5}))
	assert.InDelta(t, 4.333, AverageRating([]int{4, 4, 5}), 0.001)
}

func TestGlobalMeanRating(t *testing.T) {
	t.Run("weights users by rating count", func(t *testing.T) {
		// A=[5,5], B=[1]: the mean of the three scores is 11/3, not the
		// 3.0 that averaging the two per-user averages would give.
		summaries := []RatingSummary{
			{UserID: uuid.New(), Count: 2, Average: 5.0},
			{UserID: uuid.New(), Count: 1, Average: 1.0},
		}

		assert.InDelta(t, 11.0/3.0, GlobalMeanRating(summaries), 0.0001)
	})

	t.Run("ignores unrated users", func(t *testing.T) {
		summaries := []RatingSummary{
			{UserID: uuid.New(), Count: 2, Average: 4.0},
			{UserID: uuid.New(), Count: 0, Average: 0},
			{UserID: uuid.New(), Count: 1, Average: 3.0},
		}

		// (2*4 + 1*3) / 3
		assert.InDelta(t, 11.0/3.0, GlobalMeanRating(summaries), 0.0001)
	})

	t.Run("no rated users yields zero", func(t *testing.T) {
		assert.Equal(t, 0.0, GlobalMeanRating([]RatingSummary{{Count: 0}}))
		assert.Equal(t, 0.0, GlobalMeanRating(nil))
	})
}

func TestWeightedRating(t *testing.T) {
	t.Run("no ratings scores zero", func(t *testing.T) {
		assert.Equal(t, 0.0, WeightedRating(0, 0, 3.5))
	})

	t.Run("few ratings pull toward global mean", func(t *testing.T) {
		globalMean := 3.5

		// One perfect score barely beats a long consistent record.
		x := WeightedRating(1, 5.0, globalMean)
		y := WeightedRating(10, 4.0, globalMean)

		assert.InDelta(t, 3.75, x, 0.0001)
		assert.InDelta(t, 3.8333, y, 0.0001)
		assert.Greater(t, y, x)
	})

	t.Run("weight of own average grows with count", func(t *testing.T) {
		globalMean := 3.0
		prev := WeightedRating(1, 5.0, globalMean)
		for count := 2; count <= 50; count *= 2 {
			cur := WeightedRating(count, 5.0, globalMean)
			assert.Greater(t, cur, prev)
			prev = cur
		}
		assert.Less(t, prev, 5.0)
	})
}
