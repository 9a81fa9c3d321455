package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "taskmarket.app/taskmarket/internal/errors"
)

func TestCalculateVotes(t *testing.T) {
	votes, err := CalculateVotes(3400, 3150)
	require.NoError(t, err)

	// saved 250 → 25; offer 3150 → floor(31.5) = 31.
	assert.Equal(t, 25, votes.PosterVotes)
	assert.Equal(t, 31, votes.TaskerVotes)
}

func TestCalculateVotes_ClampsToBounds(t *testing.T) {
	// Tiny savings and a tiny offer both floor to the minimum of 1.
	votes, err := CalculateVotes(105, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, votes.PosterVotes)
	assert.Equal(t, 1, votes.TaskerVotes)

	// Huge savings and a huge offer cap at 50.
	votes, err = CalculateVotes(100000, 90000)
	require.NoError(t, err)
	assert.Equal(t, 50, votes.PosterVotes)
	assert.Equal(t, 50, votes.TaskerVotes)
}

func TestCalculateVotes_OfferAboveBudget(t *testing.T) {
	// Negative savings still credit the poster the minimum.
	votes, err := CalculateVotes(100, 150)
	require.NoError(t, err)
	assert.Equal(t, 1, votes.PosterVotes)
	assert.Equal(t, 1, votes.TaskerVotes)
}

func TestCalculateVotes_Deterministic(t *testing.T) {
	first, err := CalculateVotes(3400, 3150)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := CalculateVotes(3400, 3150)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestCalculateVotes_InvalidInput(t *testing.T) {
	_, err := CalculateVotes(0, 100)
	assert.ErrorIs(t, err, apperrors.ErrInvalidAmount)

	_, err = CalculateVotes(100, -5)
	assert.ErrorIs(t, err, apperrors.ErrInvalidAmount)
}
