package pricing

import (
	"math"

	apperrors "taskmarket.app/taskmarket/internal/errors"
)

const (
	minVotes = 1
	maxVotes = 50
)

// VoteCredit is the reputation increment applied to both parties when a
// task settles.
type VoteCredit struct {
	PosterVotes int `json:"poster_votes"`
	TaskerVotes int `json:"tasker_votes"`
}

// CalculateVotes derives reputation credit from the task budget and the
// accepted offer amount. The poster is credited for money saved against
// the budget, the tasker for the size of the job. Both values are clamped
// to [1, 50]. Deterministic: settlement and later audit recomputation must
// agree.
func CalculateVotes(taskBudget, offerAmount float64) (VoteCredit, error) {
	if !validAmount(taskBudget) || !validAmount(offerAmount) {
		return VoteCredit{}, apperrors.ErrInvalidAmount
	}

	saved := taskBudget - offerAmount

	return VoteCredit{
		PosterVotes: clampVotes(int(math.Floor(saved / 10))),
		TaskerVotes: clampVotes(int(math.Floor(offerAmount / 100))),
	}, nil
}

func validAmount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}

func clampVotes(v int) int {
	if v < minVotes {
		return minVotes
	}
	if v > maxVotes {
		return maxVotes
	}
	return v
}
