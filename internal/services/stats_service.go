package services

import (
	"context"
	"math"

	"livepoll/internal/repository"
	poll_errors "livepoll/pkg/errors"
)

// StatsService computes dashboard aggregates on demand. Nothing is persisted
// or cached; every call scans the current state.
type StatsService struct {
	pollRepo repository.PollRepository
	voteRepo repository.VoteRepository
}

func NewStatsService(pollRepo repository.PollRepository, voteRepo repository.VoteRepository) *StatsService {
	return &StatsService{pollRepo: pollRepo, voteRepo: voteRepo}
}

type Overview struct {
	TotalPolls      int64   `json:"total_polls"`
	ActivePolls     int64   `json:"active_polls"`
	CompletedPolls  int64   `json:"completed_polls"`
	TotalVotes      int64   `json:"total_votes"`
	AvgVotesPerPoll float64 `json:"avg_votes_per_poll"`
}

// Overview is the admin dashboard read.
func (s *StatsService) Overview(ctx context.Context) (Overview, error) {
	if _, err := requireUser(ctx); err != nil {
		return Overview{}, err
	}
	if !isAdmin(ctx) {
		return Overview{}, poll_errors.ErrForbidden
	}

	total, completed, err := s.pollRepo.CountByCompletion(ctx)
	if err != nil {
		return Overview{}, err
	}

	votes, err := s.voteRepo.CountAll(ctx)
	if err != nil {
		return Overview{}, err
	}

	avg := 0.0
	if total > 0 {
		avg = math.Round(float64(votes)/float64(total)*100) / 100
	}

	return Overview{
		TotalPolls:      total,
		ActivePolls:     total - completed,
		CompletedPolls:  completed,
		TotalVotes:      votes,
		AvgVotesPerPoll: avg,
	}, nil
}
