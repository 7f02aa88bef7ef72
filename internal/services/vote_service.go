package services

import (
	"context"
	"errors"

	"livepoll/internal/domain/poll"
	"livepoll/internal/events"
	"livepoll/internal/repository"
	poll_errors "livepoll/pkg/errors"

	"github.com/google/uuid"
)

type VoteService struct {
	pollRepo  repository.PollRepository
	voteRepo  repository.VoteRepository
	publisher events.Publisher
}

func NewVoteService(pollRepo repository.PollRepository, voteRepo repository.VoteRepository, publisher events.Publisher) *VoteService {
	return &VoteService{pollRepo: pollRepo, voteRepo: voteRepo, publisher: publisher}
}

func (s *VoteService) ListByPoll(ctx context.Context, pollID uuid.UUID) ([]poll.Vote, error) {
	if _, err := requireUser(ctx); err != nil {
		return nil, err
	}
	return s.voteRepo.GetByPoll(ctx, pollID)
}

func (s *VoteService) ListByVoter(ctx context.Context, voterID uuid.UUID) ([]poll.Vote, error) {
	if _, err := requireUser(ctx); err != nil {
		return nil, err
	}
	return s.voteRepo.GetByVoter(ctx, voterID)
}

// Tally counts votes per option index. Options nobody picked have no entry;
// callers default missing indexes to zero.
func (s *VoteService) Tally(ctx context.Context, pollID uuid.UUID) (map[int]int64, error) {
	if _, err := requireUser(ctx); err != nil {
		return nil, err
	}

	votes, err := s.voteRepo.GetByPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}

	counts := make(map[int]int64)
	for _, v := range votes {
		counts[v.OptionIndex]++
	}
	return counts, nil
}

func (s *VoteService) HasVoted(ctx context.Context, pollID uuid.UUID) (bool, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return false, err
	}

	_, err = s.voteRepo.GetByPollAndVoter(ctx, pollID, userID)
	if err != nil {
		if errors.Is(err, poll_errors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// MyVote returns the caller's vote on a poll, ErrNotFound when they have not
// voted.
func (s *VoteService) MyVote(ctx context.Context, pollID uuid.UUID) (poll.Vote, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return poll.Vote{}, err
	}
	return s.voteRepo.GetByPollAndVoter(ctx, pollID, userID)
}

// Cast records the caller's vote. Completed polls reject votes here, not in
// the UI. The existence check gives the friendly error; the unique index on
// (poll_id, voter_id) is what actually closes the concurrent-cast race.
func (s *VoteService) Cast(ctx context.Context, pollID uuid.UUID, optionIndex int) (poll.Vote, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return poll.Vote{}, err
	}

	p, err := s.pollRepo.GetByID(ctx, pollID)
	if err != nil {
		return poll.Vote{}, err
	}
	if p.Completed {
		return poll.Vote{}, poll_errors.ErrPollCompleted
	}
	if optionIndex < 0 || optionIndex >= len(p.Options) {
		return poll.Vote{}, poll_errors.ErrInvalidInput
	}

	if _, err := s.voteRepo.GetByPollAndVoter(ctx, pollID, userID); err == nil {
		return poll.Vote{}, poll_errors.ErrAlreadyVoted
	} else if !errors.Is(err, poll_errors.ErrNotFound) {
		return poll.Vote{}, err
	}

	v := poll.Vote{
		ID:          uuid.New(),
		PollID:      pollID,
		VoterID:     userID,
		OptionIndex: optionIndex,
	}

	if err := s.voteRepo.Create(ctx, &v); err != nil {
		return poll.Vote{}, err
	}

	publishPollEvent(ctx, s.publisher, events.EventTypeVoteCast, pollID.String(), v)
	return v, nil
}

// ChangeOption moves the caller's existing vote to another option. The vote
// row is patched in place, so its ID and voter never change.
func (s *VoteService) ChangeOption(ctx context.Context, pollID uuid.UUID, optionIndex int) (poll.Vote, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return poll.Vote{}, err
	}

	p, err := s.pollRepo.GetByID(ctx, pollID)
	if err != nil {
		return poll.Vote{}, err
	}
	if p.Completed {
		return poll.Vote{}, poll_errors.ErrPollCompleted
	}
	if optionIndex < 0 || optionIndex >= len(p.Options) {
		return poll.Vote{}, poll_errors.ErrInvalidInput
	}

	v, err := s.voteRepo.GetByPollAndVoter(ctx, pollID, userID)
	if err != nil {
		return poll.Vote{}, err
	}

	// The lookup above is voter-scoped, so this can only trip if the
	// repository misbehaves.
	if v.VoterID != userID {
		return poll.Vote{}, poll_errors.ErrForbidden
	}

	if err := s.voteRepo.UpdateOption(ctx, v.ID, optionIndex); err != nil {
		return poll.Vote{}, err
	}
	v.OptionIndex = optionIndex

	publishPollEvent(ctx, s.publisher, events.EventTypeVoteChanged, pollID.String(), v)
	return v, nil
}

// Remove retracts the caller's vote. Allowed on completed polls so voters can
// withdraw from archived results.
func (s *VoteService) Remove(ctx context.Context, pollID uuid.UUID) error {
	userID, err := requireUser(ctx)
	if err != nil {
		return err
	}

	v, err := s.voteRepo.GetByPollAndVoter(ctx, pollID, userID)
	if err != nil {
		return err
	}

	if v.VoterID != userID {
		return poll_errors.ErrForbidden
	}

	if err := s.voteRepo.Delete(ctx, v.ID); err != nil {
		return err
	}

	publishPollEvent(ctx, s.publisher, events.EventTypeVoteRetracted, pollID.String(), v)
	return nil
}
