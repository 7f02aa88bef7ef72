package httpdto

import (
	"time"

	"livepoll/internal/domain/poll"
)

// CastVoteRequest is used for POST /polls/:id/votes and PUT /polls/:id/votes
type CastVoteRequest struct {
	OptionIndex *int `json:"option_index" binding:"required"`
}

// VoteDTO represents a vote in API responses
type VoteDTO struct {
	ID          string `json:"id"`
	PollID      string `json:"poll_id"`
	VoterID     string `json:"voter_id"`
	OptionIndex int    `json:"option_index"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// MyVoteResponse is returned for GET /polls/:id/votes/me
type MyVoteResponse struct {
	HasVoted bool     `json:"has_voted"`
	Vote     *VoteDTO `json:"vote,omitempty"`
}

// VotesResponse is returned when listing votes
type VotesResponse struct {
	Votes []VoteDTO `json:"votes"`
}

// FromVote converts a vote entity to its API representation
func FromVote(v poll.Vote) VoteDTO {
	return VoteDTO{
		ID:          v.ID.String(),
		PollID:      v.PollID.String(),
		VoterID:     v.VoterID.String(),
		OptionIndex: v.OptionIndex,
		CreatedAt:   v.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   v.UpdatedAt.Format(time.RFC3339),
	}
}

// FromVoteSlice converts a slice of vote entities
func FromVoteSlice(votes []poll.Vote) []VoteDTO {
	out := make([]VoteDTO, len(votes))
	for i, v := range votes {
		out[i] = FromVote(v)
	}
	return out
}
