package httpdto

import (
	"time"

	"livepoll/internal/domain/poll"
)

// CreatePollRequest is used for POST /polls
type CreatePollRequest struct {
	Question string   `json:"question" binding:"required"`
	Options  []string `json:"options" binding:"required"`
}

// UpdatePollRequest is used for PATCH /polls/:id. Omitted fields stay as
// they are.
type UpdatePollRequest struct {
	Question *string  `json:"question,omitempty"`
	Options  []string `json:"options,omitempty"`
}

// SetCompletionRequest is used for PUT /polls/:id/completion
type SetCompletionRequest struct {
	Completed *bool `json:"completed" binding:"required"`
}

// PollDTO represents a poll in API responses
type PollDTO struct {
	ID        string   `json:"id"`
	Question  string   `json:"question"`
	Options   []string `json:"options"`
	CreatorID string   `json:"creator_id"`
	Completed bool     `json:"completed"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

// PollsResponse is returned when listing polls
type PollsResponse struct {
	Polls []PollDTO `json:"polls"`
}

// PollResultsResponse is returned for GET /polls/:id/results. Counts holds
// one entry per option index; options nobody picked yet report zero.
type PollResultsResponse struct {
	PollID     string  `json:"poll_id"`
	Question   string  `json:"question"`
	Completed  bool    `json:"completed"`
	Counts     []int64 `json:"counts"`
	TotalVotes int64   `json:"total_votes"`
	Watchers   int64   `json:"watchers"`
}

// FromPoll converts a poll entity to its API representation
func FromPoll(p poll.Poll) PollDTO {
	return PollDTO{
		ID:        p.ID.String(),
		Question:  p.Question,
		Options:   p.Options,
		CreatorID: p.CreatorID.String(),
		Completed: p.Completed,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
		UpdatedAt: p.UpdatedAt.Format(time.RFC3339),
	}
}

// FromPollSlice converts a slice of poll entities
func FromPollSlice(polls []poll.Poll) []PollDTO {
	out := make([]PollDTO, len(polls))
	for i, p := range polls {
		out[i] = FromPoll(p)
	}
	return out
}
