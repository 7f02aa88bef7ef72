package handler

import (
	"errors"
	"net/http"

	"livepoll/internal/redis"
	"livepoll/internal/services"
	"livepoll/internal/transport/httpdto"
	poll_errors "livepoll/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type VoteHandler struct {
	votes    *services.VoteService
	polls    *services.PollService
	presence *redis.PresenceStore
}

func NewVoteHandler(votes *services.VoteService, polls *services.PollService, presence *redis.PresenceStore) *VoteHandler {
	return &VoteHandler{votes: votes, polls: polls, presence: presence}
}

// Cast records the caller's vote on a poll.
func (h *VoteHandler) Cast(c *gin.Context) {
	var req httpdto.CastVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.OptionIndex == nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	pollID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid poll id", "INVALID_REQUEST"))
		return
	}

	vote, err := h.votes.Cast(c.Request.Context(), pollID, *req.OptionIndex)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromVote(vote)))
}

// Change moves the caller's existing vote to a different option.
func (h *VoteHandler) Change(c *gin.Context) {
	var req httpdto.CastVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.OptionIndex == nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	pollID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid poll id", "INVALID_REQUEST"))
		return
	}

	vote, err := h.votes.ChangeOption(c.Request.Context(), pollID, *req.OptionIndex)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromVote(vote)))
}

// Remove retracts the caller's vote.
func (h *VoteHandler) Remove(c *gin.Context) {
	pollID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid poll id", "INVALID_REQUEST"))
		return
	}

	if err := h.votes.Remove(c.Request.Context(), pollID); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

// MyVote reports whether the caller voted on a poll and which option.
func (h *VoteHandler) MyVote(c *gin.Context) {
	pollID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid poll id", "INVALID_REQUEST"))
		return
	}

	vote, err := h.votes.MyVote(c.Request.Context(), pollID)
	if err != nil {
		if errors.Is(err, poll_errors.ErrNotFound) {
			c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.MyVoteResponse{HasVoted: false}))
			return
		}
		writeError(c, err)
		return
	}

	dto := httpdto.FromVote(vote)
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.MyVoteResponse{HasVoted: true, Vote: &dto}))
}

// ListByPoll returns every vote on a poll.
func (h *VoteHandler) ListByPoll(c *gin.Context) {
	pollID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid poll id", "INVALID_REQUEST"))
		return
	}

	items, err := h.votes.ListByPoll(c.Request.Context(), pollID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.VotesResponse{
		Votes: httpdto.FromVoteSlice(items),
	}))
}

// ListMine returns all votes the caller has cast.
func (h *VoteHandler) ListMine(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	items, err := h.votes.ListByVoter(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.VotesResponse{
		Votes: httpdto.FromVoteSlice(items),
	}))
}

// Results returns the per-option tally for a poll plus the current live
// watcher count. Options no one picked report zero, so the counts slice
// always lines up with the poll's options.
func (h *VoteHandler) Results(c *gin.Context) {
	pollID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid poll id", "INVALID_REQUEST"))
		return
	}

	item, err := h.polls.Get(c.Request.Context(), pollID)
	if err != nil {
		writeError(c, err)
		return
	}

	tally, err := h.votes.Tally(c.Request.Context(), pollID)
	if err != nil {
		writeError(c, err)
		return
	}

	counts := make([]int64, len(item.Options))
	var total int64
	for idx, n := range tally {
		if idx >= 0 && idx < len(counts) {
			counts[idx] = n
		}
		total += n
	}

	var watchers int64
	if h.presence != nil {
		watchers, _ = h.presence.WatcherCount(c.Request.Context(), pollID.String())
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.PollResultsResponse{
		PollID:     item.ID.String(),
		Question:   item.Question,
		Completed:  item.Completed,
		Counts:     counts,
		TotalVotes: total,
		Watchers:   watchers,
	}))
}
