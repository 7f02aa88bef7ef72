package websocket

import (
	"context"
	"strings"

	"livepoll/internal/events"
	"livepoll/internal/repository"

	"github.com/google/uuid"
)

// ChannelAuthorizer handles authorization for WebSocket channel subscriptions
type ChannelAuthorizer struct {
	pollRepo repository.PollRepository
}

// NewChannelAuthorizer creates a new channel authorizer
func NewChannelAuthorizer(pollRepo repository.PollRepository) *ChannelAuthorizer {
	return &ChannelAuthorizer{pollRepo: pollRepo}
}

// CanSubscribe checks if a user is authorized to subscribe to a channel.
// Polls are visible to every authenticated user, so poll channels only
// require that the poll exists; the firehose is open to everyone signed in.
func (a *ChannelAuthorizer) CanSubscribe(ctx context.Context, userID string, channel string) (bool, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return false, nil
	}

	// Firehose of all poll and vote events
	if channel == events.ChannelPolls {
		return true, nil
	}

	// Single-poll result streams - check the poll exists
	if strings.HasPrefix(channel, events.ChannelPrefixPoll) {
		pollIDStr := strings.TrimPrefix(channel, events.ChannelPrefixPoll)
		pollID, err := uuid.Parse(pollIDStr)
		if err != nil {
			return false, nil
		}
		if _, err := a.pollRepo.GetByID(ctx, pollID); err != nil {
			return false, nil // Poll not found
		}
		return true, nil
	}

	// System channels - not allowed for regular users
	if strings.HasPrefix(channel, "channel:system:") {
		return false, nil
	}

	// Default deny
	return false, nil
}
