package services

import (
	"context"
	"encoding/json"
	"time"

	"livepoll/internal/events"
)

// publishPollEvent fans a domain event out to the poll's own channel and the
// firehose channel that list pages watch. Publishing is best-effort: a failed
// publish never fails the operation that produced it, subscribers reconcile
// on their next full read.
func publishPollEvent(ctx context.Context, pub events.Publisher, eventType, pollID string, payload any) {
	if pub == nil {
		return
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}

	aggregate := events.AggregateTypePoll
	switch eventType {
	case events.EventTypeVoteCast, events.EventTypeVoteChanged, events.EventTypeVoteRetracted:
		aggregate = events.AggregateTypeVote
	}

	envelope := events.Envelope{
		EventType:     eventType,
		AggregateType: aggregate,
		AggregateID:   pollID,
		OccurredAt:    time.Now(),
		Payload:       raw,
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return
	}

	_ = pub.Publish(ctx, events.ChannelPrefixPoll+pollID, data)
	_ = pub.Publish(ctx, events.ChannelPolls, data)
}
