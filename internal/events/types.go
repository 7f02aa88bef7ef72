package events

// Event type constants, format: domain.action

// Poll events
const (
	EventTypePollCreated   = "poll.created"
	EventTypePollUpdated   = "poll.updated"
	EventTypePollCompleted = "poll.completed"
	EventTypePollReopened  = "poll.reopened"
	EventTypePollDeleted   = "poll.deleted"
)

// Vote events
const (
	EventTypeVoteCast      = "vote.cast"
	EventTypeVoteChanged   = "vote.changed"
	EventTypeVoteRetracted = "vote.retracted"
)

// Aggregate type constants
const (
	AggregateTypePoll = "poll"
	AggregateTypeVote = "vote"
)

// Redis channel layout. Every poll has its own channel for detail pages;
// list pages watch the firehose channel.
const (
	ChannelPolls      = "channel:polls"
	ChannelPrefixPoll = "channel:poll:"
)
