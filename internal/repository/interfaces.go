package repository

import (
	"context"

	"github.com/google/uuid"

	"livepoll/internal/domain/poll"
	"livepoll/internal/domain/user"
)

type UserRepository interface {
	Create(ctx context.Context, u *user.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
	GetUserByUsername(ctx context.Context, username string) (user.User, error)

	CreateSession(ctx context.Context, s *user.UserSession) error
	GetSessionByID(ctx context.Context, sessionID uuid.UUID) (user.UserSession, error)
	UpdateSession(ctx context.Context, s user.UserSession) error
	RevokeSession(ctx context.Context, sessionID uuid.UUID) error
	RevokeAllUserSessions(ctx context.Context, userID uuid.UUID) error
}

type PollRepository interface {
	Create(ctx context.Context, p *poll.Poll) error
	GetByID(ctx context.Context, id uuid.UUID) (poll.Poll, error)
	Update(ctx context.Context, p poll.Poll) error
	SetCompleted(ctx context.Context, id uuid.UUID, completed bool) error
	// Delete removes the poll and all of its votes in one transaction.
	Delete(ctx context.Context, id uuid.UUID) error

	GetAll(ctx context.Context) ([]poll.Poll, error)
	GetByCreator(ctx context.Context, creatorID uuid.UUID) ([]poll.Poll, error)
	CountByCompletion(ctx context.Context) (total, completed int64, err error)
}

type VoteRepository interface {
	Create(ctx context.Context, v *poll.Vote) error
	GetByPollAndVoter(ctx context.Context, pollID, voterID uuid.UUID) (poll.Vote, error)
	UpdateOption(ctx context.Context, voteID uuid.UUID, optionIndex int) error
	Delete(ctx context.Context, voteID uuid.UUID) error

	GetByPoll(ctx context.Context, pollID uuid.UUID) ([]poll.Vote, error)
	GetByVoter(ctx context.Context, voterID uuid.UUID) ([]poll.Vote, error)
	CountAll(ctx context.Context) (int64, error)
	CountByPoll(ctx context.Context, pollID uuid.UUID) (int64, error)
}
