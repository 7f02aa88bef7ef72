package services

import (
	"context"
	"strings"

	"livepoll/internal/domain/poll"
	"livepoll/internal/events"
	"livepoll/internal/repository"
	poll_errors "livepoll/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type PollService struct {
	pollRepo  repository.PollRepository
	voteRepo  repository.VoteRepository
	publisher events.Publisher
}

func NewPollService(pollRepo repository.PollRepository, voteRepo repository.VoteRepository, publisher events.Publisher) *PollService {
	return &PollService{pollRepo: pollRepo, voteRepo: voteRepo, publisher: publisher}
}

type CreatePollInput struct {
	Question string
	Options  []string
}

// UpdatePollInput carries a partial update: nil fields are left unchanged.
type UpdatePollInput struct {
	Question *string
	Options  []string
}

func (s *PollService) List(ctx context.Context) ([]poll.Poll, error) {
	if _, err := requireUser(ctx); err != nil {
		return nil, err
	}
	return s.pollRepo.GetAll(ctx)
}

func (s *PollService) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]poll.Poll, error) {
	if _, err := requireUser(ctx); err != nil {
		return nil, err
	}
	return s.pollRepo.GetByCreator(ctx, creatorID)
}

func (s *PollService) Get(ctx context.Context, pollID uuid.UUID) (poll.Poll, error) {
	if _, err := requireUser(ctx); err != nil {
		return poll.Poll{}, err
	}
	return s.pollRepo.GetByID(ctx, pollID)
}

func (s *PollService) Create(ctx context.Context, in CreatePollInput) (poll.Poll, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return poll.Poll{}, err
	}

	question := strings.TrimSpace(in.Question)
	options := trimOptions(in.Options)
	if question == "" || len(options) < 2 {
		return poll.Poll{}, poll_errors.ErrInvalidInput
	}

	p := poll.Poll{
		ID:        uuid.New(),
		Question:  question,
		Options:   datatypes.NewJSONSlice(options),
		CreatorID: userID,
		Completed: false,
	}

	if err := s.pollRepo.Create(ctx, &p); err != nil {
		return poll.Poll{}, err
	}

	publishPollEvent(ctx, s.publisher, events.EventTypePollCreated, p.ID.String(), p)
	return p, nil
}

func (s *PollService) Update(ctx context.Context, pollID uuid.UUID, in UpdatePollInput) (poll.Poll, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return poll.Poll{}, err
	}

	p, err := s.pollRepo.GetByID(ctx, pollID)
	if err != nil {
		return poll.Poll{}, err
	}

	if p.CreatorID != userID {
		return poll.Poll{}, poll_errors.ErrForbidden
	}

	if in.Question != nil {
		question := strings.TrimSpace(*in.Question)
		if question == "" {
			return poll.Poll{}, poll_errors.ErrInvalidInput
		}
		p.Question = question
	}

	if in.Options != nil {
		options := trimOptions(in.Options)
		if len(options) < 2 {
			return poll.Poll{}, poll_errors.ErrInvalidInput
		}
		if err := s.checkOptionStability(ctx, p, options); err != nil {
			return poll.Poll{}, err
		}
		p.Options = datatypes.NewJSONSlice(options)
	}

	if err := s.pollRepo.Update(ctx, p); err != nil {
		return poll.Poll{}, err
	}

	publishPollEvent(ctx, s.publisher, events.EventTypePollUpdated, p.ID.String(), p)
	return p, nil
}

// ToggleCompletion sets the completed flag. Allowed for the creator and for
// admins; setting the flag to its current value is a valid no-op.
func (s *PollService) ToggleCompletion(ctx context.Context, pollID uuid.UUID, completed bool) (poll.Poll, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return poll.Poll{}, err
	}

	p, err := s.pollRepo.GetByID(ctx, pollID)
	if err != nil {
		return poll.Poll{}, err
	}

	if p.CreatorID != userID && !isAdmin(ctx) {
		return poll.Poll{}, poll_errors.ErrForbidden
	}

	if err := s.pollRepo.SetCompleted(ctx, pollID, completed); err != nil {
		return poll.Poll{}, err
	}
	p.Completed = completed

	eventType := events.EventTypePollCompleted
	if !completed {
		eventType = events.EventTypePollReopened
	}
	publishPollEvent(ctx, s.publisher, eventType, p.ID.String(), p)
	return p, nil
}

// Delete removes a poll along with its votes. Creator only, no admin
// override.
func (s *PollService) Delete(ctx context.Context, pollID uuid.UUID) error {
	userID, err := requireUser(ctx)
	if err != nil {
		return err
	}

	p, err := s.pollRepo.GetByID(ctx, pollID)
	if err != nil {
		return err
	}

	if p.CreatorID != userID {
		return poll_errors.ErrForbidden
	}

	if err := s.pollRepo.Delete(ctx, pollID); err != nil {
		return err
	}

	publishPollEvent(ctx, s.publisher, events.EventTypePollDeleted, pollID.String(), p)
	return nil
}

// checkOptionStability rejects option edits that would renumber existing
// votes: once a poll has votes, the current options must survive unchanged as
// a prefix of the new slice. Appending new options is fine.
func (s *PollService) checkOptionStability(ctx context.Context, p poll.Poll, options []string) error {
	count, err := s.voteRepo.CountByPoll(ctx, p.ID)
	if err != nil {
		return err
	}
	if count == 0 {
		return nil
	}
	if len(options) < len(p.Options) {
		return poll_errors.ErrInvalidInput
	}
	for i, existing := range p.Options {
		if options[i] != existing {
			return poll_errors.ErrInvalidInput
		}
	}
	return nil
}

func trimOptions(options []string) []string {
	trimmed := make([]string, 0, len(options))
	for _, option := range options {
		option = strings.TrimSpace(option)
		if option != "" {
			trimmed = append(trimmed, option)
		}
	}
	return trimmed
}
