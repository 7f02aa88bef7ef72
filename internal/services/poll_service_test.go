package services

import (
	"context"
	"errors"
	"testing"

	"livepoll/internal/domain/poll"
	"livepoll/internal/domain/user"
	"livepoll/internal/events"
	poll_errors "livepoll/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

func newPollFixture() (*PollService, *VoteService, *fakePollRepo, *fakeVoteRepo, *capturePublisher) {
	pollRepo := newFakePollRepo()
	voteRepo := newFakeVoteRepo()
	pollRepo.votes = voteRepo
	pub := newCapturePublisher()
	return NewPollService(pollRepo, voteRepo, pub),
		NewVoteService(pollRepo, voteRepo, pub),
		pollRepo, voteRepo, pub
}

func TestCreatePollValidation(t *testing.T) {
	polls, _, pollRepo, _, _ := newPollFixture()
	ctx := identityContext(uuid.New(), user.RoleUser)

	tests := []struct {
		name     string
		question string
		options  []string
		wantErr  error
	}{
		{
			name:     "valid poll",
			question: "Best language?",
			options:  []string{"Go", "Rust"},
			wantErr:  nil,
		},
		{
			name:     "blank question",
			question: "   ",
			options:  []string{"Go", "Rust"},
			wantErr:  poll_errors.ErrInvalidInput,
		},
		{
			name:     "single option",
			question: "Best language?",
			options:  []string{"Go"},
			wantErr:  poll_errors.ErrInvalidInput,
		},
		{
			name:     "blank options collapse below minimum",
			question: "Best language?",
			options:  []string{"Go", "  ", ""},
			wantErr:  poll_errors.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := pollRepo.pollCount()
			p, err := polls.Create(ctx, CreatePollInput{Question: tt.question, Options: tt.options})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Create() error = %v, want %v", err, tt.wantErr)
				}
				// A rejected create must leave the store untouched.
				if got := pollRepo.pollCount(); got != before {
					t.Errorf("poll count changed from %d to %d on rejected create", before, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Create() unexpected error: %v", err)
			}
			if p.Completed {
				t.Error("new poll must start uncompleted")
			}
			if p.ID == uuid.Nil {
				t.Error("poll id not assigned")
			}
		})
	}
}

func TestCreatePollTrimsInput(t *testing.T) {
	polls, _, _, _, _ := newPollFixture()
	ctx := identityContext(uuid.New(), user.RoleUser)

	p, err := polls.Create(ctx, CreatePollInput{
		Question: "  Lunch spot?  ",
		Options:  []string{" Thai ", "Pizza", "  "},
	})
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}
	if p.Question != "Lunch spot?" {
		t.Errorf("question not trimmed: %q", p.Question)
	}
	if len(p.Options) != 2 || p.Options[0] != "Thai" || p.Options[1] != "Pizza" {
		t.Errorf("options not trimmed: %v", p.Options)
	}
}

func TestPollOperationsRequireIdentity(t *testing.T) {
	polls, _, pollRepo, _, _ := newPollFixture()
	ctx := context.Background()

	if _, err := polls.List(ctx); !errors.Is(err, poll_errors.ErrUnauthorized) {
		t.Errorf("List without identity = %v, want ErrUnauthorized", err)
	}
	if _, err := polls.Create(ctx, CreatePollInput{Question: "q", Options: []string{"a", "b"}}); !errors.Is(err, poll_errors.ErrUnauthorized) {
		t.Errorf("Create without identity = %v, want ErrUnauthorized", err)
	}
	if _, err := polls.Get(ctx, uuid.New()); !errors.Is(err, poll_errors.ErrUnauthorized) {
		t.Errorf("Get without identity = %v, want ErrUnauthorized", err)
	}
	if err := polls.Delete(ctx, uuid.New()); !errors.Is(err, poll_errors.ErrUnauthorized) {
		t.Errorf("Delete without identity = %v, want ErrUnauthorized", err)
	}

	// Unauthenticated calls fail before any store access.
	if n := pollRepo.callCount(); n != 0 {
		t.Errorf("poll store accessed %d times on unauthenticated calls", n)
	}
}

func TestUpdatePollOwnership(t *testing.T) {
	polls, _, _, _, _ := newPollFixture()
	creator := uuid.New()
	stranger := uuid.New()

	p, err := polls.Create(identityContext(creator, user.RoleUser), CreatePollInput{
		Question: "Keyboard layout?",
		Options:  []string{"qwerty", "colemak"},
	})
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	question := "Preferred keyboard layout?"
	if _, err := polls.Update(identityContext(stranger, user.RoleUser), p.ID, UpdatePollInput{Question: &question}); !errors.Is(err, poll_errors.ErrForbidden) {
		t.Errorf("Update by non-creator = %v, want ErrForbidden", err)
	}

	updated, err := polls.Update(identityContext(creator, user.RoleUser), p.ID, UpdatePollInput{Question: &question})
	if err != nil {
		t.Fatalf("Update by creator unexpected error: %v", err)
	}
	if updated.Question != question {
		t.Errorf("question = %q, want %q", updated.Question, question)
	}
}

func TestUpdatePollOptionStability(t *testing.T) {
	polls, votes, _, _, _ := newPollFixture()
	creator := uuid.New()
	voter := uuid.New()
	ctx := identityContext(creator, user.RoleUser)

	p, err := polls.Create(ctx, CreatePollInput{
		Question: "Team lunch?",
		Options:  []string{"Thai", "Pizza"},
	})
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	// Before any vote exists options may be replaced wholesale.
	if _, err := polls.Update(ctx, p.ID, UpdatePollInput{Options: []string{"Sushi", "Tacos"}}); err != nil {
		t.Fatalf("Update with no votes unexpected error: %v", err)
	}

	if _, err := votes.Cast(identityContext(voter, user.RoleUser), p.ID, 0); err != nil {
		t.Fatalf("Cast() unexpected error: %v", err)
	}

	// With votes present the existing options must stay as an unchanged
	// prefix.
	if _, err := polls.Update(ctx, p.ID, UpdatePollInput{Options: []string{"Tacos", "Sushi"}}); !errors.Is(err, poll_errors.ErrInvalidInput) {
		t.Errorf("reorder with votes = %v, want ErrInvalidInput", err)
	}
	if _, err := polls.Update(ctx, p.ID, UpdatePollInput{Options: []string{"Sushi"}}); !errors.Is(err, poll_errors.ErrInvalidInput) {
		t.Errorf("shrink with votes = %v, want ErrInvalidInput", err)
	}
	if _, err := polls.Update(ctx, p.ID, UpdatePollInput{Options: []string{"Sushi", "Tacos", "Ramen"}}); err != nil {
		t.Errorf("append with votes unexpected error: %v", err)
	}
}

func TestToggleCompletion(t *testing.T) {
	polls, _, _, _, pub := newPollFixture()
	creator := uuid.New()
	admin := uuid.New()
	stranger := uuid.New()

	p, err := polls.Create(identityContext(creator, user.RoleUser), CreatePollInput{
		Question: "Ship it?",
		Options:  []string{"yes", "no"},
	})
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	if _, err := polls.ToggleCompletion(identityContext(stranger, user.RoleUser), p.ID, true); !errors.Is(err, poll_errors.ErrForbidden) {
		t.Errorf("toggle by stranger = %v, want ErrForbidden", err)
	}

	done, err := polls.ToggleCompletion(identityContext(creator, user.RoleUser), p.ID, true)
	if err != nil {
		t.Fatalf("toggle by creator unexpected error: %v", err)
	}
	if !done.Completed {
		t.Error("poll not marked completed")
	}

	// Setting the same value again is a valid no-op.
	if _, err := polls.ToggleCompletion(identityContext(creator, user.RoleUser), p.ID, true); err != nil {
		t.Errorf("idempotent toggle unexpected error: %v", err)
	}

	// Admins may reopen polls they do not own.
	reopened, err := polls.ToggleCompletion(identityContext(admin, user.RoleAdmin), p.ID, false)
	if err != nil {
		t.Fatalf("toggle by admin unexpected error: %v", err)
	}
	if reopened.Completed {
		t.Error("poll not reopened")
	}

	if pub.count(events.ChannelPrefixPoll+p.ID.String()) == 0 {
		t.Error("no completion events published to the poll channel")
	}
}

func TestDeletePollCascadesVotes(t *testing.T) {
	polls, votes, pollRepo, voteRepo, _ := newPollFixture()
	creator := uuid.New()
	voter := uuid.New()

	p, err := polls.Create(identityContext(creator, user.RoleUser), CreatePollInput{
		Question: "Standup time?",
		Options:  []string{"9am", "10am"},
	})
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	if _, err := votes.Cast(identityContext(voter, user.RoleUser), p.ID, 1); err != nil {
		t.Fatalf("Cast() unexpected error: %v", err)
	}

	// Deleting is creator-only, even for admins.
	if err := polls.Delete(identityContext(voter, user.RoleAdmin), p.ID); !errors.Is(err, poll_errors.ErrForbidden) {
		t.Errorf("Delete by admin non-creator = %v, want ErrForbidden", err)
	}

	if err := polls.Delete(identityContext(creator, user.RoleUser), p.ID); err != nil {
		t.Fatalf("Delete() unexpected error: %v", err)
	}

	if _, err := pollRepo.GetByID(context.Background(), p.ID); !errors.Is(err, poll_errors.ErrNotFound) {
		t.Errorf("poll still present after delete: %v", err)
	}
	left, _ := voteRepo.GetByPoll(context.Background(), p.ID)
	if len(left) != 0 {
		t.Errorf("votes not cascaded, %d remain", len(left))
	}
}

func TestListByCreatorFiltersPolls(t *testing.T) {
	polls, _, _, _, _ := newPollFixture()
	alice := uuid.New()
	bob := uuid.New()

	if _, err := polls.Create(identityContext(alice, user.RoleUser), CreatePollInput{Question: "a?", Options: []string{"1", "2"}}); err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}
	if _, err := polls.Create(identityContext(bob, user.RoleUser), CreatePollInput{Question: "b?", Options: []string{"1", "2"}}); err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	mine, err := polls.ListByCreator(identityContext(alice, user.RoleUser), alice)
	if err != nil {
		t.Fatalf("ListByCreator() unexpected error: %v", err)
	}
	if len(mine) != 1 || mine[0].CreatorID != alice {
		t.Errorf("ListByCreator returned %d polls", len(mine))
	}

	all, err := polls.List(identityContext(alice, user.RoleUser))
	if err != nil {
		t.Fatalf("List() unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("List returned %d polls, want 2", len(all))
	}
}

func TestUpdateMissingPollReturnsNotFound(t *testing.T) {
	polls, _, _, _, _ := newPollFixture()
	question := "anything"
	_, err := polls.Update(identityContext(uuid.New(), user.RoleUser), uuid.New(), UpdatePollInput{Question: &question})
	if !errors.Is(err, poll_errors.ErrNotFound) {
		t.Errorf("Update missing poll = %v, want ErrNotFound", err)
	}
}

func TestCheckOptionStabilityDirect(t *testing.T) {
	svc, _, _, voteRepo, _ := newPollFixture()

	p := poll.Poll{
		ID:      uuid.New(),
		Options: datatypes.JSONSlice[string]{"a", "b"},
	}
	v := poll.Vote{ID: uuid.New(), PollID: p.ID, VoterID: uuid.New(), OptionIndex: 0}
	if err := voteRepo.Create(context.Background(), &v); err != nil {
		t.Fatalf("vote setup failed: %v", err)
	}

	if err := svc.checkOptionStability(context.Background(), p, []string{"a", "b", "c"}); err != nil {
		t.Errorf("append rejected: %v", err)
	}
	if err := svc.checkOptionStability(context.Background(), p, []string{"a", "x"}); !errors.Is(err, poll_errors.ErrInvalidInput) {
		t.Errorf("rename allowed: %v", err)
	}
}
