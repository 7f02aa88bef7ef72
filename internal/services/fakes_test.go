package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"livepoll/internal/domain/poll"
	"livepoll/internal/domain/user"
	poll_errors "livepoll/pkg/errors"

	"github.com/google/uuid"
)

// In-memory repository fakes. They mirror the behavior of the postgres
// repositories: ErrNotFound for missing rows, ErrAlreadyVoted for duplicate
// (poll, voter) pairs, ErrAlreadyExists for taken identities. Every method
// bumps calls so tests can assert an operation never reached the store.

type fakePollRepo struct {
	mu    sync.Mutex
	calls int
	polls map[uuid.UUID]poll.Poll
	votes *fakeVoteRepo // set when delete should cascade
}

func newFakePollRepo() *fakePollRepo {
	return &fakePollRepo{polls: make(map[uuid.UUID]poll.Poll)}
}

func (r *fakePollRepo) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func (r *fakePollRepo) pollCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.polls)
}

func (r *fakePollRepo) Create(_ context.Context, p *poll.Poll) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	p.UpdatedAt = time.Now()
	r.polls[p.ID] = *p
	return nil
}

func (r *fakePollRepo) GetByID(_ context.Context, id uuid.UUID) (poll.Poll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	p, ok := r.polls[id]
	if !ok {
		return poll.Poll{}, poll_errors.ErrNotFound
	}
	return p, nil
}

func (r *fakePollRepo) Update(_ context.Context, p poll.Poll) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if _, ok := r.polls[p.ID]; !ok {
		return poll_errors.ErrNotFound
	}
	p.UpdatedAt = time.Now()
	r.polls[p.ID] = p
	return nil
}

func (r *fakePollRepo) SetCompleted(_ context.Context, id uuid.UUID, completed bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	p, ok := r.polls[id]
	if !ok {
		return poll_errors.ErrNotFound
	}
	p.Completed = completed
	p.UpdatedAt = time.Now()
	r.polls[id] = p
	return nil
}

func (r *fakePollRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	r.calls++
	if _, ok := r.polls[id]; !ok {
		r.mu.Unlock()
		return poll_errors.ErrNotFound
	}
	delete(r.polls, id)
	r.mu.Unlock()

	if r.votes != nil {
		r.votes.deleteByPoll(id)
	}
	return nil
}

func (r *fakePollRepo) GetAll(_ context.Context) ([]poll.Poll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	out := make([]poll.Poll, 0, len(r.polls))
	for _, p := range r.polls {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakePollRepo) GetByCreator(_ context.Context, creatorID uuid.UUID) ([]poll.Poll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	out := make([]poll.Poll, 0)
	for _, p := range r.polls {
		if p.CreatorID == creatorID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakePollRepo) CountByCompletion(_ context.Context) (int64, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	var total, completed int64
	for _, p := range r.polls {
		total++
		if p.Completed {
			completed++
		}
	}
	return total, completed, nil
}

type fakeVoteRepo struct {
	mu    sync.Mutex
	calls int
	votes map[uuid.UUID]poll.Vote
}

func newFakeVoteRepo() *fakeVoteRepo {
	return &fakeVoteRepo{votes: make(map[uuid.UUID]poll.Vote)}
}

func (r *fakeVoteRepo) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func (r *fakeVoteRepo) Create(_ context.Context, v *poll.Vote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	for _, existing := range r.votes {
		if existing.PollID == v.PollID && existing.VoterID == v.VoterID {
			return poll_errors.ErrAlreadyVoted
		}
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}
	v.UpdatedAt = time.Now()
	r.votes[v.ID] = *v
	return nil
}

func (r *fakeVoteRepo) GetByPollAndVoter(_ context.Context, pollID, voterID uuid.UUID) (poll.Vote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	for _, v := range r.votes {
		if v.PollID == pollID && v.VoterID == voterID {
			return v, nil
		}
	}
	return poll.Vote{}, poll_errors.ErrNotFound
}

func (r *fakeVoteRepo) UpdateOption(_ context.Context, voteID uuid.UUID, optionIndex int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	v, ok := r.votes[voteID]
	if !ok {
		return poll_errors.ErrNotFound
	}
	v.OptionIndex = optionIndex
	v.UpdatedAt = time.Now()
	r.votes[voteID] = v
	return nil
}

func (r *fakeVoteRepo) Delete(_ context.Context, voteID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if _, ok := r.votes[voteID]; !ok {
		return poll_errors.ErrNotFound
	}
	delete(r.votes, voteID)
	return nil
}

func (r *fakeVoteRepo) GetByPoll(_ context.Context, pollID uuid.UUID) ([]poll.Vote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	out := make([]poll.Vote, 0)
	for _, v := range r.votes {
		if v.PollID == pollID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *fakeVoteRepo) GetByVoter(_ context.Context, voterID uuid.UUID) ([]poll.Vote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	out := make([]poll.Vote, 0)
	for _, v := range r.votes {
		if v.VoterID == voterID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *fakeVoteRepo) CountAll(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return int64(len(r.votes)), nil
}

func (r *fakeVoteRepo) CountByPoll(_ context.Context, pollID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	var n int64
	for _, v := range r.votes {
		if v.PollID == pollID {
			n++
		}
	}
	return n, nil
}

func (r *fakeVoteRepo) deleteByPoll(pollID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, v := range r.votes {
		if v.PollID == pollID {
			delete(r.votes, id)
		}
	}
}

type fakeUserRepo struct {
	mu       sync.Mutex
	users    map[uuid.UUID]user.User
	sessions map[uuid.UUID]user.UserSession
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:    make(map[uuid.UUID]user.User),
		sessions: make(map[uuid.UUID]user.UserSession),
	}
}

func (r *fakeUserRepo) Create(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, u.Email) || strings.EqualFold(existing.Username, u.Username) {
			return poll_errors.ErrAlreadyExists
		}
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	u.UpdatedAt = time.Now()
	r.users[u.ID] = *u
	return nil
}

func (r *fakeUserRepo) GetUserByID(_ context.Context, id uuid.UUID) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return user.User{}, poll_errors.ErrNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return user.User{}, poll_errors.ErrNotFound
}

func (r *fakeUserRepo) GetUserByUsername(_ context.Context, username string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return user.User{}, poll_errors.ErrNotFound
}

func (r *fakeUserRepo) CreateSession(_ context.Context, s *user.UserSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	r.sessions[s.ID] = *s
	return nil
}

func (r *fakeUserRepo) GetSessionByID(_ context.Context, sessionID uuid.UUID) (user.UserSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return user.UserSession{}, poll_errors.ErrNotFound
	}
	return s, nil
}

func (r *fakeUserRepo) UpdateSession(_ context.Context, s user.UserSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.ID]; !ok {
		return poll_errors.ErrNotFound
	}
	r.sessions[s.ID] = s
	return nil
}

func (r *fakeUserRepo) RevokeSession(_ context.Context, sessionID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return poll_errors.ErrNotFound
	}
	s.IsRevoked = true
	r.sessions[sessionID] = s
	return nil
}

func (r *fakeUserRepo) RevokeAllUserSessions(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sessions {
		if s.UserID == userID {
			s.IsRevoked = true
			r.sessions[id] = s
		}
	}
	return nil
}

// capturePublisher records every published payload per channel.
type capturePublisher struct {
	mu       sync.Mutex
	messages map[string][][]byte
}

func newCapturePublisher() *capturePublisher {
	return &capturePublisher{messages: make(map[string][][]byte)}
}

func (p *capturePublisher) Publish(_ context.Context, channel string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages[channel] = append(p.messages[channel], payload)
	return nil
}

func (p *capturePublisher) count(channel string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.messages[channel])
}

// identityContext builds a context carrying a caller identity the way the
// auth middleware would.
func identityContext(userID uuid.UUID, role string) context.Context {
	return WithIdentity(context.Background(), userID, uuid.New(), role)
}
