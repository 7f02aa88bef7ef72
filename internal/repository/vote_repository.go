package repository

import (
	"context"
	"errors"

	"livepoll/internal/domain/poll"
	poll_errors "livepoll/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresVoteRepository struct {
	db *gorm.DB
}

func NewVoteRepository(db *gorm.DB) VoteRepository {
	return &PostgresVoteRepository{db: db}
}

func (r *PostgresVoteRepository) Create(ctx context.Context, v *poll.Vote) error {
	res := r.db.WithContext(ctx).Create(v)
	if res.Error != nil {
		// Two casts racing past the existence check both reach the insert; the
		// unique index on (poll_id, voter_id) lets only one through.
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) || isUniqueViolation(res.Error) {
			return poll_errors.ErrAlreadyVoted
		}
		return res.Error
	}
	return nil
}

func (r *PostgresVoteRepository) GetByPollAndVoter(ctx context.Context, pollID, voterID uuid.UUID) (poll.Vote, error) {
	var v poll.Vote
	err := r.db.WithContext(ctx).
		Where("poll_id = ? AND voter_id = ?", pollID, voterID).
		First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return poll.Vote{}, poll_errors.ErrNotFound
		}
		return poll.Vote{}, err
	}
	return v, nil
}

func (r *PostgresVoteRepository) UpdateOption(ctx context.Context, voteID uuid.UUID, optionIndex int) error {
	res := r.db.WithContext(ctx).
		Model(&poll.Vote{}).
		Where("id = ?", voteID).
		Update("option_index", optionIndex)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return poll_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresVoteRepository) Delete(ctx context.Context, voteID uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&poll.Vote{}, "id = ?", voteID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return poll_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresVoteRepository) GetByPoll(ctx context.Context, pollID uuid.UUID) ([]poll.Vote, error) {
	var votes []poll.Vote
	err := r.db.WithContext(ctx).
		Where("poll_id = ?", pollID).
		Find(&votes).Error
	if err != nil {
		return nil, err
	}
	return votes, nil
}

func (r *PostgresVoteRepository) GetByVoter(ctx context.Context, voterID uuid.UUID) ([]poll.Vote, error) {
	var votes []poll.Vote
	err := r.db.WithContext(ctx).
		Where("voter_id = ?", voterID).
		Find(&votes).Error
	if err != nil {
		return nil, err
	}
	return votes, nil
}

func (r *PostgresVoteRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&poll.Vote{}).
		Count(&count).Error
	return count, err
}

func (r *PostgresVoteRepository) CountByPoll(ctx context.Context, pollID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&poll.Vote{}).
		Where("poll_id = ?", pollID).
		Count(&count).Error
	return count, err
}
