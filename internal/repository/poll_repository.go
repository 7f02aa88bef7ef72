package repository

import (
	"context"
	"errors"

	"livepoll/internal/domain/poll"
	poll_errors "livepoll/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresPollRepository struct {
	db *gorm.DB
}

func NewPollRepository(db *gorm.DB) PollRepository {
	return &PostgresPollRepository{db: db}
}

func (r *PostgresPollRepository) Create(ctx context.Context, p *poll.Poll) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PostgresPollRepository) GetByID(ctx context.Context, id uuid.UUID) (poll.Poll, error) {
	var p poll.Poll
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return poll.Poll{}, poll_errors.ErrNotFound
		}
		return poll.Poll{}, err
	}
	return p, nil
}

func (r *PostgresPollRepository) Update(ctx context.Context, p poll.Poll) error {
	res := r.db.WithContext(ctx).Save(&p)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return poll_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresPollRepository) SetCompleted(ctx context.Context, id uuid.UUID, completed bool) error {
	res := r.db.WithContext(ctx).
		Model(&poll.Poll{}).
		Where("id = ?", id).
		Update("completed", completed)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return poll_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresPollRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&poll.Vote{}, "poll_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&poll.Poll{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return poll_errors.ErrNotFound
		}
		return nil
	})
}

func (r *PostgresPollRepository) GetAll(ctx context.Context) ([]poll.Poll, error) {
	var polls []poll.Poll
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&polls).Error
	if err != nil {
		return nil, err
	}
	return polls, nil
}

func (r *PostgresPollRepository) GetByCreator(ctx context.Context, creatorID uuid.UUID) ([]poll.Poll, error) {
	var polls []poll.Poll
	err := r.db.WithContext(ctx).
		Where("creator_id = ?", creatorID).
		Order("created_at ASC").
		Find(&polls).Error
	if err != nil {
		return nil, err
	}
	return polls, nil
}

func (r *PostgresPollRepository) CountByCompletion(ctx context.Context) (int64, int64, error) {
	var total, completed int64
	if err := r.db.WithContext(ctx).
		Model(&poll.Poll{}).
		Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if err := r.db.WithContext(ctx).
		Model(&poll.Poll{}).
		Where("completed = true").
		Count(&completed).Error; err != nil {
		return 0, 0, err
	}
	return total, completed, nil
}
