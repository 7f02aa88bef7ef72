package poll

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Poll represents the polls table. Options are stored as an ordered JSON
// array; votes reference options by position, so once votes exist the slice
// may only grow at the tail (existing indexes must stay stable).
type Poll struct {
	ID        uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Question  string                      `gorm:"not null" json:"question"`
	Options   datatypes.JSONSlice[string] `gorm:"not null" json:"options"`
	CreatorID uuid.UUID                   `gorm:"type:uuid;index;not null" json:"creator_id"`
	Completed bool                        `gorm:"not null;default:false" json:"completed"`
	CreatedAt time.Time                   `json:"created_at"`
	UpdatedAt time.Time                   `json:"updated_at"`
}

// Vote represents the votes table. The compound unique index on
// (poll_id, voter_id) is what guarantees at most one vote per voter per poll;
// the application-level lookup before insert only exists to produce a
// friendly error on the common path.
type Vote struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PollID      uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_votes_poll_voter;not null" json:"poll_id"`
	VoterID     uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_votes_poll_voter;not null" json:"voter_id"`
	OptionIndex int       `gorm:"not null" json:"option_index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Poll) TableName() string {
	return "polls"
}

func (Vote) TableName() string {
	return "votes"
}
