package database

import (
	"livepoll/internal/domain/poll"
	"livepoll/internal/domain/user"

	"gorm.io/gorm"
)

// Migrate creates or updates every table the service uses, including the
// compound unique index on votes that backs one-vote-per-user.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&user.User{},
		&user.UserSession{},
		&poll.Poll{},
		&poll.Vote{},
	)
}
