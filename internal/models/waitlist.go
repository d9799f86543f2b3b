package models

import "time"

const (
	WaitlistNameMaxLength       = 255
	WaitlistEmailMaxLength      = 255
	WaitlistSuggestionMaxLength = 1000
)

// WaitlistEntry is one person's signup. Rows are written once and never updated.
type WaitlistEntry struct {
	ID         uint      `gorm:"primaryKey"`
	Name       string    `gorm:"type:varchar(255);not null"`
	Email      string    `gorm:"type:varchar(255);not null;uniqueIndex:waitlist_entries_email_key"`
	Suggestion *string   `gorm:"type:varchar(1000)"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime"`
}

func (WaitlistEntry) TableName() string {
	return "waitlist_entries"
}
