package models

import "time"

// MutationJournalEntry is one finished optimistic mutation
type MutationJournalEntry struct {
	ID         string    `gorm:"type:varchar(36);primaryKey"`
	Seq        uint64    `gorm:"not null"`
	Kind       string    `gorm:"type:varchar(32);not null;index"`
	OrderIDs   []string  `gorm:"serializer:json;type:text;not null"`
	Outcome    string    `gorm:"type:varchar(16);not null;index"`
	Error      string    `gorm:"type:text"`
	StartedAt  time.Time `gorm:"not null"`
	FinishedAt time.Time `gorm:"not null;index"`
	DurationMs int64     `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (MutationJournalEntry) TableName() string {
	return "mutation_journal"
}
