package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/akiliki/arruti-app-sub000/internal/application/orderstore"
	"github.com/akiliki/arruti-app-sub000/internal/infrastructure/persistence/models"
)

// Journal listing limits
const (
	DefaultJournalLimit = 50
	MaxJournalLimit     = 500
)

// JournalFilter narrows a journal listing
type JournalFilter struct {
	OrderID   string
	Kind      string
	Outcome   string
	SortBy    string
	SortOrder string
	Limit     int
	Offset    int
}

// GormJournalRepository stores finished mutations. It implements orderstore.MutationRecorder.
type GormJournalRepository struct {
	db *gorm.DB
}

var _ orderstore.MutationRecorder = (*GormJournalRepository)(nil)

// NewGormJournalRepository creates a new GormJournalRepository
func NewGormJournalRepository(db *gorm.DB) *GormJournalRepository {
	return &GormJournalRepository{db: db}
}

// AutoMigrate creates or updates the journal table
func (r *GormJournalRepository) AutoMigrate() error {
	if err := r.db.AutoMigrate(&models.MutationJournalEntry{}); err != nil {
		return fmt.Errorf("failed to migrate mutation journal: %w", err)
	}
	return nil
}

// RecordMutation appends rec to the journal
func (r *GormJournalRepository) RecordMutation(ctx context.Context, rec orderstore.MutationRecord) error {
	entry := toJournalModel(rec)
	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to record mutation %d: %w", rec.Seq, err)
	}
	return nil
}

// Prune deletes entries finished before cutoff and returns how many were removed
func (r *GormJournalRepository) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("finished_at < ?", cutoff).Delete(&models.MutationJournalEntry{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to prune mutation journal: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// FinishedBefore returns every entry finished before cutoff, oldest first
func (r *GormJournalRepository) FinishedBefore(ctx context.Context, cutoff time.Time) ([]orderstore.MutationRecord, error) {
	var entries []models.MutationJournalEntry
	err := r.db.WithContext(ctx).
		Where("finished_at < ?", cutoff).
		Order("finished_at asc").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read journal entries: %w", err)
	}

	records := make([]orderstore.MutationRecord, len(entries))
	for i, e := range entries {
		records[i] = fromJournalModel(e)
	}
	return records, nil
}

// List returns matching entries, newest first unless sorted otherwise, and the total count
func (r *GormJournalRepository) List(ctx context.Context, filter JournalFilter) ([]orderstore.MutationRecord, int64, error) {
	where := func(db *gorm.DB) *gorm.DB {
		if filter.OrderID != "" {
			// order ids are stored as a JSON array
			db = db.Where("order_ids LIKE ?", "%"+jsonQuoted(filter.OrderID)+"%")
		}
		if filter.Kind != "" {
			db = db.Where("kind = ?", filter.Kind)
		}
		if filter.Outcome != "" {
			db = db.Where("outcome = ?", filter.Outcome)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.MutationJournalEntry{}).Scopes(where).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count journal entries: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultJournalLimit
	}
	if limit > MaxJournalLimit {
		limit = MaxJournalLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	sortField := ValidateSortField(filter.SortBy, JournalSortFields, "finished_at")
	sortOrder := ValidateSortOrder(filter.SortOrder)

	var entries []models.MutationJournalEntry
	err := r.db.WithContext(ctx).
		Scopes(where).
		Order(fmt.Sprintf("%s %s", sortField, sortOrder)).
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list journal entries: %w", err)
	}

	records := make([]orderstore.MutationRecord, len(entries))
	for i, e := range entries {
		records[i] = fromJournalModel(e)
	}
	return records, total, nil
}

func toJournalModel(rec orderstore.MutationRecord) models.MutationJournalEntry {
	ids := rec.OrderIDs
	if ids == nil {
		ids = []string{}
	}
	return models.MutationJournalEntry{
		ID:         uuid.NewString(),
		Seq:        rec.Seq,
		Kind:       string(rec.Kind),
		OrderIDs:   ids,
		Outcome:    string(rec.Outcome),
		Error:      rec.Error,
		StartedAt:  rec.StartedAt,
		FinishedAt: rec.FinishedAt,
		DurationMs: rec.Duration().Milliseconds(),
		CreatedAt:  rec.FinishedAt,
	}
}

func fromJournalModel(e models.MutationJournalEntry) orderstore.MutationRecord {
	return orderstore.MutationRecord{
		Seq:        e.Seq,
		Kind:       orderstore.MutationKind(e.Kind),
		OrderIDs:   e.OrderIDs,
		Outcome:    orderstore.Outcome(e.Outcome),
		Error:      e.Error,
		StartedAt:  e.StartedAt,
		FinishedAt: e.FinishedAt,
	}
}

func jsonQuoted(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
