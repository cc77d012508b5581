package repository

import (
	"context"
	"time"

	"github.com/Eursukkul/studio-booking/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WaitlistFilter struct {
	SessionID *uuid.UUID
	Status    *models.WaitlistStatus
	Page
}

type WaitlistRepository interface {
	Create(ctx context.Context, tx *gorm.DB, entry *models.WaitlistEntry) error
	FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.WaitlistEntry, error)
	FindQueuedByUserAndSession(ctx context.Context, tx *gorm.DB, userID, sessionID uuid.UUID) (*models.WaitlistEntry, error)
	CountQueued(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (int64, error)
	FindFirstWaiting(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (*models.WaitlistEntry, error)
	MarkNotified(ctx context.Context, tx *gorm.DB, id uuid.UUID, at, deadline time.Time) error
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status models.WaitlistStatus) error
	ShiftPositionsAfter(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, position int) (int64, error)
	FindOverdueNotified(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, now time.Time) ([]models.WaitlistEntry, error)
	SessionsWithOverdue(ctx context.Context, now time.Time) ([]uuid.UUID, error)
	List(ctx context.Context, filter WaitlistFilter) ([]models.WaitlistEntry, int64, error)
	ListQueuedByUser(ctx context.Context, userID uuid.UUID) ([]models.WaitlistEntry, error)
	GetDB() *gorm.DB
}

type waitlistRepository struct {
	db *gorm.DB
}

func NewWaitlistRepository(db *gorm.DB) WaitlistRepository {
	return &waitlistRepository{db: db}
}

func (r *waitlistRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *waitlistRepository) Create(ctx context.Context, tx *gorm.DB, entry *models.WaitlistEntry) error {
	return pick(r.db, tx).WithContext(ctx).Create(entry).Error
}

func (r *waitlistRepository) FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.WaitlistEntry, error) {
	var entry models.WaitlistEntry
	if err := pick(r.db, tx).WithContext(ctx).First(&entry, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *waitlistRepository) FindQueuedByUserAndSession(ctx context.Context, tx *gorm.DB, userID, sessionID uuid.UUID) (*models.WaitlistEntry, error) {
	var entry models.WaitlistEntry
	err := pick(r.db, tx).WithContext(ctx).
		Where("user_id = ? AND session_id = ? AND status IN ?", userID, sessionID, models.QueuedWaitlistStatuses).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *waitlistRepository) CountQueued(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (int64, error) {
	var count int64
	err := pick(r.db, tx).WithContext(ctx).
		Model(&models.WaitlistEntry{}).
		Where("session_id = ? AND status IN ?", sessionID, models.QueuedWaitlistStatuses).
		Count(&count).Error
	return count, err
}

// FindFirstWaiting returns the lowest-position waiting entry for promotion.
func (r *waitlistRepository) FindFirstWaiting(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (*models.WaitlistEntry, error) {
	var entry models.WaitlistEntry
	err := pick(r.db, tx).WithContext(ctx).
		Where("session_id = ? AND status = ?", sessionID, models.WaitlistWaiting).
		Order("position ASC, joined_at ASC").
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *waitlistRepository) MarkNotified(ctx context.Context, tx *gorm.DB, id uuid.UUID, at, deadline time.Time) error {
	return pick(r.db, tx).WithContext(ctx).
		Model(&models.WaitlistEntry{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":            models.WaitlistNotified,
			"notified_at":       at,
			"response_deadline": deadline,
		}).Error
}

func (r *waitlistRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status models.WaitlistStatus) error {
	return pick(r.db, tx).WithContext(ctx).
		Model(&models.WaitlistEntry{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// ShiftPositionsAfter closes the gap left by a removed entry: every queued
// entry of the session behind position moves up by one.
func (r *waitlistRepository) ShiftPositionsAfter(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, position int) (int64, error) {
	res := pick(r.db, tx).WithContext(ctx).
		Model(&models.WaitlistEntry{}).
		Where("session_id = ? AND position > ? AND status IN ?", sessionID, position, models.QueuedWaitlistStatuses).
		Update("position", gorm.Expr("position - 1"))
	return res.RowsAffected, res.Error
}

// FindOverdueNotified returns notified entries of a session whose response
// deadline is before now, highest position first so gaps close cleanly.
func (r *waitlistRepository) FindOverdueNotified(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, now time.Time) ([]models.WaitlistEntry, error) {
	var entries []models.WaitlistEntry
	err := pick(r.db, tx).WithContext(ctx).
		Where("session_id = ? AND status = ? AND response_deadline < ?", sessionID, models.WaitlistNotified, now).
		Order("position DESC").
		Find(&entries).Error
	return entries, err
}

func (r *waitlistRepository) SessionsWithOverdue(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.WaitlistEntry{}).
		Where("status = ? AND response_deadline < ?", models.WaitlistNotified, now).
		Distinct().
		Pluck("session_id", &ids).Error
	return ids, err
}

func (r *waitlistRepository) List(ctx context.Context, filter WaitlistFilter) ([]models.WaitlistEntry, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.WaitlistEntry{})
	if filter.SessionID != nil {
		q = q.Where("session_id = ?", *filter.SessionID)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page.Normalize()
	var entries []models.WaitlistEntry
	if err := q.Order("session_id ASC, position ASC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *waitlistRepository) ListQueuedByUser(ctx context.Context, userID uuid.UUID) ([]models.WaitlistEntry, error) {
	var entries []models.WaitlistEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status IN ?", userID, models.QueuedWaitlistStatuses).
		Order("joined_at DESC").
		Find(&entries).Error
	return entries, err
}
