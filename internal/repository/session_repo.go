package repository

import (
	"context"
	"time"

	"github.com/Eursukkul/studio-booking/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionFilter struct {
	Status *models.SessionStatus
	From   *time.Time
	To     *time.Time
	Page
}

type SessionRepository interface {
	Create(ctx context.Context, session *models.ClassSession) error
	FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.ClassSession, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.ClassSession, error)
	List(ctx context.Context, filter SessionFilter) ([]models.ClassSession, int64, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status models.SessionStatus) error
	SetCurrentBookings(ctx context.Context, tx *gorm.DB, id uuid.UUID, count int) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	Upsert(ctx context.Context, session *models.ClassSession) error
	GetDB() *gorm.DB
}

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *sessionRepository) Create(ctx context.Context, session *models.ClassSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *sessionRepository) FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.ClassSession, error) {
	var session models.ClassSession
	if err := pick(r.db, tx).WithContext(ctx).First(&session, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// FindByIDForUpdate acquires a row-level lock on the session within the given
// transaction. Every capacity and waitlist decision for the session happens
// behind this lock.
func (r *sessionRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.ClassSession, error) {
	var session models.ClassSession
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&session, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) List(ctx context.Context, filter SessionFilter) ([]models.ClassSession, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.ClassSession{})
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.From != nil {
		q = q.Where("starts_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("starts_at < ?", *filter.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page.Normalize()
	var sessions []models.ClassSession
	if err := q.Order("starts_at ASC, id ASC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&sessions).Error; err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

func (r *sessionRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status models.SessionStatus) error {
	return pick(r.db, tx).WithContext(ctx).
		Model(&models.ClassSession{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *sessionRepository) SetCurrentBookings(ctx context.Context, tx *gorm.DB, id uuid.UUID, count int) error {
	if count < 0 {
		count = 0
	}
	return pick(r.db, tx).WithContext(ctx).
		Model(&models.ClassSession{}).
		Where("id = ?", id).
		Update("current_bookings", count).Error
}

func (r *sessionRepository) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return pick(r.db, tx).WithContext(ctx).Delete(&models.ClassSession{}, "id = ?", id).Error
}

// Upsert inserts or refreshes a session snapshot by id. The capacity counter is
// owned by the booking flow and never overwritten here.
func (r *sessionRepository) Upsert(ctx context.Context, session *models.ClassSession) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"class_name", "instructor_name", "room", "starts_at", "ends_at",
			"max_capacity", "price", "status", "notes", "updated_at",
		}),
	}).Create(session).Error
}
