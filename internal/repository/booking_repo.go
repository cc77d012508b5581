package repository

import (
	"context"
	"time"

	"github.com/Eursukkul/studio-booking/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingFilter struct {
	UserID    *uuid.UUID
	SessionID *uuid.UUID
	Status    *models.BookingStatus
	Page
}

type BookingRepository interface {
	Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error
	FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Booking, error)
	FindActiveByUserAndSession(ctx context.Context, tx *gorm.DB, userID, sessionID uuid.UUID) (*models.Booking, error)
	CountActive(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (int64, error)
	Cancel(ctx context.Context, tx *gorm.DB, id uuid.UUID, reason string, at time.Time) error
	UpdateAttendance(ctx context.Context, tx *gorm.DB, id uuid.UUID, status models.BookingStatus, checkedInAt *time.Time) error
	List(ctx context.Context, filter BookingFilter) ([]models.Booking, int64, error)
	GetDB() *gorm.DB
}

type bookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *bookingRepository) Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error {
	return pick(r.db, tx).WithContext(ctx).Create(booking).Error
}

func (r *bookingRepository) FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	if err := pick(r.db, tx).WithContext(ctx).First(&booking, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindActiveByUserAndSession(ctx context.Context, tx *gorm.DB, userID, sessionID uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	err := pick(r.db, tx).WithContext(ctx).
		Where("user_id = ? AND session_id = ? AND status IN ?", userID, sessionID, models.ActiveBookingStatuses).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// CountActive counts confirmed and pending bookings, i.e. seats taken.
func (r *bookingRepository) CountActive(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (int64, error) {
	var count int64
	err := pick(r.db, tx).WithContext(ctx).
		Model(&models.Booking{}).
		Where("session_id = ? AND status IN ?", sessionID, models.ActiveBookingStatuses).
		Count(&count).Error
	return count, err
}

func (r *bookingRepository) Cancel(ctx context.Context, tx *gorm.DB, id uuid.UUID, reason string, at time.Time) error {
	return pick(r.db, tx).WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":              models.StatusCancelled,
			"cancellation_reason": reason,
			"cancelled_at":        at,
		}).Error
}

func (r *bookingRepository) UpdateAttendance(ctx context.Context, tx *gorm.DB, id uuid.UUID, status models.BookingStatus, checkedInAt *time.Time) error {
	return pick(r.db, tx).WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        status,
			"checked_in_at": checkedInAt,
		}).Error
}

func (r *bookingRepository) List(ctx context.Context, filter BookingFilter) ([]models.Booking, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Booking{})
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
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
	var bookings []models.Booking
	if err := q.Order("booked_at DESC, id ASC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&bookings).Error; err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}
